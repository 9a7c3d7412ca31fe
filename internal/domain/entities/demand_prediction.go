package entities

import (
	"time"
)

// DemandPrediction is a forecast of inflow for one hour of one day
type DemandPrediction struct {
	ID              string    `json:"id" db:"id"`
	InstitutionID   string    `json:"institution_id" db:"institution_id"`
	ServiceID       *string   `json:"service_id,omitempty" db:"service_id"`
	PredictionDate  time.Time `json:"prediction_date" db:"prediction_date"`
	HourSlot        int       `json:"hour_slot" db:"hour_slot"`
	PredictedDemand int       `json:"predicted_demand" db:"predicted_demand"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty" db:"confidence_score"`
	IsSurgeExpected bool      `json:"is_surge_expected" db:"is_surge_expected"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
