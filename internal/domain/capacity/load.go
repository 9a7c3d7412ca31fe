// Package capacity classifies service load and institution crowding from
// inflow and capacity figures.
package capacity

import (
	"math"

	"github.com/myturn/backend/internal/domain/entities"
)

// LoadLevel is the operating state of a single service
type LoadLevel string

const (
	LoadStable   LoadLevel = "stable"
	LoadBuffered LoadLevel = "buffered"
	LoadSurge    LoadLevel = "surge"
)

const (
	bufferedPercent = 75
	surgePercent    = 100
	moderatePercent = 50
)

// Percent returns inflow as an unrounded percentage of capacity. A service
// without capacity is fully utilized as soon as anyone arrives.
func Percent(inflow, capacity int) float64 {
	if capacity <= 0 {
		if inflow > 0 {
			return surgePercent
		}
		return 0
	}
	return float64(inflow) / float64(capacity) * 100
}

// Utilization is Percent rounded to one decimal for display. Band decisions
// use Percent.
func Utilization(inflow, capacity int) float64 {
	return math.Round(Percent(inflow, capacity)*10) / 10
}

// Classify returns the load level of a service. Absolute thresholds, when set,
// take precedence over the percentage bands.
func Classify(svc entities.Service) LoadLevel {
	u := Percent(svc.CurrentInflow, svc.NormalCapacity)

	surge := u >= surgePercent
	if svc.SurgeThreshold != nil {
		surge = svc.CurrentInflow >= *svc.SurgeThreshold
	}
	buffered := u >= bufferedPercent
	if svc.BufferThreshold != nil {
		buffered = svc.CurrentInflow >= *svc.BufferThreshold
	}

	switch {
	case surge:
		return LoadSurge
	case buffered:
		return LoadBuffered
	default:
		return LoadStable
	}
}

// CrowdLevelFor maps an institution-wide utilization percentage to a crowd level
func CrowdLevelFor(utilization float64) entities.CrowdLevel {
	switch {
	case utilization >= surgePercent:
		return entities.CrowdLevelSurge
	case utilization >= bufferedPercent:
		return entities.CrowdLevelHigh
	case utilization >= moderatePercent:
		return entities.CrowdLevelModerate
	default:
		return entities.CrowdLevelLow
	}
}

// SurgeLimit returns the inflow count above which a service is in surge
func SurgeLimit(svc entities.Service) int {
	if svc.SurgeThreshold != nil {
		return *svc.SurgeThreshold
	}
	return svc.NormalCapacity
}
