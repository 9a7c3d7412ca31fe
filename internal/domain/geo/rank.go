package geo

import (
	"sort"
	"time"

	"github.com/myturn/backend/internal/domain/entities"
)

// Rank annotates institutions with distance, travel time and departure time
// from origin and sorts them nearest first. A nil origin leaves the fields
// unset and returns the institutions in input order.
func Rank(institutions []entities.Institution, origin *Coordinates, mode TravelMode, now time.Time, loc *time.Location) []entities.RankedInstitution {
	ranked := make([]entities.RankedInstitution, len(institutions))
	if origin == nil {
		for i := range institutions {
			ranked[i] = entities.RankedInstitution{Institution: institutions[i]}
		}
		return ranked
	}

	exact := make([]float64, len(institutions))
	order := make([]int, len(institutions))
	for i, inst := range institutions {
		d := Distance(*origin, Coordinates{
			Latitude:  inst.Location.Latitude,
			Longitude: inst.Location.Longitude,
		})
		minutes := TravelMinutes(d, mode)
		rounded := RoundKm(d)
		departure := DepartureClock(now, minutes, loc)

		exact[i] = d
		order[i] = i
		ranked[i] = entities.RankedInstitution{
			Institution:   inst,
			DistanceKm:    &rounded,
			TravelMinutes: &minutes,
			DepartureTime: &departure,
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return exact[order[a]] < exact[order[b]]
	})

	out := make([]entities.RankedInstitution, len(order))
	for i, idx := range order {
		out[i] = ranked[idx]
	}
	return out
}
