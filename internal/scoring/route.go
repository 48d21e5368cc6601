package scoring

import (
	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/geo"
)

// OrderStops sequences intermediate stops between a fixed origin (first
// element) and destination (last element) using a greedy nearest-neighbor
// heuristic: repeatedly visit the closest unvisited stop. The result is an
// approximation, not an optimal tour.
func OrderStops(stops []domain.Location) []domain.Location {
	if len(stops) <= 2 {
		return stops
	}

	origin := stops[0]
	destination := stops[len(stops)-1]
	remaining := make([]domain.Location, len(stops)-2)
	copy(remaining, stops[1:len(stops)-1])

	ordered := make([]domain.Location, 0, len(stops))
	ordered = append(ordered, origin)

	current := origin
	for len(remaining) > 0 {
		nearest := 0
		nearestDist := geo.DistanceKm(current, remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := geo.DistanceKm(current, remaining[i]); d < nearestDist {
				nearest, nearestDist = i, d
			}
		}
		current = remaining[nearest]
		ordered = append(ordered, current)
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}

	return append(ordered, destination)
}
