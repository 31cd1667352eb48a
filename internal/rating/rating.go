// Package rating keeps the account skill rating shown on profiles. Each finished match is one
// rating period: every entrant is scored by placement and rated against the average of the rest.
package rating

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// Default is the rating of an account that has not finished a match, and of every bot.
const Default = 1500

// Entrant is one seat of a finished match. Placement 1 is best; equal placements are ties.
type Entrant struct {
	ID        uuid.UUID
	Rating    int
	Placement int
}

// placementScores maps placements to a score in [0, 1]: first gets 1, last gets 0 and tied
// entrants share the mean of the ranks they span.
func placementScores(entrants []Entrant) map[uuid.UUID]float64 {
	sorted := make([]Entrant, len(entrants))
	copy(sorted, entrants)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Placement < sorted[j].Placement })

	out := make(map[uuid.UUID]float64, len(sorted))
	last := float64(len(sorted) - 1)
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].Placement == sorted[i].Placement {
			j++
		}
		avgRank := float64(i+j-1) / 2
		for k := i; k < j; k++ {
			out[sorted[k].ID] = 1 - avgRank/last
		}
		i = j
	}
	return out
}

// Update returns every entrant's rating after the match. Fewer than two entrants leave ratings
// unchanged.
func Update(entrants []Entrant) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(entrants))
	if len(entrants) < 2 {
		for _, e := range entrants {
			out[e.ID] = e.Rating
		}
		return out
	}

	scores := placementScores(entrants)
	total := 0.0
	for _, e := range entrants {
		total += float64(e.Rating)
	}
	for _, e := range entrants {
		field := (total - float64(e.Rating)) / float64(len(entrants)-1)
		rated := ratePeriod(skillOf(float64(e.Rating)), skillOf(field), scores[e.ID])
		out[e.ID] = int(math.Round(rated.rating()))
	}
	return out
}
