package rating

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadToHead(t *testing.T) {
	winner, loser := uuid.New(), uuid.New()
	got := Update([]Entrant{
		{ID: winner, Rating: Default, Placement: 1},
		{ID: loser, Rating: Default, Placement: 2},
	})
	assert.Greater(t, got[winner], Default)
	assert.Less(t, got[loser], Default)
}

func TestPlacementScores(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	scores := placementScores([]Entrant{
		{ID: d, Placement: 4},
		{ID: a, Placement: 1},
		{ID: b, Placement: 2},
		{ID: c, Placement: 2},
	})
	assert.InDelta(t, 1.0, scores[a], 1e-9)
	assert.InDelta(t, 0.5, scores[b], 1e-9, "tied second and third share the middle")
	assert.InDelta(t, scores[b], scores[c], 1e-9)
	assert.InDelta(t, 0.0, scores[d], 1e-9)
}

func TestFourPlayerMatchOrdersRatings(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	var entrants []Entrant
	for i, id := range ids {
		entrants = append(entrants, Entrant{ID: id, Rating: Default, Placement: i + 1})
	}
	got := Update(entrants)
	require.Len(t, got, 4)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, got[ids[i-1]], got[ids[i]])
	}
}

func TestSoloMatchKeepsRating(t *testing.T) {
	id := uuid.New()
	got := Update([]Entrant{{ID: id, Rating: 1620, Placement: 1}})
	assert.Equal(t, 1620, got[id])
}

func TestScaleRoundTrip(t *testing.T) {
	assert.InDelta(t, 1800, skillOf(1800).rating(), 1e-9)
	assert.InDelta(t, 0, skillOf(Default).mu, 1e-12)
}

// Worked example from Glickman's Glicko-2 paper: a 1500/200 player beats a 1400/30 player,
// loses to 1550/100 and 1700/300. The paper reports 1464.06, RD 151.52, sigma 0.05999.
func TestPaperExample(t *testing.T) {
	player := skill{mu: 0, phi: 200 / scale, sigma: volatility}
	opps := []struct {
		rating, rd, score float64
	}{{1400, 30, 1}, {1550, 100, 0}, {1700, 300, 0}}

	var vInv, sum float64
	for _, o := range opps {
		mu, phi := (o.rating-Default)/scale, o.rd/scale
		g, e := impact(phi), expected(player.mu, mu, phi)
		vInv += g * g * e * (1 - e)
		sum += g * (o.score - e)
	}
	v := 1 / vInv
	delta := v * sum
	assert.InDelta(t, 1.7785, v, 1e-3)
	assert.InDelta(t, -0.4834, delta, 1e-3)

	sigma := nextVolatility(player, v, delta)
	assert.InDelta(t, 0.05999, sigma, 1e-5)

	phiStar := math.Sqrt(player.phi*player.phi + sigma*sigma)
	phi := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	mu := player.mu + phi*phi*sum
	assert.InDelta(t, 1464.06, mu*scale+Default, 0.1)
	assert.InDelta(t, 151.52, phi*scale, 0.1)
}

func TestUpsetMovesMoreThanExpectedWin(t *testing.T) {
	strong, weak := skillOf(1800), skillOf(1400)
	expectedWin := ratePeriod(strong, weak, 1).rating() - 1800
	upset := ratePeriod(weak, strong, 1).rating() - 1400
	assert.Greater(t, expectedWin, 0.0)
	assert.Greater(t, upset, expectedWin)
}
