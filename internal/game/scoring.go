package game

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/rating"
)

// Credit conversion.
const (
	creditsBase        = 50
	creditsPerStar     = 10
	coinsPerCredit     = 10
	creditsPerMinigame = 5
)

var placementCredits = []int{30, 20, 10}

// BonusAward is one end-of-match category and the players who took its star.
type BonusAward struct {
	Category  string      `json:"category"`
	Value     int         `json:"value"`
	PlayerIDs []uuid.UUID `json:"playerIds"`
}

// Standing is one player's final line.
type Standing struct {
	PlayerID     uuid.UUID `json:"playerId"`
	Name         string    `json:"name"`
	IsBot        bool      `json:"isBot"`
	Placement    int       `json:"placement"`
	Stars        int       `json:"stars"`
	Coins        int       `json:"coins"`
	BonusStars   int       `json:"bonusStars"`
	MinigamesWon int       `json:"minigamesWon"`
	Credits      int       `json:"credits"`
}

// Summary is the end-of-match result.
type Summary struct {
	MatchID   uuid.UUID    `json:"matchId"`
	Standings []Standing   `json:"standings"`
	Bonuses   []BonusAward `json:"bonuses"`
}

type bonusCategory struct {
	name  string
	value func(p *models.Player) int
}

var bonusCategories = []bonusCategory{
	{"richest", func(p *models.Player) int { return p.Coins }},
	{"minigame_star", func(p *models.Player) int { return p.Stats.MinigamesWon }},
	{"explorer", func(p *models.Player) int { return p.Stats.SpacesTraveled }},
	{"item_lover", func(p *models.Player) int { return p.Stats.ItemsUsed }},
	{"lucky", func(p *models.Player) int { return p.Stats.Landings["fortune"] }},
	{"eventful", func(p *models.Player) int { return p.Stats.Landings["event"] }},
}

// awardBonusStars gives one star per category to every player tied at a positive maximum.
// Champions are decided before any star is handed out. There is at most one award per
// category, but a tied award stars each of its holders, so more than six stars can be given.
func awardBonusStars(players []*models.Player) ([]BonusAward, map[uuid.UUID]int) {
	var awards []BonusAward
	for _, c := range bonusCategories {
		best := 0
		for _, p := range players {
			if v := c.value(p); v > best {
				best = v
			}
		}
		if best <= 0 {
			continue
		}
		award := BonusAward{Category: c.name, Value: best}
		for _, p := range players {
			if c.value(p) == best {
				award.PlayerIDs = append(award.PlayerIDs, p.ID)
			}
		}
		awards = append(awards, award)
	}
	extra := make(map[uuid.UUID]int)
	for _, a := range awards {
		for _, id := range a.PlayerIDs {
			extra[id]++
		}
	}
	for _, p := range players {
		p.AddStars(extra[p.ID])
	}
	return awards, extra
}

// rank orders players by stars, then coins, then turn order.
func rank(players []*models.Player) []*models.Player {
	out := append([]*models.Player(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Stars != b.Stars {
			return a.Stars > b.Stars
		}
		if a.Coins != b.Coins {
			return a.Coins > b.Coins
		}
		return a.Order < b.Order
	})
	return out
}

func credits(p *models.Player, placement int) int {
	c := creditsBase + p.Stars*creditsPerStar + p.Coins/coinsPerCredit + p.Stats.MinigamesWon*creditsPerMinigame
	if placement >= 1 && placement <= len(placementCredits) {
		c += placementCredits[placement-1]
	}
	return c
}

// endMatch scores the match, broadcasts the summary, hands persistence off and schedules teardown.
func (e *Engine) endMatch(m *Match) {
	if !e.setPhase(m, PhaseGameEnd) {
		return
	}
	m.Ended = true
	m.EndedAt = e.now()
	e.sched.CancelAll(m.ID)

	var awards []BonusAward
	extra := map[uuid.UUID]int{}
	if m.Settings.BonusStars {
		awards, extra = awardBonusStars(m.Players)
	}

	summary := &Summary{MatchID: m.ID, Bonuses: awards}
	for i, p := range rank(m.Players) {
		summary.Standings = append(summary.Standings, Standing{
			PlayerID:     p.ID,
			Name:         p.Name,
			IsBot:        p.IsBot,
			Placement:    i + 1,
			Stars:        p.Stars,
			Coins:        p.Coins,
			BonusStars:   extra[p.ID],
			MinigamesWon: p.Stats.MinigamesWon,
			Credits:      credits(p, i+1),
		})
	}
	m.Result = summary

	if len(awards) > 0 {
		e.emit(m, uuid.Nil, EventBonusStars, map[string]interface{}{"awards": awards})
	}
	e.emit(m, uuid.Nil, EventMatchEnd, map[string]interface{}{
		"matchId":   m.ID,
		"standings": summary.Standings,
		"bonuses":   summary.Bonuses,
	})
	e.log.WithField("match", m.ID).Infof("match ended, winner %s", summary.Standings[0].Name)
	e.metrics.MatchEnded()

	go e.persist(e.matchRecord(m, summary), summary.Standings)
	if e.OnMatchEnd != nil {
		go e.OnMatchEnd(m.LobbyID, m.ID)
	}

	id := m.ID
	e.sched.Schedule(id, keyCleanup, e.timings.CleanupGrace, func() {
		if e.matches.Delete(id) {
			e.metrics.MatchRemoved()
			e.log.WithField("match", id).Debug("match removed after grace period")
		}
	})
}

func (e *Engine) matchRecord(m *Match, s *Summary) models.MatchRecord {
	rec := models.MatchRecord{
		ID:        m.ID,
		LobbyID:   m.LobbyID,
		BoardID:   m.Board.ID,
		Turns:     m.MaxTurns,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
	for _, st := range s.Standings {
		rec.Participants = append(rec.Participants, models.ParticipantRecord{
			UserID:       st.PlayerID,
			Name:         st.Name,
			IsBot:        st.IsBot,
			Placement:    st.Placement,
			Stars:        st.Stars,
			Coins:        st.Coins,
			BonusStars:   st.BonusStars,
			MinigamesWon: st.MinigamesWon,
			Credits:      st.Credits,
		})
	}
	return rec
}

// persist reports results to the store. Failures are logged; the match is already over.
func (e *Engine) persist(rec models.MatchRecord, standings []Standing) {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log := e.log.WithField("match", rec.ID)

	ratings := e.ratingChanges(ctx, standings)
	for _, st := range standings {
		if st.IsBot {
			continue
		}
		delta := models.ProfileDelta{
			GamesPlayed:  1,
			TotalStars:   st.Stars,
			TotalCoins:   st.Coins,
			MinigamesWon: st.MinigamesWon,
			Rating:       ratings[st.PlayerID],
		}
		if st.Placement == 1 {
			delta.Wins = 1
		}
		if err := e.store.UpdateProfile(ctx, st.PlayerID, delta); err != nil {
			log.Warnf("update profile of %s: %v", st.PlayerID, err)
			e.metrics.StoreFailure("update_profile")
		}
		if err := e.store.CreditCurrency(ctx, st.PlayerID, st.Credits); err != nil {
			log.Warnf("credit %d to %s: %v", st.Credits, st.PlayerID, err)
			e.metrics.StoreFailure("credit_currency")
		}
	}
	if err := e.store.RecordMatch(ctx, rec); err != nil {
		log.Warnf("record match: %v", err)
		e.metrics.StoreFailure("record_match")
	}
}

// ratingChanges rates every seat by placement. Bots, and accounts whose profile cannot be read,
// enter at the default rating.
func (e *Engine) ratingChanges(ctx context.Context, standings []Standing) map[uuid.UUID]int {
	entrants := make([]rating.Entrant, 0, len(standings))
	before := make(map[uuid.UUID]int, len(standings))
	for _, st := range standings {
		current := rating.Default
		if !st.IsBot {
			if p, err := e.store.GetProfile(ctx, st.PlayerID); err == nil {
				current = p.Rating
			} else {
				e.log.Debugf("profile of %s unavailable for rating: %v", st.PlayerID, err)
			}
		}
		before[st.PlayerID] = current
		entrants = append(entrants, rating.Entrant{ID: st.PlayerID, Rating: current, Placement: st.Placement})
	}

	changes := make(map[uuid.UUID]int, len(entrants))
	for id, updated := range rating.Update(entrants) {
		changes[id] = updated - before[id]
	}
	return changes
}
