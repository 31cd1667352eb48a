package game

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// MinigameMode is how a session is scored.
type MinigameMode string

const (
	ModeFFA  MinigameMode = "ffa"
	ModeTeam MinigameMode = "team"
	ModeDuel MinigameMode = "duel"
)

// ScoreInput is one raw score update.
type ScoreInput struct {
	PlayerID uuid.UUID `json:"playerId"`
	Score    float64   `json:"score"`
	At       time.Time `json:"at"`
}

// MinigameSession is one contest between some or all players.
type MinigameSession struct {
	ID           uuid.UUID
	Game         *catalog.Minigame
	Mode         MinigameMode
	Versus       bool
	OneVsMany    bool
	Participants []uuid.UUID
	Teams        [][]uuid.UUID
	Scores       map[uuid.UUID]float64
	Inputs       []ScoreInput
	Reward       int
	StartedAt    time.Time
	Ended        bool
	Winners      []uuid.UUID
	Payout       int

	submitted map[uuid.UUID]bool
}

func newSession(mode MinigameMode, game *catalog.Minigame, participants []uuid.UUID, teams [][]uuid.UUID, reward int) *MinigameSession {
	return &MinigameSession{
		ID:           uuid.New(),
		Game:         game,
		Mode:         mode,
		Participants: participants,
		Teams:        teams,
		Scores:       make(map[uuid.UUID]float64, len(participants)),
		Reward:       reward,
		submitted:    make(map[uuid.UUID]bool, len(participants)),
	}
}

func (s *MinigameSession) has(id uuid.UUID) bool {
	for _, p := range s.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// submit records a score update. Later updates replace earlier ones.
func (s *MinigameSession) submit(id uuid.UUID, score float64, at time.Time) {
	s.Scores[id] = score
	s.submitted[id] = true
	s.Inputs = append(s.Inputs, ScoreInput{PlayerID: id, Score: score, At: at})
}

func (s *MinigameSession) hasSubmitted(id uuid.UUID) bool {
	return s.submitted[id]
}

// complete is true once every participant has reported at least once.
func (s *MinigameSession) complete() bool {
	return len(s.submitted) >= len(s.Participants)
}

// winners returns the top scorers, or the members of the higher-scoring team.
// Only submitted scores count: a silent participant never outranks one who played, and a
// team with no submissions loses to any team that has one. Nobody wins a session without
// any input or a team session that ends level.
func (s *MinigameSession) winners() []uuid.UUID {
	if len(s.submitted) == 0 {
		return nil
	}
	if s.Mode == ModeTeam && len(s.Teams) == 2 {
		a, aPlayed := s.teamTotal(s.Teams[0])
		b, bPlayed := s.teamTotal(s.Teams[1])
		switch {
		case aPlayed && !bPlayed, aPlayed && bPlayed && a > b:
			return append([]uuid.UUID(nil), s.Teams[0]...)
		case bPlayed && !aPlayed, aPlayed && bPlayed && b > a:
			return append([]uuid.UUID(nil), s.Teams[1]...)
		}
		return nil
	}
	best := math.Inf(-1)
	var out []uuid.UUID
	for _, id := range s.Participants {
		if !s.submitted[id] {
			continue
		}
		sc := s.Scores[id]
		switch {
		case sc > best:
			best = sc
			out = []uuid.UUID{id}
		case sc == best:
			out = append(out, id)
		}
	}
	return out
}

// teamTotal sums the submitted scores of team and reports whether anyone on it submitted.
func (s *MinigameSession) teamTotal(team []uuid.UUID) (float64, bool) {
	var total float64
	played := false
	for _, id := range team {
		if s.submitted[id] {
			total += s.Scores[id]
			played = true
		}
	}
	return total, played
}

// classify derives teams from where players ended their moves. Players on loss or hazard
// spaces form one side.
func classify(m *Match) (MinigameMode, [][]uuid.UUID, bool) {
	var alt, rest []uuid.UUID
	for _, p := range m.Players {
		switch catalog.SpaceType(p.LastLanded) {
		case catalog.SpaceLoss, catalog.SpaceHazard:
			alt = append(alt, p.ID)
		default:
			rest = append(rest, p.ID)
		}
	}
	switch {
	case len(alt) == 0 || len(rest) == 0:
		return ModeFFA, nil, false
	case len(alt) == len(rest):
		return ModeTeam, [][]uuid.UUID{alt, rest}, false
	case len(m.Players) >= 3 && (len(alt) == 1 || len(rest) == 1):
		return ModeTeam, [][]uuid.UUID{alt, rest}, true
	}
	return ModeFFA, nil, false
}

var fallbackMinigame = &catalog.Minigame{ID: "free_for_all", Name: "Free For All", Kind: catalog.KindFFA}

func (e *Engine) pickMinigame(m *Match, kind catalog.MinigameKind) *catalog.Minigame {
	games := e.cat.MinigamesOfKind(kind)
	if len(games) == 0 && kind != catalog.KindFFA {
		games = e.cat.MinigamesOfKind(catalog.KindFFA)
	}
	if len(games) == 0 {
		return fallbackMinigame
	}
	return games[m.rng.Intn(len(games))]
}

// startIntro opens the round's group minigame, or the versus follow-up.
func (e *Engine) startIntro(m *Match, versus bool) {
	mode, teams, oneVsMany := ModeFFA, [][]uuid.UUID(nil), false
	if !versus {
		mode, teams, oneVsMany = classify(m)
	}
	kind := catalog.KindFFA
	if mode == ModeTeam {
		kind = catalog.KindTeam
	}
	reward := minigameReward
	if versus {
		reward = versusReward
	}
	if m.Finale == FinaleMinigameReward {
		reward *= 2
	}
	participants := make([]uuid.UUID, len(m.Players))
	for i, p := range m.Players {
		participants[i] = p.ID
	}

	s := newSession(mode, e.pickMinigame(m, kind), participants, teams, reward)
	s.Versus = versus
	s.OneVsMany = oneVsMany
	m.Minigame = s
	if !e.setPhase(m, PhaseMinigameIntro) {
		return
	}
	e.emit(m, uuid.Nil, EventMinigameIntro, map[string]interface{}{
		"sessionId":  s.ID,
		"minigameId": s.Game.ID,
		"name":       s.Game.Name,
		"mode":       s.Mode,
		"teams":      s.Teams,
		"oneVsMany":  s.OneVsMany,
		"versus":     s.Versus,
		"reward":     s.Reward,
	})
	e.after(m, keyIntro, e.timings.MinigameIntro, func(m *Match) {
		if m.Phase != PhaseMinigameIntro || m.Minigame != s {
			return
		}
		e.startMinigame(m)
	})
}

func (e *Engine) startMinigame(m *Match) {
	s := m.Minigame
	if !e.setPhase(m, PhaseMinigame) {
		return
	}
	s.StartedAt = e.now()
	e.emit(m, uuid.Nil, EventMinigameStart, map[string]interface{}{
		"sessionId":  s.ID,
		"minigameId": s.Game.ID,
	})
	for _, id := range s.Participants {
		if p := m.player(id); autoPlayed(p) {
			e.autoScore(m, s, p)
		}
	}
	if s.complete() {
		e.resolveMinigame(m)
		return
	}
	e.after(m, keyMinigame, e.timings.MinigameCeiling, func(m *Match) {
		if m.Phase != PhaseMinigame || m.Minigame != s || s.Ended {
			return
		}
		e.log.WithField("match", m.ID).Debugf("minigame %s hit its time ceiling", s.ID)
		e.resolveMinigame(m)
	})
}

// autoScore submits a bot-drawn score for p.
func (e *Engine) autoScore(m *Match, s *MinigameSession, p *models.Player) {
	score := e.brainFor(m, p).MinigameScore()
	s.submit(p.ID, score, e.now())
	e.emit(m, p.ID, EventMinigameScore, map[string]interface{}{
		"sessionId": s.ID,
		"playerId":  p.ID,
		"score":     score,
	})
}

// SubmitScore reports a minigame or duel score for playerID.
func (e *Engine) SubmitScore(matchID, playerID uuid.UUID, score float64) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.submitScore(m, playerID, score)
	})
}

func (e *Engine) submitScore(m *Match, playerID uuid.UUID, score float64) error {
	if m.player(playerID) == nil {
		return ErrNotInMatch
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return ErrInvalidScore
	}
	if d := m.Duel; d != nil && d.Session != nil && !d.Session.Ended && d.Session.has(playerID) {
		d.Session.submit(playerID, score, e.now())
		e.emit(m, playerID, EventMinigameScore, map[string]interface{}{
			"sessionId": d.Session.ID,
			"playerId":  playerID,
			"score":     score,
		})
		if d.Session.complete() {
			e.finishDuelSession(m, d, true)
		}
		return nil
	}

	s := m.Minigame
	if m.Phase != PhaseMinigame || s == nil || s.Ended {
		return ErrNoMinigame
	}
	if !s.has(playerID) {
		return ErrNotParticipant
	}
	s.submit(playerID, score, e.now())
	e.emit(m, playerID, EventMinigameScore, map[string]interface{}{
		"sessionId": s.ID,
		"playerId":  playerID,
		"score":     score,
	})
	if s.complete() {
		e.resolveMinigame(m)
	}
	return nil
}

// settle pays the winners and updates everyone's minigame counters.
func (e *Engine) settle(m *Match, s *MinigameSession, winners []uuid.UUID) {
	s.Ended = true
	s.Winners = winners
	if len(winners) > 0 {
		s.Payout = s.Reward / len(winners)
	}
	for _, id := range s.Participants {
		if p := m.player(id); p != nil {
			p.Stats.MinigamesPlayed++
		}
	}
	for _, id := range winners {
		if p := m.player(id); p != nil {
			p.Stats.MinigamesWon++
			p.AddCoins(s.Payout)
		}
	}
}

func (e *Engine) resolveMinigame(m *Match) {
	s := m.Minigame
	e.sched.Cancel(m.ID, keyMinigame)
	e.settle(m, s, s.winners())
	if !e.setPhase(m, PhaseMinigameResults) {
		return
	}
	scores := make(map[string]float64, len(s.Scores))
	for id, sc := range s.Scores {
		scores[id.String()] = sc
	}
	e.emit(m, uuid.Nil, EventMinigameResults, map[string]interface{}{
		"sessionId": s.ID,
		"mode":      s.Mode,
		"scores":    scores,
		"winners":   s.Winners,
		"payout":    s.Payout,
		"versus":    s.Versus,
	})
	e.after(m, keyResults, e.timings.ResultsDisplay, func(m *Match) {
		if m.Phase != PhaseMinigameResults || m.Minigame != s {
			return
		}
		m.Minigame = nil
		if m.Versus && !m.versusPlayed {
			m.versusPlayed = true
			e.startIntro(m, true)
			return
		}
		e.nextRound(m)
	})
}
