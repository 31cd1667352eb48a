package lobby

import (
	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// Start passes the start gate and opens the board vote.
func (o *Orchestrator) Start(id, userID uuid.UUID) error {
	return o.withLobby(id, func(l *Lobby) error {
		if err := o.requireHost(l, userID); err != nil {
			return err
		}
		if l.State != StateWaiting {
			return ErrNotWaiting
		}
		if !l.canStart() {
			return ErrStartGate
		}
		boards := o.cat.VotableBoards()
		if len(boards) == 0 {
			return ErrNoBoards
		}

		n := len(boards)
		if n > maxBoardChoice {
			n = maxBoardChoice
		}
		options := make([]string, 0, n)
		for _, i := range l.rng.Perm(len(boards))[:n] {
			options = append(options, boards[i].ID)
		}

		l.State = StateVoting
		l.resolved = false
		l.Ballot = newBallot(options, o.now().Add(o.voteWindow))
		o.log.WithField("lobby", l.ID).Infof("voting started on %v", options)
		o.emit(l, EventVotingStarted, map[string]interface{}{
			"options":  options,
			"deadline": l.Ballot.Deadline,
			"seconds":  int(o.voteWindow.Seconds()),
		})

		ballot := l.Ballot
		lobbyID := l.ID
		o.sched.Schedule(lobbyID, keyVote, o.voteWindow, func() {
			l, ok := o.lobbies.GetLobby(lobbyID)
			if !ok {
				return
			}
			l.Mu.Lock()
			defer l.Mu.Unlock()
			if l.State != StateVoting || l.Ballot != ballot {
				return
			}
			o.log.WithField("lobby", lobbyID).Debug("vote window elapsed")
			o.resolve(l)
		})
		return nil
	})
}

// Vote records userID's board choice. The first human vote also casts every bot's vote.
func (o *Orchestrator) Vote(id, userID uuid.UUID, boardID string) error {
	return o.withLobby(id, func(l *Lobby) error {
		if l.member(userID) == nil {
			return ErrNotMember
		}
		b := l.Ballot
		if l.State != StateVoting || b == nil {
			return ErrNotVoting
		}
		if !b.offered(boardID) {
			return ErrInvalidVote
		}
		if _, done := b.Boards[userID]; done {
			return ErrAlreadyVoted
		}
		b.Boards[userID] = boardID
		o.emit(l, EventVoteCast, map[string]interface{}{"voterId": userID, "boardId": boardID, "counts": b.tally()})

		if !b.botsCast {
			b.botsCast = true
			for _, bot := range l.Bots {
				choice := b.Options[l.rng.Intn(len(b.Options))]
				b.Boards[bot.ID] = choice
				o.emit(l, EventVoteCast, map[string]interface{}{"voterId": bot.ID, "boardId": choice, "counts": b.tally()})
			}
		}
		if o.allVoted(l) {
			o.resolve(l)
		}
		return nil
	})
}

// VoteTutorial records a yes/no vote on showing the tutorial.
func (o *Orchestrator) VoteTutorial(id, userID uuid.UUID, show bool) error {
	return o.withLobby(id, func(l *Lobby) error {
		if l.member(userID) == nil {
			return ErrNotMember
		}
		if l.State != StateVoting || l.Ballot == nil {
			return ErrNotVoting
		}
		l.Ballot.Tutorial[userID] = show
		o.emit(l, EventTutorialVote, map[string]interface{}{"userId": userID, "show": show})
		return nil
	})
}

func (o *Orchestrator) allVoted(l *Lobby) bool {
	for _, id := range l.voters() {
		if _, ok := l.Ballot.Boards[id]; !ok {
			return false
		}
	}
	return true
}

// pickBoard applies plurality with a random tie-break. With no votes at all every offered board
// is tied, which makes the choice uniform.
func pickBoard(l *Lobby) string {
	b := l.Ballot
	counts := b.tally()
	best := -1
	var leaders []string
	for _, opt := range b.Options {
		switch c := counts[opt]; {
		case c > best:
			best = c
			leaders = []string{opt}
		case c == best:
			leaders = append(leaders, opt)
		}
	}
	return leaders[l.rng.Intn(len(leaders))]
}

// resolve picks the board and hands the lobby to the match engine. It runs at most once per
// vote no matter how many triggers fire. Caller holds l.Mu.
func (o *Orchestrator) resolve(l *Lobby) {
	if l.resolved || l.State != StateVoting {
		return
	}
	l.resolved = true
	o.sched.Cancel(l.ID, keyVote)

	b := l.Ballot
	l.BoardID = pickBoard(l)
	l.Tutorial = b.showTutorial()
	log := o.log.WithField("lobby", l.ID)
	log.Infof("board %s chosen with %d votes", l.BoardID, len(b.Boards))
	o.emit(l, EventBoardResolved, map[string]interface{}{
		"boardId":      l.BoardID,
		"counts":       b.tally(),
		"showTutorial": l.Tutorial,
	})

	cfg := models.MatchConfig{
		MatchID:      uuid.New(),
		LobbyID:      l.ID,
		BoardID:      l.BoardID,
		Seats:        l.seats(),
		Settings:     l.Settings,
		ShowTutorial: l.Tutorial,
	}
	l.State = StatePlaying
	l.MatchID = cfg.MatchID
	// announced first so transports can move the room before match events flow
	o.emit(l, EventMatchStarting, map[string]interface{}{
		"matchId":      cfg.MatchID,
		"boardId":      l.BoardID,
		"showTutorial": l.Tutorial,
	})
	if _, err := o.launcher.StartMatch(cfg); err != nil {
		log.Errorf("start match: %v", err)
		l.State = StateWaiting
		l.MatchID = uuid.Nil
		l.Ballot = nil
		l.resolved = false
		o.emit(l, EventStartFailed, map[string]interface{}{"error": err.Error(), "matchId": cfg.MatchID})
		o.emitState(l, EventStartFailed)
	}
}
