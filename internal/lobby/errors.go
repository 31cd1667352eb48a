package lobby

import "errors"

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrNotHost       = errors.New("only the host can do that")
	ErrLobbyFull     = errors.New("lobby is full")
	ErrNotWaiting    = errors.New("lobby is not waiting for players")
	ErrNotVoting     = errors.New("lobby is not voting")
	ErrNotMember     = errors.New("not a member of this lobby")
	ErrInvalidVote   = errors.New("not one of the offered boards")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrStartGate     = errors.New("need at least 2 players and every guest ready")
	ErrBotNotFound   = errors.New("bot not found")
	ErrNoBoards      = errors.New("no boards available")
	ErrAlreadyMember = errors.New("already in another lobby")
)
