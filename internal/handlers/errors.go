package handlers

import (
	"errors"
	"net/http"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/database"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/game"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/lobby"
)

// Error classes reported in acks.
const (
	codeNotFound     = "not_found"
	codePrecondition = "precondition"
	codeBadRequest   = "bad_request"
	codeInternal     = "internal"
)

var errBadPayload = errors.New("malformed intent payload")

var notFound = []error{
	game.ErrMatchNotFound,
	lobby.ErrLobbyNotFound,
	lobby.ErrBotNotFound,
	catalog.ErrNotFound,
	database.ErrNotFound,
	errNoLobby,
	errNoMatch,
}

var preconditions = []error{
	game.ErrWrongPhase, game.ErrNotYourTurn, game.ErrNotInMatch, game.ErrInsufficientCoins,
	game.ErrItemNotHeld, game.ErrInvalidMove, game.ErrInventoryFull, game.ErrNoPendingOffer,
	game.ErrOfferPending, game.ErrDuelPending, game.ErrNotParticipant, game.ErrNoMinigame,
	game.ErrInvalidDice, game.ErrItemNotOffered, game.ErrMatchEnded, game.ErrInvalidScore,
	lobby.ErrNotHost, lobby.ErrLobbyFull, lobby.ErrNotWaiting, lobby.ErrNotVoting,
	lobby.ErrNotMember, lobby.ErrInvalidVote, lobby.ErrAlreadyVoted, lobby.ErrStartGate,
	lobby.ErrNoBoards, lobby.ErrAlreadyMember,
	database.ErrInsufficientFunds, errLocked,
}

// errorCode classifies an intent failure for the client.
func errorCode(err error) string {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return codeNotFound
		}
	}
	for _, target := range preconditions {
		if errors.Is(err, target) {
			return codePrecondition
		}
	}
	if errors.Is(err, errBadPayload) || errors.Is(err, errUnknownIntent) {
		return codeBadRequest
	}
	return codeInternal
}

func httpStatus(err error) int {
	switch errorCode(err) {
	case codeNotFound:
		return http.StatusNotFound
	case codePrecondition:
		return http.StatusConflict
	case codeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
