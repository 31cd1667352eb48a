package game

import "errors"

// Precondition failures. Operations returning one of these leave the match unchanged.
var (
	ErrWrongPhase        = errors.New("operation not allowed in the current phase")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNotInMatch        = errors.New("player is not in this match")
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrItemNotHeld       = errors.New("item not held")
	ErrInvalidMove       = errors.New("target space is not connected to the current space")
	ErrInventoryFull     = errors.New("inventory is full")
	ErrNoPendingOffer    = errors.New("no pending offer")
	ErrOfferPending      = errors.New("an offer must be answered first")
	ErrDuelPending       = errors.New("a duel is in progress")
	ErrNotParticipant    = errors.New("not a participant of the running minigame")
	ErrNoMinigame        = errors.New("no minigame is accepting scores")
	ErrInvalidDice       = errors.New("dice value must be between 1 and 10")
	ErrItemNotOffered    = errors.New("item is not part of the offer")
	ErrMatchEnded        = errors.New("match has ended")
	ErrInvalidScore      = errors.New("score must be a finite number")
)

// ErrMatchNotFound is returned for an unknown match id.
var ErrMatchNotFound = errors.New("match not found")
