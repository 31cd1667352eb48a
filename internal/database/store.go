// internal/database/store.go

// Package database persists accounts, profile counters, owned inventory, currency and finished match
// records. PgStore is backed by Postgres; MemoryStore serves tests and servers run without a database.
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// Store is everything the server and engine persist.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUserCredentials stores u's email, plaintext password (hashed on the way in), username
	// and ephemeral flag.
	UpdateUserCredentials(ctx context.Context, u *models.User) error

	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	SetProfile(ctx context.Context, p models.Profile) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, delta models.ProfileDelta) error

	GetInventory(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetOwned(ctx context.Context, userID uuid.UUID, itemID string, owned bool) error

	CreditCurrency(ctx context.Context, userID uuid.UUID, amount int) error
	DebitCurrency(ctx context.Context, userID uuid.UUID, amount int) error

	RecordMatch(ctx context.Context, rec models.MatchRecord) error
}

// ActionSink receives batches drained from the action log.
type ActionSink interface {
	InsertActions(ctx context.Context, recs []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, matchID uuid.UUID) error
}
