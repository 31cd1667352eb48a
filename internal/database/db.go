package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store and ActionSink on a pgx pool.
type PgStore struct {
	DB *pgxpool.Pool
}

// Connect opens a pool for url and pings it.
func Connect(ctx context.Context, url string) (*PgStore, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &PgStore{DB: pool}, nil
}

// Close releases the pool.
func (s *PgStore) Close() {
	s.DB.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           UUID PRIMARY KEY,
	email        TEXT UNIQUE,
	password     TEXT NOT NULL DEFAULT '',
	username     TEXT NOT NULL,
	is_ephemeral BOOLEAN NOT NULL DEFAULT FALSE,
	credits      INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id       UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	games_played  INTEGER NOT NULL DEFAULT 0,
	wins          INTEGER NOT NULL DEFAULT 0,
	total_stars   INTEGER NOT NULL DEFAULT 0,
	total_coins   INTEGER NOT NULL DEFAULT 0,
	minigames_won INTEGER NOT NULL DEFAULT 0,
	rating        INTEGER NOT NULL DEFAULT 1500
);

CREATE TABLE IF NOT EXISTS inventory (
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	item_id    TEXT NOT NULL,
	acquired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, item_id)
);

CREATE TABLE IF NOT EXISTS matches (
	id         UUID PRIMARY KEY,
	lobby_id   UUID,
	board_id   TEXT NOT NULL DEFAULT '',
	turns      INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'completed',
	started_at TIMESTAMPTZ,
	ended_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS match_participants (
	match_id      UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	player_id     UUID NOT NULL,
	name          TEXT NOT NULL,
	is_bot        BOOLEAN NOT NULL DEFAULT FALSE,
	placement     INTEGER NOT NULL,
	stars         INTEGER NOT NULL,
	coins         INTEGER NOT NULL,
	bonus_stars   INTEGER NOT NULL,
	minigames_won INTEGER NOT NULL,
	credits       INTEGER NOT NULL,
	PRIMARY KEY (match_id, player_id)
);

CREATE TABLE IF NOT EXISTS match_actions (
	match_id       UUID NOT NULL,
	action_index   INTEGER NOT NULL,
	actor_user_id  UUID,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (match_id, action_index)
);
`

// Migrate creates any missing tables.
func (s *PgStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
