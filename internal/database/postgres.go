package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/cache"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

const uniqueViolation = "23505"

func (s *PgStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := prepareUser(user); err != nil {
		return err
	}

	q := `INSERT INTO users (id, email, password, username, is_ephemeral, credits)
	      VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`

	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q,
			user.ID, user.Email, user.Password, user.Username,
			user.IsEphemeral, user.Credits,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1)`, user.ID)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *PgStore) UpdateUserCredentials(ctx context.Context, u *models.User) error {
	if err := prepareUser(u); err != nil {
		return err
	}
	q := `UPDATE users SET email = NULLIF($1, ''), password = $2, username = $3, is_ephemeral = $4 WHERE id = $5`
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, e := tx.Exec(ctx, q, u.Email, u.Password, u.Username, u.IsEphemeral, u.ID)
		if e != nil {
			return e
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to update user credentials: %w", err)
	}
	return nil
}

const userColumns = `id, COALESCE(email, ''), password, username, is_ephemeral, credits`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Username, &u.IsEphemeral, &u.Credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (s *PgStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *PgStore) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	p := models.Profile{UserID: userID}
	q := `
	SELECT games_played, wins, total_stars, total_coins, minigames_won, rating
	FROM profiles
	WHERE user_id=$1
	`
	err := s.DB.QueryRow(ctx, q, userID).Scan(
		&p.GamesPlayed, &p.Wins, &p.TotalStars, &p.TotalCoins, &p.MinigamesWon, &p.Rating,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// SetProfile overwrites every counter with p's values.
func (s *PgStore) SetProfile(ctx context.Context, p models.Profile) error {
	q := `
	INSERT INTO profiles (user_id, games_played, wins, total_stars, total_coins, minigames_won, rating)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id) DO UPDATE SET
		games_played=$2, wins=$3, total_stars=$4, total_coins=$5, minigames_won=$6, rating=$7
	`
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, p.UserID, p.GamesPlayed, p.Wins, p.TotalStars, p.TotalCoins, p.MinigamesWon, p.Rating)
		return err
	})
}

// UpdateProfile adds delta to the stored counters.
func (s *PgStore) UpdateProfile(ctx context.Context, userID uuid.UUID, d models.ProfileDelta) error {
	q := `
	UPDATE profiles SET
		games_played  = games_played + $2,
		wins          = wins + $3,
		total_stars   = total_stars + $4,
		total_coins   = total_coins + $5,
		minigames_won = minigames_won + $6,
		rating        = rating + $7
	WHERE user_id=$1
	`
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, userID, d.GamesPlayed, d.Wins, d.TotalStars, d.TotalCoins, d.MinigamesWon, d.Rating)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PgStore) GetInventory(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT item_id FROM inventory WHERE user_id=$1 ORDER BY item_id`, userID)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SetOwned adds or removes itemID from the user's inventory. Both directions are idempotent.
func (s *PgStore) SetOwned(ctx context.Context, userID uuid.UUID, itemID string, owned bool) error {
	q := `DELETE FROM inventory WHERE user_id=$1 AND item_id=$2`
	if owned {
		q = `INSERT INTO inventory (user_id, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID, itemID)
		return err
	})
}

func (s *PgStore) CreditCurrency(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount < 0 {
		return fmt.Errorf("credit of negative amount %d", amount)
	}
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE users SET credits = credits + $2 WHERE id=$1`, userID, amount)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DebitCurrency removes amount only when the balance covers it.
func (s *PgStore) DebitCurrency(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount < 0 {
		return fmt.Errorf("debit of negative amount %d", amount)
	}
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var balance int
		err := tx.QueryRow(ctx, `SELECT credits FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientFunds
		}
		_, err = tx.Exec(ctx, `UPDATE users SET credits = credits - $2 WHERE id=$1`, userID, amount)
		return err
	})
}

// RecordMatch writes the match row and one row per participant.
func (s *PgStore) RecordMatch(ctx context.Context, rec models.MatchRecord) error {
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, lobby_id, board_id, turns, status, started_at, ended_at)
			VALUES ($1, $2, $3, $4, 'completed', $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				board_id=$3, turns=$4, status='completed', started_at=$5, ended_at=$6
		`
		if _, err := tx.Exec(ctx, upsertMatch, rec.ID, rec.LobbyID, rec.BoardID, rec.Turns, rec.StartedAt, rec.EndedAt); err != nil {
			return err
		}

		q := `
			INSERT INTO match_participants
				(match_id, player_id, name, is_bot, placement, stars, coins, bonus_stars, minigames_won, credits)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (match_id, player_id) DO NOTHING
		`
		for _, p := range rec.Participants {
			if _, err := tx.Exec(ctx, q, rec.ID, p.UserID, p.Name, p.IsBot, p.Placement,
				p.Stars, p.Coins, p.BonusStars, p.MinigamesWon, p.Credits); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record match: %w", err)
	}
	return nil
}

// InsertActions writes a batch of action log records in one transaction.
func (s *PgStore) InsertActions(ctx context.Context, recs []cache.ActionRecord) error {
	q := `
		INSERT INTO match_actions
			(match_id, action_index, actor_user_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id, action_index) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload of action %d: %w", rec.ActionIndex, err)
			}
			var actor *uuid.UUID
			if rec.ActorUserID != uuid.Nil {
				actor = &rec.ActorUserID
			}
			if _, err := tx.Exec(ctx, q, rec.MatchID, rec.ActionIndex, actor, rec.ActionType,
				payload, time.UnixMilli(rec.Timestamp)); err != nil {
				return fmt.Errorf("insert action %d of %s: %w", rec.ActionIndex, rec.MatchID, err)
			}
		}
		return nil
	})
}

// MarkAbandoned records a match that stopped producing actions without finishing.
// A match already recorded as completed is left alone.
func (s *PgStore) MarkAbandoned(ctx context.Context, matchID uuid.UUID) error {
	q := `
		INSERT INTO matches (id, status, ended_at)
		VALUES ($1, 'abandoned', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, matchID)
		return err
	})
}
