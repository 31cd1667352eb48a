package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/auth"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// prepareUser assigns an id, normalizes the email and replaces a plaintext password with its hash.
func prepareUser(u *models.User) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		u.ID = id
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Password == "" {
		return nil
	}
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = hash
	return nil
}

// AuthenticateUser checks credentials and returns a signed session token.
func AuthenticateUser(ctx context.Context, s Store, email, password string) (string, *models.User, error) {
	user, err := s.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, fmt.Errorf("user not found or db error: %w", err)
	}
	if user.IsEphemeral || user.Password == "" {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	match, err := auth.CheckPassword(password, user.Password)
	if err != nil || !match {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if auth.NeedsRehash(user.Password) {
		upgraded := *user
		upgraded.Password = password
		// a failed upgrade leaves the old hash, which still verifies
		if err := s.UpdateUserCredentials(ctx, &upgraded); err == nil {
			user.Password = upgraded.Password
		}
	}

	token, err := auth.CreateJWT(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, user, nil
}

// CreateGuest stores an ephemeral account with no credentials.
func CreateGuest(ctx context.Context, s Store, name string) (*models.User, error) {
	u := &models.User{Username: name, IsEphemeral: true}
	if err := s.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
