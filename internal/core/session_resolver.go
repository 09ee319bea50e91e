package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"craftresume-backend-go/internal/db"
	"craftresume-backend-go/internal/models"
)

type sessionResolver struct {
	users  db.UserRepository
	logger *zap.Logger
}

// NewSessionResolver creates a SessionResolver backed by users.
func NewSessionResolver(users db.UserRepository, logger *zap.Logger) SessionResolver {
	return &sessionResolver{users: users, logger: logger}
}

// Resolve reads the profile keyed by the credential's UID and creates it on
// first sign-in. An existing profile is returned as stored.
func (r *sessionResolver) Resolve(ctx context.Context, state models.AuthState) (*models.UserProfile, error) {
	if !state.SignedIn() {
		return nil, ErrNotAuthenticated
	}
	uid := state.Credential.UID

	profile, err := r.users.GetByID(ctx, uid)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to read profile '%s': %w", uid, err)
	}

	profile = models.NewUserProfile(state.Credential)
	err = r.users.Create(ctx, profile)
	switch {
	case err == nil:
		r.logger.Info("User profile created", zap.String("uid", uid), zap.String("provider", profile.ProviderID))
		return profile, nil
	case errors.Is(err, db.ErrAlreadyExists):
		// Another sign-in created it first; its record wins.
		stored, getErr := r.users.GetByID(ctx, uid)
		if getErr != nil {
			return nil, fmt.Errorf("failed to read concurrently created profile '%s': %w", uid, getErr)
		}
		return stored, nil
	default:
		return nil, fmt.Errorf("failed to create profile '%s': %w", uid, err)
	}
}
