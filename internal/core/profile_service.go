package core

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"craftresume-backend-go/internal/models"
	"craftresume-backend-go/internal/query"
)

func profileKey(uid string) string { return "user:" + uid }

type profileService struct {
	resolver SessionResolver
	client   *query.Client
	query    *query.Query[*models.UserProfile]
	logger   *zap.Logger
}

// NewProfileService wraps resolver in a deduplicating, cached query.
func NewProfileService(resolver SessionResolver, client *query.Client, logger *zap.Logger) ProfileService {
	return &profileService{
		resolver: resolver,
		client:   client,
		query:    query.New[*models.UserProfile](client),
		logger:   logger,
	}
}

func (s *profileService) Profile(ctx context.Context, state models.AuthState) Result[*models.UserProfile] {
	return s.load(ctx, state, s.query.Get)
}

func (s *profileService) Refetch(ctx context.Context, state models.AuthState) Result[*models.UserProfile] {
	return s.load(ctx, state, s.query.Refetch)
}

type profileLoader func(context.Context, string, query.FetchFunc[*models.UserProfile]) (*models.UserProfile, error)

func (s *profileService) load(ctx context.Context, state models.AuthState, run profileLoader) Result[*models.UserProfile] {
	if !state.SignedIn() {
		s.logger.Debug("Profile requested without a signed-in user")
		return Result[*models.UserProfile]{IsError: true, Err: ErrNotAuthenticated}
	}

	profile, err := run(ctx, profileKey(state.Credential.UID), func(ctx context.Context) (*models.UserProfile, error) {
		return s.resolver.Resolve(ctx, state)
	})
	if err == nil {
		return Result[*models.UserProfile]{Data: profile}
	}
	if errors.Is(err, ErrNotAuthenticated) {
		s.logger.Debug("Profile resolution rejected", zap.Error(err))
		return Result[*models.UserProfile]{IsError: true, Err: err}
	}
	s.logger.Error("Failed to resolve user profile", zap.String("uid", state.Credential.UID), zap.Error(err))
	return Result[*models.UserProfile]{IsError: true, Notice: NoticeGeneric, Err: err}
}

func (s *profileService) Clear(ctx context.Context, state models.AuthState) error {
	if !state.SignedIn() {
		return ErrNotAuthenticated
	}
	return s.client.Invalidate(ctx, profileKey(state.Credential.UID))
}
