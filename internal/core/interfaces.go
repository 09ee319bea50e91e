package core

import (
	"context"
	"io"

	"craftresume-backend-go/internal/models"
)

// Result is the state a query hook exposes to its consumer.
type Result[T any] struct {
	Data      T      `json:"data"`
	IsLoading bool   `json:"isLoading"`
	IsError   bool   `json:"isError"`
	Notice    string `json:"notice,omitempty"`
	Err       error  `json:"-"`
}

// SessionResolver turns an authentication state into a stored user profile.
type SessionResolver interface {
	Resolve(ctx context.Context, state models.AuthState) (*models.UserProfile, error)
}

// ProfileService exposes the resolved profile through the query cache.
type ProfileService interface {
	Profile(ctx context.Context, state models.AuthState) Result[*models.UserProfile]
	Refetch(ctx context.Context, state models.AuthState) Result[*models.UserProfile]
	// Clear forgets the cached profile of a signing-out user.
	Clear(ctx context.Context, state models.AuthState) error
}

// TemplateService lists, creates and deletes templates.
type TemplateService interface {
	List(ctx context.Context) Result[[]*models.Template]
	Refetch(ctx context.Context) Result[[]*models.Template]
	NextName(ctx context.Context) (string, error)
	Tags() []string
	Create(ctx context.Context, actorUID string, req models.CreateTemplateRequest) (*models.Template, error)
	Delete(ctx context.Context, actorUID, templateID string) error
}

// FileInput is a template image received from a client.
type FileInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadService runs template image uploads in the background.
type UploadService interface {
	Start(ctx context.Context, file FileInput) (models.UploadState, error)
	Get(ctx context.Context, uploadID string) (models.UploadState, error)
	Discard(ctx context.Context, uploadID string) error
	// Wait blocks until every started upload has finished.
	Wait()
}
