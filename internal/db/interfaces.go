package db

import (
	"context"

	"craftresume-backend-go/internal/models"
)

// UserRepository defines the storage operations for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.UserProfile, error)
	// Create writes the profile only if no document exists for its UID.
	// It returns ErrAlreadyExists otherwise.
	Create(ctx context.Context, profile *models.UserProfile) error
}

// NameFunc derives a template name from the number of live templates.
type NameFunc func(liveCount int) string

// TemplateRepository defines the storage operations for template records.
type TemplateRepository interface {
	// List returns every template that is not soft-deleted.
	List(ctx context.Context) ([]*models.Template, error)
	GetByID(ctx context.Context, templateID string) (*models.Template, error)
	// CreateSequential counts live templates and writes tpl with
	// tpl.Name = name(count) in a single transaction.
	CreateSequential(ctx context.Context, tpl *models.Template, name NameFunc) error
	MarkDeleted(ctx context.Context, templateID string) error
	Delete(ctx context.Context, templateID string) error
}
