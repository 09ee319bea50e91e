package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"craftresume-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

// GetByID reads users/<uid> once. No listener is attached.
func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user '%s': %w", uid, mapFirestoreError(err))
	}

	var profile models.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user data for '%s': %w", uid, err)
	}
	if profile.UID == "" {
		profile.UID = docSnap.Ref.ID
	}
	return &profile, nil
}

// Create adds users/<uid>. Firestore rejects the write if the document exists,
// which makes the create-if-absent step atomic.
func (r *firestoreUserRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	if profile.UID == "" {
		return errors.New("uid cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(profile.UID).Create(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to create user '%s': %w", profile.UID, mapFirestoreError(err))
	}
	return nil
}
