package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"craftresume-backend-go/internal/models"
)

const templatesCollection = "templates"

// firestoreTemplateRepository implements the TemplateRepository interface using Firestore.
type firestoreTemplateRepository struct {
	client *firestore.Client
}

// NewFirestoreTemplateRepository creates a new instance of firestoreTemplateRepository.
func NewFirestoreTemplateRepository(client *firestore.Client) TemplateRepository {
	return &firestoreTemplateRepository{client: client}
}

// List reads the whole collection. Soft-deleted records are skipped in code
// because a "deleted != true" filter would also drop documents without the field.
func (r *firestoreTemplateRepository) List(ctx context.Context) ([]*models.Template, error) {
	iter := r.client.Collection(templatesCollection).Documents(ctx)
	defer iter.Stop()

	templates := make([]*models.Template, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate templates: %w", err)
		}

		tpl, err := decodeTemplate(doc)
		if err != nil {
			return nil, err
		}
		if tpl.Deleted {
			continue
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

// GetByID returns the record even when it is soft-deleted, so that an
// interrupted deletion can be resumed.
func (r *firestoreTemplateRepository) GetByID(ctx context.Context, templateID string) (*models.Template, error) {
	if templateID == "" {
		return nil, errors.New("templateID cannot be empty for GetByID operation")
	}
	doc, err := r.client.Collection(templatesCollection).Doc(templateID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get template '%s': %w", templateID, mapFirestoreError(err))
	}
	return decodeTemplate(doc)
}

// CreateSequential runs the count and the create in one transaction. Firestore
// retries the function on contention, so two concurrent creators never commit
// against the same count.
func (r *firestoreTemplateRepository) CreateSequential(ctx context.Context, tpl *models.Template, name NameFunc) error {
	if tpl.ID == "" {
		return errors.New("template ID cannot be empty for CreateSequential operation")
	}
	coll := r.client.Collection(templatesCollection)
	ref := coll.Doc(tpl.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(coll).GetAll()
		if err != nil {
			return fmt.Errorf("failed to count templates: %w", err)
		}
		live := 0
		for _, doc := range docs {
			if deleted, _ := doc.Data()["deleted"].(bool); !deleted {
				live++
			}
		}
		tpl.Name = name(live)
		return tx.Create(ref, tpl)
	})
	if err != nil {
		return fmt.Errorf("failed to create template '%s': %w", tpl.ID, mapFirestoreError(err))
	}

	// The server timestamp is only known after commit. The record is already
	// written, so a failed read falls back to the local clock.
	tpl.Timestamp = time.Now().UTC()
	if doc, err := ref.Get(ctx); err == nil {
		if stored, err := decodeTemplate(doc); err == nil && !stored.Timestamp.IsZero() {
			tpl.Timestamp = stored.Timestamp
		}
	}
	return nil
}

// MarkDeleted sets the soft-delete flag. Repeating it is harmless.
func (r *firestoreTemplateRepository) MarkDeleted(ctx context.Context, templateID string) error {
	_, err := r.client.Collection(templatesCollection).Doc(templateID).Update(ctx, []firestore.Update{
		{Path: "deleted", Value: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark template '%s' deleted: %w", templateID, mapFirestoreError(err))
	}
	return nil
}

// Delete removes the record. Deleting a missing document is not an error in Firestore.
func (r *firestoreTemplateRepository) Delete(ctx context.Context, templateID string) error {
	_, err := r.client.Collection(templatesCollection).Doc(templateID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete template '%s': %w", templateID, mapFirestoreError(err))
	}
	return nil
}

func decodeTemplate(doc *firestore.DocumentSnapshot) (*models.Template, error) {
	var tpl models.Template
	if err := doc.DataTo(&tpl); err != nil {
		return nil, fmt.Errorf("failed to decode template '%s': %w", doc.Ref.ID, err)
	}
	if tpl.ID == "" {
		tpl.ID = doc.Ref.ID
	}
	return &tpl, nil
}
