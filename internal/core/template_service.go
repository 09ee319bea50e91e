package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"craftresume-backend-go/internal/db"
	"craftresume-backend-go/internal/messagequeue"
	"craftresume-backend-go/internal/models"
	"craftresume-backend-go/internal/policy"
	"craftresume-backend-go/internal/query"
	"craftresume-backend-go/internal/storage"
	"craftresume-backend-go/internal/upload"
)

const templatesKey = "templates"

// maxIDAttempts bounds the search for a free millisecond id when two
// templates are created in the same millisecond.
const maxIDAttempts = 5

// SequentialName is the display name of a template created when count live
// templates exist.
func SequentialName(count int) string {
	return "template" + strconv.Itoa(count+1)
}

type templateService struct {
	templates db.TemplateRepository
	store     storage.ObjectStore
	uploads   *upload.Tracker
	policy    *policy.Policy
	events    messagequeue.Publisher
	client    *query.Client
	query     *query.Query[[]*models.Template]
	logger    *zap.Logger
	now       func() time.Time
}

// TemplateServiceDeps groups the collaborators of NewTemplateService.
type TemplateServiceDeps struct {
	Templates db.TemplateRepository
	Store     storage.ObjectStore
	Uploads   *upload.Tracker
	Policy    *policy.Policy
	Events    messagequeue.Publisher
	Queries   *query.Client
	Logger    *zap.Logger
}

// NewTemplateService creates a TemplateService.
func NewTemplateService(deps TemplateServiceDeps) TemplateService {
	events := deps.Events
	if events == nil {
		events = messagequeue.NopPublisher{}
	}
	return &templateService{
		templates: deps.Templates,
		store:     deps.Store,
		uploads:   deps.Uploads,
		policy:    deps.Policy,
		events:    events,
		client:    deps.Queries,
		query:     query.New[[]*models.Template](deps.Queries),
		logger:    deps.Logger,
		now:       time.Now,
	}
}

func (s *templateService) fetch(ctx context.Context) ([]*models.Template, error) {
	return s.templates.List(ctx)
}

func (s *templateService) List(ctx context.Context) Result[[]*models.Template] {
	return s.result(s.query.Get(ctx, templatesKey, s.fetch))
}

func (s *templateService) Refetch(ctx context.Context) Result[[]*models.Template] {
	return s.result(s.query.Refetch(ctx, templatesKey, s.fetch))
}

func (s *templateService) result(templates []*models.Template, err error) Result[[]*models.Template] {
	if err != nil {
		s.logger.Error("Failed to list templates", zap.Error(err))
		return Result[[]*models.Template]{IsError: true, Notice: RemoteNotice(err), Err: err}
	}
	if templates == nil {
		templates = []*models.Template{}
	}
	return Result[[]*models.Template]{Data: templates}
}

// NextName previews the name the next created template will receive.
func (s *templateService) NextName(ctx context.Context) (string, error) {
	res := s.List(ctx)
	if res.Err != nil {
		return "", res.Err
	}
	return SequentialName(len(res.Data)), nil
}

func (s *templateService) Tags() []string {
	return s.policy.Tags()
}

// Create writes the template record for an uploaded image. The sequential
// name is assigned inside the write transaction.
func (s *templateService) Create(ctx context.Context, actorUID string, req models.CreateTemplateRequest) (*models.Template, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	if err := s.policy.ValidateTags(tags); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	imageURL, release, err := s.claimImage(req)
	if err != nil {
		return nil, err
	}

	tpl := &models.Template{
		Title:    title,
		ImageURL: imageURL,
		Tags:     tags,
	}
	id := s.now().UnixMilli()
	for attempt := 1; ; attempt++ {
		tpl.ID = strconv.FormatInt(id, 10)
		err = s.templates.CreateSequential(ctx, tpl, SequentialName)
		if !errors.Is(err, db.ErrAlreadyExists) || attempt == maxIDAttempts {
			break
		}
		id++
	}
	if err != nil {
		release()
		s.logger.Error("Failed to save template", zap.String("title", title), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Template created",
		zap.String("templateId", tpl.ID),
		zap.String("name", tpl.Name),
		zap.String("actor", actorUID),
	)
	s.afterChange(ctx, messagequeue.Event{
		Type:       messagequeue.EventTemplateCreated,
		TemplateID: tpl.ID,
		Name:       tpl.Name,
		ImageURL:   tpl.ImageURL,
		ActorUID:   actorUID,
	})
	return tpl, nil
}

// claimImage resolves the image of a create request. An upload session is
// taken out of the tracker so that no other request can use the same
// object; release puts it back when the record could not be written.
func (s *templateService) claimImage(req models.CreateTemplateRequest) (string, func(), error) {
	noop := func() {}
	switch {
	case req.UploadID != "" && req.ImageURL != "":
		return "", noop, fmt.Errorf("%w: set either imageURL or uploadId, not both", ErrValidation)
	case req.UploadID != "":
		state, err := s.uploads.Take(req.UploadID)
		switch {
		case errors.Is(err, upload.ErrSessionNotFound):
			return "", noop, fmt.Errorf("%w: %s", ErrUploadNotFound, req.UploadID)
		case errors.Is(err, upload.ErrNotUploaded):
			return "", noop, fmt.Errorf("%w: %v", ErrValidation, err)
		case err != nil:
			return "", noop, err
		}
		return state.URI, func() { s.uploads.Restore(state) }, nil
	case req.ImageURL != "":
		if !s.store.Owns(req.ImageURL) {
			return "", noop, fmt.Errorf("%w: imageURL does not reference a stored object", ErrValidation)
		}
		return req.ImageURL, noop, nil
	default:
		return "", noop, fmt.Errorf("%w: an uploaded image is required", ErrValidation)
	}
}

// Delete hides the record, removes its image and then the record. A failed
// image deletion leaves the record hidden so that Delete can be repeated.
func (s *templateService) Delete(ctx context.Context, actorUID, templateID string) error {
	tpl, err := s.templates.GetByID(ctx, templateID)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	if err != nil {
		return err
	}

	if !tpl.Deleted {
		if err := s.templates.MarkDeleted(ctx, templateID); err != nil {
			return err
		}
		s.invalidate(ctx)
	}

	if tpl.ImageURL != "" {
		if err := s.store.Delete(ctx, tpl.ImageURL); err != nil {
			s.logger.Error("Failed to delete template image",
				zap.String("templateId", templateID),
				zap.String("imageURL", tpl.ImageURL),
				zap.Error(err),
			)
			return mapStorageError(err)
		}
	}

	if err := s.templates.Delete(ctx, templateID); err != nil {
		s.logger.Error("Failed to delete template record", zap.String("templateId", templateID), zap.Error(err))
		return err
	}

	s.logger.Info("Template deleted", zap.String("templateId", templateID), zap.String("actor", actorUID))
	s.afterChange(ctx, messagequeue.Event{
		Type:       messagequeue.EventTemplateDeleted,
		TemplateID: templateID,
		Name:       tpl.Name,
		ImageURL:   tpl.ImageURL,
		ActorUID:   actorUID,
	})
	return nil
}

func (s *templateService) afterChange(ctx context.Context, event messagequeue.Event) {
	s.invalidate(ctx)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish template event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *templateService) invalidate(ctx context.Context) {
	if err := s.client.Invalidate(ctx, templatesKey); err != nil {
		s.logger.Warn("Failed to invalidate templates query", zap.Error(err))
	}
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrUnauthorized) {
		return fmt.Errorf("%w: %v", ErrAuthorization, err)
	}
	return err
}
