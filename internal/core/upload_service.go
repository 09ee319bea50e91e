package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"craftresume-backend-go/internal/models"
	"craftresume-backend-go/internal/storage"
	"craftresume-backend-go/internal/upload"
)

// templateImagePrefix is the object store folder holding template images.
const templateImagePrefix = "Template"

type uploadService struct {
	store    storage.ObjectStore
	tracker  *upload.Tracker
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewUploadService creates an UploadService that writes to store and
// records state in tracker.
func NewUploadService(store storage.ObjectStore, tracker *upload.Tracker, maxBytes int64, logger *zap.Logger) UploadService {
	return &uploadService{
		store:    store,
		tracker:  tracker,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// Start validates the file, buffers it and uploads it in the background.
// A rejected file creates no session and never reaches the object store.
func (s *uploadService) Start(ctx context.Context, file FileInput) (models.UploadState, error) {
	if err := upload.CheckFile(file.ContentType, file.Size, s.maxBytes); err != nil {
		s.logger.Info("Rejected template image", zap.String("fileName", file.FileName), zap.Error(err))
		return models.UploadState{Status: models.UploadIdle}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		return models.UploadState{Status: models.UploadIdle}, fmt.Errorf("failed to read %q: %w", file.FileName, err)
	}
	if int64(len(data)) > s.maxBytes {
		return models.UploadState{Status: models.UploadIdle}, fmt.Errorf("%w: %w", ErrValidation, upload.ErrFileTooLarge)
	}

	fileName := cleanFileName(file.FileName)
	objectPath := fmt.Sprintf("%s/%d-%s", templateImagePrefix, s.now().UnixMilli(), fileName)
	state := s.tracker.Begin(fileName)

	s.logger.Info("Template image upload started",
		zap.String("uploadId", state.ID),
		zap.String("path", objectPath),
		zap.Int("bytes", len(data)),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx), state.ID, objectPath, file.ContentType, data)
	}()
	return state, nil
}

func (s *uploadService) run(ctx context.Context, id, objectPath, contentType string, data []byte) {
	size := int64(len(data))
	uri, err := s.store.Upload(ctx, objectPath, contentType, bytes.NewReader(data), size, func(transferred, total int64) {
		s.tracker.Progress(id, transferred, total)
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnauthorized) {
			s.logger.Warn("Template image upload rejected", zap.String("uploadId", id), zap.Error(err))
			s.tracker.Fail(id, models.UploadErrorAuthorization, NoticeAuthorizationRevoked)
			return
		}
		s.logger.Error("Template image upload failed", zap.String("uploadId", id), zap.Error(err))
		s.tracker.Fail(id, models.UploadErrorRemote, RemoteNotice(err))
		return
	}

	s.tracker.Complete(id, uri)
	s.logger.Info("Template image uploaded", zap.String("uploadId", id), zap.String("uri", uri))
}

func (s *uploadService) Get(_ context.Context, uploadID string) (models.UploadState, error) {
	state, err := s.tracker.Get(uploadID)
	if errors.Is(err, upload.ErrSessionNotFound) {
		return state, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return state, err
}

// Discard deletes an uploaded image that will not be saved as a template
// and forgets its session. The session is taken first, so a template
// create and a discard never both get the same image.
func (s *uploadService) Discard(ctx context.Context, uploadID string) error {
	state, err := s.tracker.Take(uploadID)
	switch {
	case errors.Is(err, upload.ErrSessionNotFound):
		return fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	case errors.Is(err, upload.ErrNotUploaded):
		if state.Status == models.UploadUploading {
			return fmt.Errorf("%w: %s", ErrUploadInProgress, uploadID)
		}
		// Failed uploads have no object to delete.
		if _, err := s.tracker.Remove(uploadID); err != nil && !errors.Is(err, upload.ErrSessionNotFound) {
			return err
		}
	case err != nil:
		return err
	default:
		if err := s.store.Delete(ctx, state.URI); err != nil {
			s.tracker.Restore(state)
			s.logger.Error("Failed to delete discarded image", zap.String("uploadId", uploadID), zap.Error(err))
			return mapStorageError(err)
		}
	}
	s.logger.Info("Template image discarded", zap.String("uploadId", uploadID))
	return nil
}

func (s *uploadService) Wait() {
	s.wg.Wait()
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
