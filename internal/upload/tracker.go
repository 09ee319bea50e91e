// Package upload tracks the state of template image uploads.
package upload

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"craftresume-backend-go/internal/models"
)

var (
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyFile        = errors.New("file is empty")
	ErrSessionNotFound  = errors.New("upload session not found")
	ErrUploadInProgress = errors.New("upload still in progress")
	ErrNotUploaded      = errors.New("upload has not completed")
)

// AllowedContentTypes are the declared file types accepted for template images.
var AllowedContentTypes = []string{"image/png", "image/jpeg", "image/jpg"}

// CheckFile validates the declared content type and size of a file.
func CheckFile(contentType string, size, maxBytes int64) error {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !slices.Contains(AllowedContentTypes, mediaType) {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, contentType)
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, maxBytes)
	}
	return nil
}

// Percent converts transferred/total bytes to a percentage in [0, 100].
func Percent(transferred, total int64) float64 {
	if total <= 0 || transferred <= 0 {
		return 0
	}
	if transferred >= total {
		return 100
	}
	return float64(transferred) / float64(total) * 100
}

type session struct {
	state     models.UploadState
	updatedAt time.Time
}

// Tracker holds upload sessions in memory. Finished sessions are forgotten
// after ttl without activity; sessions still uploading are never swept.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewTracker creates a Tracker. A zero ttl disables sweeping.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin registers a new session in the uploading state.
func (t *Tracker) Begin(fileName string) models.UploadState {
	state := models.UploadState{
		ID:       uuid.NewString(),
		FileName: fileName,
		Status:   models.UploadUploading,
	}
	t.mu.Lock()
	t.sessions[state.ID] = &session{state: state, updatedAt: t.now()}
	t.mu.Unlock()
	return state
}

// Progress records transferred bytes. Progress never moves backwards.
func (t *Tracker) Progress(id string, transferred, total int64) {
	p := Percent(transferred, total)
	t.update(id, func(s *models.UploadState) {
		if s.Status == models.UploadUploading && p > s.Progress {
			s.Progress = p
		}
	})
}

// Complete marks the session uploaded at uri.
func (t *Tracker) Complete(id, uri string) {
	t.update(id, func(s *models.UploadState) {
		s.Status = models.UploadUploaded
		s.Progress = 100
		s.URI = uri
	})
}

// Fail marks the session failed.
func (t *Tracker) Fail(id string, kind models.UploadErrorKind, message string) {
	t.update(id, func(s *models.UploadState) {
		s.Status = models.UploadFailed
		s.ErrorKind = kind
		s.Error = message
	})
}

func (t *Tracker) update(id string, fn func(*models.UploadState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		fn(&s.state)
		s.updatedAt = t.now()
	}
}

// Get returns a snapshot of the session.
func (t *Tracker) Get(id string) (models.UploadState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return models.UploadState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.state, nil
}

// Remove forgets a finished session and returns its last state.
func (t *Tracker) Remove(id string) (models.UploadState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return models.UploadState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if s.state.Status == models.UploadUploading {
		return s.state, ErrUploadInProgress
	}
	delete(t.sessions, id)
	return s.state, nil
}

// Take removes an uploaded session and returns it. Of several concurrent
// callers only one receives the session; the others get ErrSessionNotFound.
func (t *Tracker) Take(id string) (models.UploadState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return models.UploadState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if s.state.Status != models.UploadUploaded {
		return s.state, fmt.Errorf("%w: %s is %s", ErrNotUploaded, id, s.state.Status)
	}
	delete(t.sessions, id)
	return s.state, nil
}

// Restore puts back a session returned by Take.
func (t *Tracker) Restore(state models.UploadState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[state.ID]; !ok {
		t.sessions[state.ID] = &session{state: state, updatedAt: t.now()}
	}
}

// Sweep drops finished sessions idle for longer than the ttl and reports
// how many were dropped.
func (t *Tracker) Sweep() int {
	if t.ttl <= 0 {
		return 0
	}
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()
	dropped := 0
	for id, s := range t.sessions {
		if s.state.Status != models.UploadUploading && s.updatedAt.Before(cutoff) {
			delete(t.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
