package upload

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"craftresume-backend-go/internal/models"
)

func TestCheckFile(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     error
	}{
		{name: "png", contentType: "image/png", size: 10},
		{name: "jpeg", contentType: "image/jpeg", size: 10},
		{name: "jpg", contentType: "image/jpg", size: 10},
		{name: "upper case with params", contentType: "IMAGE/PNG; charset=binary", size: 10},
		{name: "gif", contentType: "image/gif", size: 10, wantErr: ErrInvalidFileType},
		{name: "pdf", contentType: "application/pdf", size: 10, wantErr: ErrInvalidFileType},
		{name: "no type", contentType: "", size: 10, wantErr: ErrInvalidFileType},
		{name: "empty", contentType: "image/png", size: 0, wantErr: ErrEmptyFile},
		{name: "too large", contentType: "image/png", size: 101, wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFile(tt.contentType, tt.size, 100)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 0.0, Percent(-5, 100))
	assert.Equal(t, 25.0, Percent(25, 100))
	assert.Equal(t, 100.0, Percent(150, 100))
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker(time.Minute)

	state := tr.Begin("resume.png")
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, models.UploadUploading, state.Status)

	tr.Progress(state.ID, 50, 100)
	tr.Progress(state.ID, 20, 100) // stale callback
	got, err := tr.Get(state.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Progress)

	_, err = tr.Remove(state.ID)
	assert.ErrorIs(t, err, ErrUploadInProgress)

	tr.Complete(state.ID, "https://cdn/resume.png")
	tr.Progress(state.ID, 10, 100)
	got, err = tr.Get(state.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadUploaded, got.Status)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, "https://cdn/resume.png", got.URI)

	removed, err := tr.Remove(state.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/resume.png", removed.URI)

	_, err = tr.Get(state.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTracker_Fail(t *testing.T) {
	tr := NewTracker(0)
	state := tr.Begin("a.jpg")
	tr.Fail(state.ID, models.UploadErrorAuthorization, "Error : Authorization Revoked")

	got, err := tr.Get(state.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadFailed, got.Status)
	assert.Equal(t, models.UploadErrorAuthorization, got.ErrorKind)

	// unknown ids are ignored
	tr.Progress("missing", 1, 2)
	tr.Complete("missing", "x")
}

func TestTracker_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(time.Minute)
	tr.now = func() time.Time { return now }

	done := tr.Begin("done.png")
	tr.Complete(done.ID, "u")
	running := tr.Begin("running.png")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, tr.Sweep())

	_, err := tr.Get(done.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tr.Get(running.ID)
	assert.NoError(t, err)

	assert.Equal(t, 0, NewTracker(0).Sweep())
}

func TestTracker_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	tr := NewTracker(time.Millisecond)
	stopped := make(chan struct{})
	go func() {
		tr.Run(ctx, time.Millisecond)
		close(stopped)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	<-stopped
}

func TestTracker_TakeIsExclusive(t *testing.T) {
	tr := NewTracker(time.Minute)

	pending := tr.Begin("pending.png")
	_, err := tr.Take(pending.ID)
	assert.ErrorIs(t, err, ErrNotUploaded)
	_, err = tr.Get(pending.ID)
	assert.NoError(t, err, "unfinished sessions stay tracked")

	done := tr.Begin("done.png")
	tr.Complete(done.ID, "https://cdn/done.png")

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := tr.Take(done.ID)
			if err == nil {
				winners.Add(1)
				assert.Equal(t, "https://cdn/done.png", state.URI)
				return
			}
			assert.ErrorIs(t, err, ErrSessionNotFound)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())

	tr.Restore(models.UploadState{ID: done.ID, Status: models.UploadUploaded, URI: "https://cdn/done.png"})
	got, err := tr.Get(done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadUploaded, got.Status)
}
