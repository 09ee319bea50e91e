package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"craftresume-backend-go/internal/cache"
)

type profile struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

func newTestClient() *Client {
	return NewClient(cache.NewMemoryCache(), time.Minute, zap.NewNop())
}

func TestQuery_GetCachesUntilRefetch(t *testing.T) {
	ctx := context.Background()
	q := New[*profile](newTestClient())

	var calls int
	fetch := func(context.Context) (*profile, error) {
		calls++
		return &profile{UID: "u-1", Name: "call"}, nil
	}

	first, err := q.Get(ctx, "user:u-1", fetch)
	require.NoError(t, err)
	second, err := q.Get(ctx, "user:u-1", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	_, err = q.Refetch(ctx, "user:u-1", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestQuery_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	q := New[[]string](newTestClient())
	boom := errors.New("boom")

	_, err := q.Get(ctx, "templates", func(context.Context) ([]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	got, err := q.Get(ctx, "templates", func(context.Context) ([]string, error) { return []string{"a"}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestQuery_Invalidate(t *testing.T) {
	ctx := context.Background()
	client := newTestClient()
	q := New[*profile](client)

	n := 0
	fetch := func(context.Context) (*profile, error) {
		n++
		return &profile{UID: "u-1"}, nil
	}

	_, err := q.Get(ctx, "user:u-1", fetch)
	require.NoError(t, err)
	require.NoError(t, client.Invalidate(ctx, "user:u-1"))
	_, err = q.Get(ctx, "user:u-1", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQuery_InvalidateDuringFetchSkipsWriteBack(t *testing.T) {
	ctx := context.Background()
	client := newTestClient()
	q := New[string](client)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.Get(ctx, "templates", func(context.Context) (string, error) {
			close(entered)
			<-release
			return "stale", nil
		})
	}()

	<-entered
	require.NoError(t, client.Invalidate(ctx, "templates"))
	close(release)
	<-done

	got, err := q.Get(ctx, "templates", func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestQuery_DeduplicatesConcurrentCallers(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	q := New[*profile](newTestClient())

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (*profile, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return &profile{UID: "u-1"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*profile, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = q.Get(ctx, "user:u-1", fetch)
	}()
	<-entered

	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = q.Get(ctx, "user:u-1", fetch)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "u-1", r.UID)
	}
}

func TestQuery_CancelledCallerDoesNotFailOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New[*profile](newTestClient())
	leaderCtx, cancelLeader := context.WithCancel(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	fetch := func(ctx context.Context) (*profile, error) {
		close(entered)
		<-release
		fetchErr <- ctx.Err()
		return &profile{UID: "u-1"}, nil
	}

	leaderDone := make(chan error, 1)
	go func() {
		_, err := q.Get(leaderCtx, "user:u-1", fetch)
		leaderDone <- err
	}()
	<-entered

	type result struct {
		p   *profile
		err error
	}
	followerDone := make(chan result, 1)
	go func() {
		p, err := q.Get(context.Background(), "user:u-1", fetch)
		followerDone <- result{p, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderDone, context.Canceled)

	close(release)
	got := <-followerDone
	require.NoError(t, got.err)
	require.NotNil(t, got.p)
	assert.Equal(t, "u-1", got.p.UID)
	assert.NoError(t, <-fetchErr, "the shared fetch outlives the cancelled caller")

	cached, err := q.Get(context.Background(), "user:u-1", func(context.Context) (*profile, error) {
		return nil, errors.New("should be served from cache")
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", cached.UID)
}
