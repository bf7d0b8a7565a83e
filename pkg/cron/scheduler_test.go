package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	importservice "github.com/FACorreiaa/grocery-invoices/internal/domain/import/service"
)

type fakeSyncer struct {
	mu        sync.Mutex
	dirs      []string
	err       error
	calls     chan struct{}
	block     chan struct{}
	cancelled bool
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{calls: make(chan struct{}, 10)}
}

func (f *fakeSyncer) SyncDirectory(ctx context.Context, dir string) (*importservice.SyncStats, error) {
	f.mu.Lock()
	f.dirs = append(f.dirs, dir)
	f.mu.Unlock()
	f.calls <- struct{}{}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled = true
			f.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &importservice.SyncStats{Scanned: 1, Imported: 1}, nil
}

func (f *fakeSyncer) wasCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *fakeSyncer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dirs)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitCall(t *testing.T, f *fakeSyncer) {
	t.Helper()
	select {
	case <-f.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("sync was not triggered")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	f := newFakeSyncer()
	s := NewScheduler(f, "/data/invoices", "@every 1h", time.Minute, testLogger())

	s.RunNow()
	waitCall(t, f)
	assert.Equal(t, []string{"/data/invoices"}, f.dirs)
}

func TestScheduler_RunNowSkipsOverlap(t *testing.T) {
	f := newFakeSyncer()
	f.block = make(chan struct{})
	s := NewScheduler(f, "dir", "@every 1h", time.Minute, testLogger())

	s.RunNow()
	waitCall(t, f)

	// The first run holds the lock, so this one returns immediately.
	s.syncInvoices(context.Background())
	close(f.block)

	assert.Equal(t, 1, f.count())
}

func TestScheduler_SyncErrorIsLogged(t *testing.T) {
	f := newFakeSyncer()
	f.err = errors.New("database unavailable")
	s := NewScheduler(f, "dir", "@every 1h", time.Minute, testLogger())

	assert.NotPanics(t, func() { s.syncInvoices(context.Background()) })
	assert.Equal(t, 1, f.count())
}

func TestScheduler_StartStop(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		s := NewScheduler(newFakeSyncer(), "dir", "@every 15m", 0, testLogger())
		require.NoError(t, s.Start())
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), s.Next(), time.Minute)

		waitDone(t, s.Stop())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		s := NewScheduler(newFakeSyncer(), "dir", "every quarter hour", 0, testLogger())
		assert.Error(t, s.Start())
		assert.True(t, s.Next().IsZero())
	})
}

func TestScheduler_RunBlocks(t *testing.T) {
	f := newFakeSyncer()
	s := NewScheduler(f, "dir", "@every 1h", time.Minute, testLogger())

	s.Run(context.Background())
	assert.Equal(t, 1, f.count())
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopWaitsForRunNow(t *testing.T) {
	f := newFakeSyncer()
	f.block = make(chan struct{})
	s := NewScheduler(f, "dir", "@every 1h", time.Minute, testLogger())

	s.RunNow()
	waitCall(t, f)

	waitDone(t, s.Stop())
	assert.True(t, f.wasCancelled(), "in-flight sync should see its context cancelled")

	s.RunNow()
	select {
	case <-f.calls:
		t.Fatal("RunNow after Stop started a sync")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, f.count())
}

func TestScheduler_RunHonoursCallerContext(t *testing.T) {
	f := newFakeSyncer()
	f.block = make(chan struct{})
	s := NewScheduler(f, "dir", "@every 1h", time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitCall(t, f)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after its context was cancelled")
	}
	assert.True(t, f.wasCancelled())
}
