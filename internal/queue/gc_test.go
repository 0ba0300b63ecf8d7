package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubPurger struct {
	calls     int
	retention time.Duration
	purged    int
	err       error
}

func (s *stubPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	s.calls++
	s.retention = retention
	return s.purged, s.err
}

func TestGarbageCollectorNilPurger(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(nil, time.Minute, 24*time.Hour)
	if err := gc.collect(context.Background()); err != nil {
		t.Errorf("collect with nil purger: %v", err)
	}
}

func TestGarbageCollectorPurgesWithRetention(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{purged: 3}
	gc := NewGarbageCollector(purger, time.Minute, 24*time.Hour)

	if err := gc.collect(context.Background()); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if purger.calls != 1 {
		t.Errorf("expected one purge call, got %d", purger.calls)
	}
	if purger.retention != 24*time.Hour {
		t.Errorf("expected retention 24h, got %v", purger.retention)
	}
}

func TestGarbageCollectorSurfacesPurgeError(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{err: errors.New("purge failed")}
	gc := NewGarbageCollector(purger, time.Minute, time.Hour)

	if err := gc.collect(context.Background()); err == nil {
		t.Error("expected error from collect")
	}
}

func TestGarbageCollectorStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(&stubPurger{}, 24*time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gc.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
