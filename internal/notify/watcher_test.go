package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gfdev10/modelpulse/internal/domain"
)

type memNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	return nil
}

func (m *memNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

func snap(key domain.TargetKey, st domain.Status, at time.Time) domain.StatusSnapshot {
	return domain.StatusSnapshot{
		Key:         key,
		Provider:    "groq",
		Model:       "m",
		Outcome:     domain.ProbeOutcome{Status: st, Message: "Rate limited"},
		LastChecked: at,
	}
}

func TestWatcher_AlertsOnDown_RespectsCooldown(t *testing.T) {
	n := &memNotifier{}
	w := NewWatcher(zap.NewNop(), n, time.Minute)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// first DOWN -> alert
	w.Observe(ctx, snap("groq:m", domain.StatusHTTPError, t0))
	if n.count() != 1 {
		t.Fatalf("want 1 alert, got %d", n.count())
	}

	// still DOWN inside cooldown -> suppressed
	w.Observe(ctx, snap("groq:m", domain.StatusHTTPError, t0.Add(10*time.Second)))
	if n.count() != 1 {
		t.Fatalf("cooldown should suppress, got %d", n.count())
	}

	// recovery -> alert, bypasses cooldown
	w.Observe(ctx, snap("groq:m", domain.StatusSuccess, t0.Add(20*time.Second)))
	if n.count() != 2 {
		t.Fatalf("want recovery alert, got %d", n.count())
	}
}

func TestWatcher_FirstUpIsQuiet(t *testing.T) {
	n := &memNotifier{}
	w := NewWatcher(zap.NewNop(), n, time.Minute)

	w.Observe(context.Background(), snap("groq:m", domain.StatusSuccess, time.Now().UTC()))
	if n.count() != 0 {
		t.Fatalf("healthy first observation should not alert, got %d", n.count())
	}
}

func TestWatcher_MissingCredentialIgnored(t *testing.T) {
	n := &memNotifier{}
	w := NewWatcher(zap.NewNop(), n, time.Minute)

	w.Observe(context.Background(), snap("groq:m", domain.StatusMissingKey, time.Now().UTC()))
	if n.count() != 0 {
		t.Fatalf("missing-credential is not a transition, got %d alerts", n.count())
	}
}

func TestWatcher_RunDrainsChannel(t *testing.T) {
	n := &memNotifier{}
	w := NewWatcher(zap.NewNop(), n, time.Minute)

	updates := make(chan domain.StatusSnapshot, 2)
	updates <- snap("groq:m", domain.StatusHTTPError, time.Now().UTC())
	close(updates)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(context.Background(), updates)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return when the channel closes")
	}
	if n.count() != 1 {
		t.Fatalf("want 1 alert from channel, got %d", n.count())
	}
}
