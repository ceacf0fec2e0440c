package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gfdev10/modelpulse/internal/domain"
)

// Watcher turns a stream of status snapshots into up/down alerts. A target
// alerts when its up/down state flips; repeated DOWN alerts for the same
// target are suppressed inside the cooldown window, recoveries bypass it.
// missing-credential is not a transition; nothing was attempted.
type Watcher struct {
	log      *zap.Logger
	notifier Notifier
	cooldown time.Duration

	mu    sync.Mutex
	state map[domain.TargetKey]watchState
}

type watchState struct {
	up       bool
	known    bool
	lastSent time.Time
}

func NewWatcher(log *zap.Logger, n Notifier, cooldown time.Duration) *Watcher {
	return &Watcher{
		log:      log,
		notifier: n,
		cooldown: cooldown,
		state:    make(map[domain.TargetKey]watchState),
	}
}

// Run consumes updates until the channel closes or ctx is cancelled.
// Intended to be started as a goroutine on a monitor subscription.
func (w *Watcher) Run(ctx context.Context, updates <-chan domain.StatusSnapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			w.Observe(ctx, snap)
		}
	}
}

// Observe processes one snapshot. Exported separately so tests can drive the
// watcher without channels.
func (w *Watcher) Observe(ctx context.Context, snap domain.StatusSnapshot) {
	if w.notifier == nil || snap.Outcome.Status == domain.StatusMissingKey {
		return
	}

	up := snap.Outcome.Up()
	now := snap.LastChecked
	if now.IsZero() {
		now = time.Now().UTC()
	}

	w.mu.Lock()
	st := w.state[snap.Key]
	changed := !st.known || st.up != up
	cooled := st.lastSent.IsZero() || now.Sub(st.lastSent) >= w.cooldown

	send := false
	switch {
	case changed && !up && cooled:
		send = true
	case changed && up && st.known: // recovery, bypasses cooldown
		send = true
	}

	st.up = up
	st.known = true
	if send {
		st.lastSent = now
	}
	w.state[snap.Key] = st
	w.mu.Unlock()

	if !send {
		return
	}

	title := fmt.Sprintf("🔴 %s is DOWN", snap.Key)
	text := fmt.Sprintf("Provider: %s\nModel: %s\nStatus: %s\nReason: %s\nChecked: %s",
		snap.Provider, snap.Model, snap.Outcome.Status, snap.Outcome.Message,
		now.Format(time.RFC3339))
	if up {
		title = fmt.Sprintf("🟢 %s recovered", snap.Key)
		text = fmt.Sprintf("Provider: %s\nModel: %s\nLatency: %.0f ms\nChecked: %s",
			snap.Provider, snap.Model, snap.Outcome.LatencyMS, now.Format(time.RFC3339))
	}

	if err := w.notifier.Send(ctx, title, text); err != nil {
		w.log.Warn("notify_send_error",
			zap.String("key", string(snap.Key)),
			zap.Error(err),
		)
	}
}
