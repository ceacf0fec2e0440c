// Package monitor drives repeated, cancellable batches of concurrent probes
// across the current target set and publishes per-target status updates as
// each probe settles.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gfdev10/modelpulse/internal/domain"
	"github.com/gfdev10/modelpulse/internal/probe"
	"github.com/gfdev10/modelpulse/internal/repo"
)

// TargetSource yields the target list at the start of each cycle. The list is
// snapshotted once per cycle, so a filter change takes effect on the next
// cycle, never retroactively.
type TargetSource interface {
	Targets() []domain.Target
}

// Loop owns its cancellation scope and timer. Start/Stop are idempotent; Stop
// cancels every in-flight probe, interrupts the inter-cycle sleep, and returns
// only once the driver has exited, so no snapshot write can land afterwards.
type Loop struct {
	log      *zap.Logger
	prober   probe.Prober
	source   TargetSource
	store    repo.SnapshotStore
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan domain.StatusSnapshot
}

func NewLoop(log *zap.Logger, p probe.Prober, src TargetSource, store repo.SnapshotStore, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Loop{
		log:      log,
		prober:   p,
		source:   src,
		store:    store,
		interval: interval,
		subs:     make(map[int]chan domain.StatusSnapshot),
	}
}

// Start launches the cycle driver. Calling it while already running is a
// no-op, so a double start never doubles the in-flight probes.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true
	go l.run(ctx, l.done)
}

// Stop cancels the current batch and waits for the driver to exit. Safe to
// call repeatedly or when idle.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Subscribe returns a channel of incremental status updates and a cancel
// function. Updates to a full channel are dropped rather than stalling a
// batch, so subscribers should buffer generously.
func (l *Loop) Subscribe(buffer int) (<-chan domain.StatusSnapshot, func()) {
	if buffer < 1 {
		buffer = 64
	}
	ch := make(chan domain.StatusSnapshot, buffer)

	l.subMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.subMu.Unlock()

	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if c, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(c)
		}
	}
}

func (l *Loop) publish(snap domain.StatusSnapshot) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// run is the cycle driver: probe immediately, then once per interval. It ends
// on cancellation or when the target list comes up empty.
func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	l.log.Info("monitor_started", zap.Duration("interval", l.interval))
	for {
		if ctx.Err() != nil {
			l.log.Info("monitor_stopped")
			return
		}

		targets := l.source.Targets()
		if len(targets) == 0 {
			l.log.Info("monitor_no_targets")
			return
		}

		l.cycle(ctx, targets)

		select {
		case <-ctx.Done():
			l.log.Info("monitor_stopped")
			return
		case <-time.After(l.interval):
		}
	}
}

// cycle launches one probe per target, all in flight at once. Target counts
// are dozens at most, and fanning out together is what makes the measured
// latencies comparable across a cycle. Do not pool this.
func (l *Loop) cycle(ctx context.Context, targets []domain.Target) {
	batch, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	for _, t := range targets {
		t := t
		g.Go(func() error {
			out := l.prober.Probe(batch, t)
			// A cancelled probe is a no-op: recording it would let a stale
			// result land after the user stopped monitoring.
			if out.Status == domain.StatusCancelled || batch.Err() != nil {
				return nil
			}
			snap := domain.StatusSnapshot{
				Key:         t.Key(),
				Provider:    t.Provider,
				Model:       t.Model,
				Outcome:     out,
				LastChecked: time.Now().UTC(),
			}
			if err := l.store.Set(ctx, snap); err != nil {
				l.log.Warn("monitor_store_error",
					zap.String("key", string(snap.Key)),
					zap.Error(err),
				)
				return nil
			}
			l.publish(snap)
			l.log.Debug("monitor_probed",
				zap.String("key", string(snap.Key)),
				zap.String("status", string(out.Status)),
				zap.Float64("latency_ms", out.LatencyMS),
				zap.String("message", out.Message),
			)
			return nil
		})
	}
	// Every launched probe must settle before the next cycle recomputes the
	// target list; this is what keeps one writer per key.
	_ = g.Wait()
}
