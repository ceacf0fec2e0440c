// Package metrics derives aggregate health from ping history. This is static
// post-processing over recorded outcomes; the monitoring core only ever keeps
// the latest snapshot per target.
package metrics

import (
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gfdev10/modelpulse/internal/domain"
)

// Verdict is a coarse latency/health classification for a target.
type Verdict string

const (
	VerdictPerfect  Verdict = "perfect"
	VerdictGood     Verdict = "good"
	VerdictNormal   Verdict = "normal"
	VerdictSlow     Verdict = "slow"
	VerdictUnstable Verdict = "unstable"
	VerdictOffline  Verdict = "offline"
)

// Latency thresholds (ms) between verdict bands, applied to the average over
// successful pings.
const (
	perfectBelowMS = 300
	goodBelowMS    = 800
	normalBelowMS  = 1500
	slowBelowMS    = 4000
)

// Classify maps a ping history to a verdict. A history with no successes is
// offline; a success rate under half is unstable regardless of latency.
func Classify(pings []domain.PingResult) Verdict {
	if len(pings) == 0 {
		return VerdictOffline
	}
	ok := 0
	for _, p := range pings {
		if p.Success {
			ok++
		}
	}
	if ok == 0 {
		return VerdictOffline
	}
	if ok*2 < len(pings) {
		return VerdictUnstable
	}
	switch avg := AvgLatency(pings); {
	case avg < perfectBelowMS:
		return VerdictPerfect
	case avg < goodBelowMS:
		return VerdictGood
	case avg < normalBelowMS:
		return VerdictNormal
	case avg < slowBelowMS:
		return VerdictSlow
	default:
		return VerdictUnstable
	}
}

// AvgLatency is the mean over successful pings only; +Inf when none succeeded.
func AvgLatency(pings []domain.PingResult) float64 {
	var sum float64
	n := 0
	for _, p := range pings {
		if p.Success {
			sum += p.LatencyMS
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}

// TargetReport summarises one target's recent history.
type TargetReport struct {
	Key           domain.TargetKey `json:"key"`
	Verdict       Verdict          `json:"verdict"`
	AvgLatencyMS  float64          `json:"avg_latency_ms"` // +Inf serialised as null
	UptimePercent float64          `json:"uptime_percent"`
	Samples       int              `json:"samples"`
	LastChecked   time.Time        `json:"last_checked"`
}

// MarshalJSON emits null for the +Inf average, which encoding/json would
// otherwise refuse to serialise.
func (t TargetReport) MarshalJSON() ([]byte, error) {
	type plain TargetReport
	var avg *float64
	if !math.IsInf(t.AvgLatencyMS, 0) {
		v := t.AvgLatencyMS
		avg = &v
	}
	return json.Marshal(struct {
		plain
		AvgLatencyMS *float64 `json:"avg_latency_ms"`
	}{plain(t), avg})
}

// Recorder keeps a bounded per-target ping history ring and produces reports.
// It subscribes to monitor updates; it is not consulted by the monitor itself.
type Recorder struct {
	mu      sync.RWMutex
	limit   int
	history map[domain.TargetKey][]domain.PingResult
	last    map[domain.TargetKey]time.Time
}

func NewRecorder(limit int) *Recorder {
	if limit < 1 {
		limit = 20
	}
	return &Recorder{
		limit:   limit,
		history: make(map[domain.TargetKey][]domain.PingResult),
		last:    make(map[domain.TargetKey]time.Time),
	}
}

// Record appends a settled snapshot to its target's ring.
// missing-credential snapshots are not history: nothing was attempted.
func (r *Recorder) Record(snap domain.StatusSnapshot) {
	if snap.Outcome.Status == domain.StatusMissingKey {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ring := append(r.history[snap.Key], domain.PingResult{
		Success:   snap.Outcome.Up(),
		LatencyMS: snap.Outcome.LatencyMS,
		At:        snap.LastChecked,
	})
	if len(ring) > r.limit {
		ring = ring[len(ring)-r.limit:]
	}
	r.history[snap.Key] = ring
	r.last[snap.Key] = snap.LastChecked
}

func (r *Recorder) Report(key domain.TargetKey) (TargetReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ring, ok := r.history[key]
	if !ok {
		return TargetReport{}, false
	}
	return r.report(key, ring), true
}

func (r *Recorder) Reports() []TargetReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TargetReport, 0, len(r.history))
	for key, ring := range r.history {
		out = append(out, r.report(key, ring))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (r *Recorder) report(key domain.TargetKey, ring []domain.PingResult) TargetReport {
	ok := 0
	for _, p := range ring {
		if p.Success {
			ok++
		}
	}
	uptime := 0.0
	if len(ring) > 0 {
		uptime = float64(ok) / float64(len(ring)) * 100
	}
	return TargetReport{
		Key:           key,
		Verdict:       Classify(ring),
		AvgLatencyMS:  AvgLatency(ring),
		UptimePercent: math.Round(uptime*100) / 100,
		Samples:       len(ring),
		LastChecked:   r.last[key],
	}
}
