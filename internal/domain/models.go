package domain

import "time"

// Style selects the wire format a provider's chat endpoint speaks.
type Style string

const (
	// StyleOpenAI: POST endpoint, Bearer auth, {model, messages, max_tokens}.
	StyleOpenAI Style = "openai"
	// StyleGoogle: POST endpoint/<model>:generateContent?key=..., {contents,...}.
	// Incompatible with the OpenAI shape; kept as a separate branch on purpose.
	StyleGoogle Style = "google"
)

// TargetKey identifies one (provider, model) pair, formatted "provider:model".
type TargetKey string

// Target is one thing to probe. Immutable for the duration of a cycle;
// the target list is recomputed from the active filter at each cycle start.
type Target struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Endpoint   string `json:"endpoint"`
	Credential string `json:"-"`
	Style      Style  `json:"style"`
}

func (t Target) Key() TargetKey {
	return TargetKey(t.Provider + ":" + t.Model)
}

// Status classifies the outcome of a single probe.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusHTTPError    Status = "http-error"
	StatusTimeout      Status = "timeout"
	StatusNetworkError Status = "network-error"
	StatusMissingKey   Status = "missing-credential"
	// StatusCancelled is returned when the probe was superseded by a stop
	// request. Callers drop it; it is never recorded or surfaced.
	StatusCancelled Status = "cancelled"
)

// ProbeOutcome is the result of one HTTP attempt. Created fresh per attempt,
// immutable afterwards.
type ProbeOutcome struct {
	Status    Status  `json:"status"`
	LatencyMS float64 `json:"latency_ms,omitempty"` // set only on success
	Message   string  `json:"message,omitempty"`    // set on failure
	Detail    string  `json:"detail,omitempty"`     // best-effort error-body diagnostics
}

func (o ProbeOutcome) Up() bool { return o.Status == StatusSuccess }

// StatusSnapshot is the most recent outcome for a target key. Superseded in
// place by the next cycle's outcome for the same key; no history is kept here.
type StatusSnapshot struct {
	Key         TargetKey    `json:"key"`
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	Outcome     ProbeOutcome `json:"outcome"`
	LastChecked time.Time    `json:"last_checked"`
}

// PingResult is one entry in a target's ping history, used by the metrics
// helpers to derive averages and verdicts. Not part of the monitoring core.
type PingResult struct {
	Success   bool      `json:"success"`
	LatencyMS float64   `json:"latency_ms"`
	At        time.Time `json:"at"`
}
