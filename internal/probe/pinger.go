package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gfdev10/modelpulse/internal/domain"
)

const (
	// pingPrompt is the minimal prompt sent to every endpoint. Its content is
	// irrelevant; only the response status and timing matter.
	pingPrompt = "ping"

	maxPingTokens = 5

	// errorBodyLimit bounds how much of an error response we read when
	// fishing for diagnostics.
	errorBodyLimit = 4 << 10
)

// Pinger issues one chat-completion request per Probe call and classifies
// the result. It owns its http.Client; the per-probe time budget is applied
// via context so a caller's cancellation and the timeout stay distinguishable.
type Pinger struct {
	Client  *http.Client
	Timeout time.Duration
}

func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Pinger{
		Client:  &http.Client{},
		Timeout: timeout,
	}
}

type chatPayload struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generatePayload struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

// Probe sends one request to the target and reduces the result to an outcome.
// A target with an empty credential short-circuits to missing-credential
// without touching the network.
func (p *Pinger) Probe(ctx context.Context, t domain.Target) domain.ProbeOutcome {
	if t.Credential == "" {
		return domain.ProbeOutcome{
			Status:  domain.StatusMissingKey,
			Message: "No API key configured",
		}
	}

	req, err := p.buildRequest(ctx, t)
	if err != nil {
		return domain.ProbeOutcome{
			Status:  domain.StatusNetworkError,
			Message: "Network error",
			Detail:  err.Error(),
		}
	}

	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	req = req.WithContext(cctx)

	// Latency is measured to response headers, not full body.
	start := time.Now()
	resp, err := p.Client.Do(req)
	elapsed := time.Since(start).Seconds() * 1000
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		return domain.ProbeOutcome{
			Status:    domain.StatusSuccess,
			LatencyMS: elapsed,
		}
	}
	return domain.ProbeOutcome{
		Status:  domain.StatusHTTPError,
		Message: httpErrorMessage(resp.StatusCode),
		Detail:  readErrorDetail(resp.Body),
	}
}

func (p *Pinger) buildRequest(ctx context.Context, t domain.Target) (*http.Request, error) {
	var (
		endpoint string
		body     any
	)
	switch t.Style {
	case domain.StyleGoogle:
		// Divergent wire format: model in the path, key as a query parameter.
		endpoint = fmt.Sprintf("%s/%s:generateContent?key=%s",
			t.Endpoint, t.Model, url.QueryEscape(t.Credential))
		body = generatePayload{
			Contents:         []generateContent{{Parts: []generatePart{{Text: pingPrompt}}}},
			GenerationConfig: generationConfig{MaxOutputTokens: maxPingTokens},
		}
	default:
		endpoint = t.Endpoint
		body = chatPayload{
			Model:     t.Model,
			Messages:  []chatMessage{{Role: "user", Content: pingPrompt}},
			MaxTokens: maxPingTokens,
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.Style != domain.StyleGoogle {
		req.Header.Set("Authorization", "Bearer "+t.Credential)
	}
	return req, nil
}

func classifyTransportError(parent context.Context, err error) domain.ProbeOutcome {
	// Caller cancellation wins over everything; the outcome is dropped upstream.
	if parent.Err() != nil {
		return domain.ProbeOutcome{Status: domain.StatusCancelled}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ProbeOutcome{
			Status:  domain.StatusTimeout,
			Message: "Timed out",
		}
	}
	return domain.ProbeOutcome{
		Status:  domain.StatusNetworkError,
		Message: "Network error",
		Detail:  err.Error(),
	}
}

func httpErrorMessage(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "Invalid API key"
	case http.StatusNotFound:
		return "Model not found"
	case http.StatusTooManyRequests:
		return "Rate limited"
	default:
		return fmt.Sprintf("HTTP %d", code)
	}
}

// readErrorDetail opportunistically pulls error.message out of a provider's
// error body. Providers disagree on the envelope, so parse failures are fine.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
