package probe

import (
	"context"

	"github.com/gfdev10/modelpulse/internal/domain"
)

// Prober performs a single bounded probe against a target's chat endpoint.
//
// Implementations never return an error: every failure mode (bad key, non-2xx,
// transport failure, timeout) is folded into the outcome. The only exception
// is cancellation, reported as StatusCancelled, which callers must drop
// without recording.
type Prober interface {
	Probe(ctx context.Context, t domain.Target) domain.ProbeOutcome
}
