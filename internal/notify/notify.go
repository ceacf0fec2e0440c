// Package notify delivers provider up/down alerts. The Watcher consumes
// monitor updates and decides when a transition is worth a message; the
// notifiers only deliver.
package notify

import "context"

// Notifier delivers a short alert somewhere a human will see it.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans an alert out to several notifiers. Delivery is best effort;
// the first error is reported after all sends were attempted.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
