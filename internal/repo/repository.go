package repo

import (
	"context"

	"github.com/gfdev10/modelpulse/internal/domain"
)

// SnapshotStore holds the latest status per target key. Each settled probe
// overwrites its key; there is no history at this layer. The monitor is the
// only writer, one write per target per settle, so no two writers ever touch
// the same key concurrently.
type SnapshotStore interface {
	Set(ctx context.Context, snap domain.StatusSnapshot) error
	Get(ctx context.Context, key domain.TargetKey) (*domain.StatusSnapshot, error)
	All(ctx context.Context) ([]domain.StatusSnapshot, error)
}
