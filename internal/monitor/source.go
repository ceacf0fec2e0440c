package monitor

import (
	"sync"

	"github.com/gfdev10/modelpulse/internal/catalogue"
	"github.com/gfdev10/modelpulse/internal/domain"
	"github.com/gfdev10/modelpulse/internal/keys"
)

// FilteredSource derives targets from the catalogue, the key store and the
// filter active at the instant a cycle starts.
type FilteredSource struct {
	cat  *catalogue.Catalogue
	keys *keys.Store

	mu     sync.RWMutex
	filter catalogue.Filter
}

func NewFilteredSource(cat *catalogue.Catalogue, ks *keys.Store) *FilteredSource {
	return &FilteredSource{cat: cat, keys: ks}
}

func (s *FilteredSource) SetFilter(f catalogue.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

func (s *FilteredSource) Filter() catalogue.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *FilteredSource) Targets() []domain.Target {
	s.mu.RLock()
	f := s.filter
	s.mu.RUnlock()
	return s.cat.Targets(f, s.keys.Get)
}

var _ TargetSource = (*FilteredSource)(nil)
