// Package keys stores per-provider API credentials. Keys are seeded from the
// environment (each provider declares its variable name in the catalogue),
// optionally from a local JSON file, and can be replaced at runtime through
// the API. Key material never leaves this package except inside a Target.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

type Store struct {
	mu   sync.RWMutex
	keys map[string]string // provider id -> credential
}

func NewStore() *Store {
	return &Store{keys: make(map[string]string)}
}

// LoadEnv fills the store from environment variables. envByProvider maps a
// provider id to the variable holding its key. Empty variables are skipped so
// an existing runtime-set key is not clobbered by a blank env.
func (s *Store) LoadEnv(envByProvider map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for provider, envVar := range envByProvider {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			s.keys[provider] = v
		}
	}
}

// LoadFile merges keys from a JSON file of the form {"provider":"key",...}.
// A missing file is not an error; a malformed one is.
func (s *Store) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read keys file: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse keys file: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for provider, key := range m {
		if key = strings.TrimSpace(key); key != "" {
			s.keys[provider] = key
		}
	}
	return nil
}

// Get returns the credential for a provider, or "" when none is configured.
func (s *Store) Get(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[provider]
}

// Set stores a credential. An empty key removes the entry.
func (s *Store) Set(provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.TrimSpace(key)
	if key == "" {
		delete(s.keys, provider)
		return
	}
	s.keys[provider] = key
}

// Configured reports which of the given providers have a key, without
// exposing the key material.
func (s *Store) Configured(providers []string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(providers))
	for _, p := range providers {
		out[p] = s.keys[p] != ""
	}
	return out
}
