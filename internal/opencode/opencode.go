// Package opencode renders catalogue entries into OpenCode CLI configuration.
// Pure data transformation over static lookup tables; nothing here talks to a
// network or the monitor.
package opencode

import (
	"strings"

	"github.com/gfdev10/modelpulse/internal/catalogue"
	"github.com/gfdev10/modelpulse/internal/domain"
)

const schemaURL = "https://opencode.ai/config.json"

// npm adapter per wire style. Google's SDK is its own package; everything
// else goes through the OpenAI-compatible adapter.
var npmByStyle = map[domain.Style]string{
	domain.StyleOpenAI: "@ai-sdk/openai-compatible",
	domain.StyleGoogle: "@ai-sdk/google",
}

type Config struct {
	Schema   string              `json:"$schema"`
	Provider map[string]Provider `json:"provider"`
}

type Provider struct {
	NPM     string           `json:"npm"`
	Name    string           `json:"name"`
	Options Options          `json:"options"`
	Models  map[string]Model `json:"models"`
}

type Options struct {
	BaseURL string `json:"baseURL,omitempty"`
	APIKey  string `json:"apiKey"`
}

type Model struct {
	Name string `json:"name"`
}

// Generate builds an OpenCode config for the given provider ids (all
// catalogue providers when empty). Keys are referenced by env placeholder,
// never inlined.
func Generate(cat *catalogue.Catalogue, providerIDs []string) Config {
	want := make(map[string]bool, len(providerIDs))
	for _, id := range providerIDs {
		want[id] = true
	}

	cfg := Config{
		Schema:   schemaURL,
		Provider: make(map[string]Provider),
	}
	for _, p := range cat.Providers() {
		if len(want) > 0 && !want[p.ID] {
			continue
		}
		models := make(map[string]Model, len(p.Models))
		for _, m := range p.Models {
			models[m.ID] = Model{Name: m.Name}
		}
		cfg.Provider[p.ID] = Provider{
			NPM:     npmByStyle[p.Style],
			Name:    p.Name,
			Options: Options{
				BaseURL: baseURL(p),
				APIKey:  "{env:" + p.KeyEnv + "}",
			},
			Models: models,
		}
	}
	return cfg
}

// baseURL trims the chat-completions suffix so the adapter can append its own
// paths. Google's SDK knows its endpoint; it gets no baseURL.
func baseURL(p catalogue.Provider) string {
	if p.Style == domain.StyleGoogle {
		return ""
	}
	return strings.TrimSuffix(p.Endpoint, "/chat/completions")
}
