// Package catalogue holds the static table of free-tier coding models and
// derives probe targets from it. The table ships embedded; there is nothing
// dynamic about it beyond filtering.
package catalogue

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gfdev10/modelpulse/internal/domain"
)

//go:embed catalogue.yaml
var embedded []byte

type Model struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Context int    `yaml:"context" json:"context"`
}

type Provider struct {
	ID       string       `yaml:"id" json:"id"`
	Name     string       `yaml:"name" json:"name"`
	Endpoint string       `yaml:"endpoint" json:"endpoint"`
	KeyEnv   string       `yaml:"key_env" json:"key_env"`
	Style    domain.Style `yaml:"style" json:"style"`
	Models   []Model      `yaml:"models" json:"models"`
}

// Entry is one catalogue row: a model together with its provider context.
type Entry struct {
	Provider     string       `json:"provider"`
	ProviderName string       `json:"provider_name"`
	Model        Model        `json:"model"`
	Endpoint     string       `json:"-"`
	Style        domain.Style `json:"-"`
}

// Filter narrows the catalogue. Zero value matches everything.
type Filter struct {
	Provider string // exact provider id
	Search   string // case-insensitive substring over model id and name
}

type Catalogue struct {
	providers []Provider
	byID      map[string]*Provider
}

// Load parses the embedded table. Fails only if the embedded YAML is broken,
// which is a build defect rather than a runtime condition.
func Load() (*Catalogue, error) {
	return Parse(embedded)
}

func Parse(raw []byte) (*Catalogue, error) {
	var doc struct {
		Providers []Provider `yaml:"providers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	c := &Catalogue{
		providers: doc.Providers,
		byID:      make(map[string]*Provider, len(doc.Providers)),
	}
	for i := range c.providers {
		p := &c.providers[i]
		if p.ID == "" || p.Endpoint == "" || p.KeyEnv == "" {
			return nil, fmt.Errorf("catalogue: provider %q missing id/endpoint/key_env", p.Name)
		}
		if p.Style == "" {
			p.Style = domain.StyleOpenAI
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalogue: duplicate provider id %q", p.ID)
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

func (c *Catalogue) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

func (c *Catalogue) Provider(id string) (*Provider, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Entries returns the catalogue rows matching the filter, in table order.
func (c *Catalogue) Entries(f Filter) []Entry {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	var out []Entry
	for i := range c.providers {
		p := &c.providers[i]
		if f.Provider != "" && p.ID != f.Provider {
			continue
		}
		for _, m := range p.Models {
			if needle != "" &&
				!strings.Contains(strings.ToLower(m.ID), needle) &&
				!strings.Contains(strings.ToLower(m.Name), needle) {
				continue
			}
			out = append(out, Entry{
				Provider:     p.ID,
				ProviderName: p.Name,
				Model:        m,
				Endpoint:     p.Endpoint,
				Style:        p.Style,
			})
		}
	}
	return out
}

// CredentialFunc resolves the API key for a provider id; empty means not
// configured (the probe layer turns that into missing-credential).
type CredentialFunc func(providerID string) string

// Targets derives the probe target list for the filter at this instant.
// Callers snapshot the result once per cycle; a filter change therefore takes
// effect on the next cycle.
func (c *Catalogue) Targets(f Filter, creds CredentialFunc) []domain.Target {
	entries := c.Entries(f)
	out := make([]domain.Target, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Target{
			Provider:   e.Provider,
			Model:      e.Model.ID,
			Endpoint:   e.Endpoint,
			Credential: creds(e.Provider),
			Style:      e.Style,
		})
	}
	return out
}
