package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gfdev10/modelpulse/internal/catalogue"
	"github.com/gfdev10/modelpulse/internal/domain"
	"github.com/gfdev10/modelpulse/internal/keys"
	"github.com/gfdev10/modelpulse/internal/metrics"
	"github.com/gfdev10/modelpulse/internal/monitor"
	"github.com/gfdev10/modelpulse/internal/opencode"
	"github.com/gfdev10/modelpulse/internal/probe"
	"github.com/gfdev10/modelpulse/internal/repo"

	mw "github.com/gfdev10/modelpulse/internal/httpapi/middleware"
)

// Server is the dashboard-facing API: catalogue queries, key management,
// one-shot probes, monitor control, and live status over REST + WebSocket.
type Server struct {
	Logger    *zap.Logger
	Catalogue *catalogue.Catalogue
	Keys      *keys.Store
	Snapshots repo.SnapshotStore
	Loop      *monitor.Loop
	Source    *monitor.FilteredSource
	Recorder  *metrics.Recorder
	Prober    probe.Prober

	RatePerMin int
	RateBurst  int
}

func NewServer(
	l *zap.Logger,
	cat *catalogue.Catalogue,
	ks *keys.Store,
	snaps repo.SnapshotStore,
	loop *monitor.Loop,
	src *monitor.FilteredSource,
	rec *metrics.Recorder,
	p probe.Prober,
) *Server {
	return &Server{
		Logger:    l,
		Catalogue: cat,
		Keys:      ks,
		Snapshots: snaps,
		Loop:      loop,
		Source:    src,
		Recorder:  rec,
		Prober:    p,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(mw.RateLimit(s.RatePerMin, s.RateBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/providers", s.handleProviders)
	r.Get("/api/models", s.handleModels)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/verdicts", s.handleVerdicts)
	r.Post("/api/probe", s.handleProbe)
	r.Get("/api/monitor", s.handleMonitorState)
	r.Post("/api/monitor/start", s.handleMonitorStart)
	r.Post("/api/monitor/stop", s.handleMonitorStop)
	r.Get("/api/keys", s.handleKeysGet)
	r.Put("/api/keys", s.handleKeysPut)
	r.Get("/api/opencode-config", s.handleOpenCodeConfig)
	r.Get("/ws", s.handleWS)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type providerView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	KeyEnv     string       `json:"key_env"`
	Style      domain.Style `json:"style"`
	ModelCount int          `json:"model_count"`
	Configured bool         `json:"configured"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	providers := s.Catalogue.Providers()
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	configured := s.Keys.Configured(ids)

	out := make([]providerView, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerView{
			ID:         p.ID,
			Name:       p.Name,
			KeyEnv:     p.KeyEnv,
			Style:      p.Style,
			ModelCount: len(p.Models),
			Configured: configured[p.ID],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	f := catalogue.Filter{
		Provider: r.URL.Query().Get("provider"),
		Search:   r.URL.Query().Get("q"),
	}
	writeJSON(w, http.StatusOK, s.Catalogue.Entries(f))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.Snapshots.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleVerdicts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Recorder.Reports())
}

type probePayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// handleProbe runs a single synchronous probe for immediate feedback,
// independent of the monitoring loop.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var p probePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Provider == "" || p.Model == "" {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	prov, ok := s.Catalogue.Provider(p.Provider)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}
	found := false
	for _, m := range prov.Models {
		if m.ID == p.Model {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "unknown model")
		return
	}

	tgt := domain.Target{
		Provider:   prov.ID,
		Model:      p.Model,
		Endpoint:   prov.Endpoint,
		Credential: s.Keys.Get(prov.ID),
		Style:      prov.Style,
	}
	out := s.Prober.Probe(r.Context(), tgt)

	s.Logger.Info("probe_requested",
		zap.String("key", string(tgt.Key())),
		zap.String("status", string(out.Status)),
		zap.Float64("latency_ms", out.LatencyMS),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":     tgt.Key(),
		"outcome": out,
	})
}

type monitorState struct {
	Running bool             `json:"running"`
	Filter  catalogue.Filter `json:"filter"`
}

func (s *Server) handleMonitorState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, monitorState{
		Running: s.Loop.Running(),
		Filter:  s.Source.Filter(),
	})
}

type startPayload struct {
	Provider string `json:"provider"`
	Search   string `json:"q"`
}

func (s *Server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	// Body is optional; an empty one keeps the current filter.
	var p startPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&p)
	}
	if p.Provider != "" || p.Search != "" {
		s.Source.SetFilter(catalogue.Filter{Provider: p.Provider, Search: p.Search})
	}
	s.Loop.Start()
	s.Logger.Info("monitor_start_requested",
		zap.String("provider_filter", p.Provider),
		zap.String("search", p.Search),
	)
	writeJSON(w, http.StatusOK, monitorState{Running: s.Loop.Running(), Filter: s.Source.Filter()})
}

func (s *Server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	s.Loop.Stop()
	s.Logger.Info("monitor_stop_requested")
	writeJSON(w, http.StatusOK, monitorState{Running: s.Loop.Running(), Filter: s.Source.Filter()})
}

func (s *Server) handleKeysGet(w http.ResponseWriter, r *http.Request) {
	providers := s.Catalogue.Providers()
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	writeJSON(w, http.StatusOK, s.Keys.Configured(ids))
}

type keyPayload struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

func (s *Server) handleKeysPut(w http.ResponseWriter, r *http.Request) {
	var p keyPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Provider == "" {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if _, ok := s.Catalogue.Provider(p.Provider); !ok {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}
	s.Keys.Set(p.Provider, p.Key)
	// never log or echo key material
	s.Logger.Info("key_updated",
		zap.String("provider", p.Provider),
		zap.Bool("configured", p.Key != ""),
	)
	writeJSON(w, http.StatusOK, map[string]bool{p.Provider: strings.TrimSpace(p.Key) != ""})
}

func (s *Server) handleOpenCodeConfig(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("providers"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	writeJSON(w, http.StatusOK, opencode.Generate(s.Catalogue, ids))
}
