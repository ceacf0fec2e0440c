package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gfdev10/modelpulse/internal/catalogue"
	"github.com/gfdev10/modelpulse/internal/domain"
	"github.com/gfdev10/modelpulse/internal/keys"
	"github.com/gfdev10/modelpulse/internal/metrics"
	"github.com/gfdev10/modelpulse/internal/monitor"
	"github.com/gfdev10/modelpulse/internal/repo/memory"
)

type stubProber struct {
	out domain.ProbeOutcome
}

func (s *stubProber) Probe(ctx context.Context, t domain.Target) domain.ProbeOutcome {
	if t.Credential == "" {
		return domain.ProbeOutcome{Status: domain.StatusMissingKey, Message: "No API key configured"}
	}
	return s.out
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalogue.Load()
	if err != nil {
		t.Fatalf("catalogue: %v", err)
	}
	ks := keys.NewStore()
	store := memory.New()
	prober := &stubProber{out: domain.ProbeOutcome{Status: domain.StatusSuccess, LatencyMS: 42}}
	src := monitor.NewFilteredSource(cat, ks)
	loop := monitor.NewLoop(zap.NewNop(), prober, src, store, time.Hour)
	rec := metrics.NewRecorder(10)
	return NewServer(zap.NewNop(), cat, ks, store, loop, src, rec, prober)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleProviders_ListsTenWithConfiguredFlag(t *testing.T) {
	s := newTestServer(t)
	s.Keys.Set("groq", "gsk_x")
	h := s.Router()

	rr := doJSON(t, h, "GET", "/api/providers", "")
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	var out []providerView
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 10 {
		t.Fatalf("want 10 providers, got %d", len(out))
	}
	found := false
	for _, p := range out {
		if p.ID == "groq" {
			found = true
			if !p.Configured {
				t.Fatalf("groq should be configured")
			}
		} else if p.Configured {
			t.Fatalf("%s should not be configured", p.ID)
		}
	}
	if !found {
		t.Fatalf("groq missing from providers")
	}
}

func TestHandleModels_Filters(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	all := doJSON(t, h, "GET", "/api/models", "")
	groq := doJSON(t, h, "GET", "/api/models?provider=groq", "")

	var allOut, groqOut []catalogue.Entry
	_ = json.Unmarshal(all.Body.Bytes(), &allOut)
	_ = json.Unmarshal(groq.Body.Bytes(), &groqOut)

	if len(groqOut) == 0 || len(groqOut) >= len(allOut) {
		t.Fatalf("filter not applied: all=%d groq=%d", len(allOut), len(groqOut))
	}
	for _, e := range groqOut {
		if e.Provider != "groq" {
			t.Fatalf("unexpected provider %q", e.Provider)
		}
	}
}

func TestHandleProbe_SuccessAndUnknowns(t *testing.T) {
	s := newTestServer(t)
	s.Keys.Set("groq", "gsk_x")
	h := s.Router()

	rr := doJSON(t, h, "POST", "/api/probe",
		`{"provider":"groq","model":"llama-3.3-70b-versatile"}`)
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Key     string              `json:"key"`
		Outcome domain.ProbeOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Outcome.Status != domain.StatusSuccess || out.Outcome.LatencyMS != 42 {
		t.Fatalf("unexpected outcome: %+v", out.Outcome)
	}

	if rr := doJSON(t, h, "POST", "/api/probe", `{"provider":"nope","model":"m"}`); rr.Code != 404 {
		t.Fatalf("unknown provider: want 404 got %d", rr.Code)
	}
	if rr := doJSON(t, h, "POST", "/api/probe", `{"provider":"groq","model":"nope"}`); rr.Code != 404 {
		t.Fatalf("unknown model: want 404 got %d", rr.Code)
	}
	if rr := doJSON(t, h, "POST", "/api/probe", `{broken`); rr.Code != 400 {
		t.Fatalf("bad payload: want 400 got %d", rr.Code)
	}
}

func TestHandleProbe_MissingKey(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	rr := doJSON(t, h, "POST", "/api/probe",
		`{"provider":"groq","model":"llama-3.3-70b-versatile"}`)
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), string(domain.StatusMissingKey)) {
		t.Fatalf("expected missing-credential outcome: %s", rr.Body.String())
	}
}

func TestHandleKeys_PutAndGet(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	rr := doJSON(t, h, "PUT", "/api/keys", `{"provider":"mistral","key":"sk_m"}`)
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "sk_m") {
		t.Fatalf("response must not echo key material: %s", rr.Body.String())
	}

	get := doJSON(t, h, "GET", "/api/keys", "")
	var configured map[string]bool
	_ = json.Unmarshal(get.Body.Bytes(), &configured)
	if !configured["mistral"] {
		t.Fatalf("mistral should be configured: %v", configured)
	}
	if configured["groq"] {
		t.Fatalf("groq should not be configured")
	}

	if rr := doJSON(t, h, "PUT", "/api/keys", `{"provider":"nope","key":"x"}`); rr.Code != 404 {
		t.Fatalf("unknown provider: want 404 got %d", rr.Code)
	}
}

func TestHandleStatus_ReturnsSnapshots(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	_ = s.Snapshots.Set(context.Background(), domain.StatusSnapshot{
		Key:      "groq:m",
		Provider: "groq",
		Model:    "m",
		Outcome:  domain.ProbeOutcome{Status: domain.StatusSuccess, LatencyMS: 10},
	})

	rr := doJSON(t, h, "GET", "/api/status", "")
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	var out []domain.StatusSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Key != "groq:m" {
		t.Fatalf("unexpected snapshots: %+v", out)
	}
}

func TestHandleVerdicts(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	s.Recorder.Record(domain.StatusSnapshot{
		Key:         "groq:m",
		Outcome:     domain.ProbeOutcome{Status: domain.StatusSuccess, LatencyMS: 100},
		LastChecked: time.Now().UTC(),
	})

	rr := doJSON(t, h, "GET", "/api/verdicts", "")
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"verdict"`) {
		t.Fatalf("expected verdict payload: %s", rr.Body.String())
	}
}

func TestHandleMonitor_StartStop(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	rr := doJSON(t, h, "POST", "/api/monitor/start", `{"provider":"groq"}`)
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	var st monitorState
	_ = json.Unmarshal(rr.Body.Bytes(), &st)
	if !st.Running || st.Filter.Provider != "groq" {
		t.Fatalf("unexpected state after start: %+v", st)
	}

	rr = doJSON(t, h, "POST", "/api/monitor/stop", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &st)
	if st.Running {
		t.Fatalf("monitor should be stopped: %+v", st)
	}
}

func TestHandleOpenCodeConfig_Subset(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	rr := doJSON(t, h, "GET", "/api/opencode-config?providers=groq", "")
	if rr.Code != 200 {
		t.Fatalf("want 200 got %d", rr.Code)
	}
	var out struct {
		Provider map[string]json.RawMessage `json:"provider"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Provider) != 1 {
		t.Fatalf("want only groq, got %v", out.Provider)
	}
}
