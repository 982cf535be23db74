package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/testpulse/dashboard/internal/charts"
	"github.com/testpulse/dashboard/internal/dashboard"
	"github.com/testpulse/dashboard/internal/database"
	"github.com/testpulse/dashboard/internal/filter"
	"github.com/testpulse/dashboard/internal/notify"
	"github.com/testpulse/dashboard/internal/settings"
	"github.com/testpulse/dashboard/internal/telemetry"
	"github.com/testpulse/dashboard/internal/viewstate"
)

const trendPoints = 50

// healthChecker is implemented by clients that can report backend health.
type healthChecker interface {
	Health(ctx context.Context) error
}

type Server struct {
	api       telemetry.Client
	dash      *dashboard.Dashboard
	snapshots database.SnapshotStore
	prefs     settings.Provider
	events    *notify.Recorder
	notifier  notify.Notifier
	charts    *charts.Generator
	onChange  func(key, value string)
}

// NewServer wires the HTTP surface. events may be nil, in which case
// notifications are only logged.
func NewServer(api telemetry.Client, dash *dashboard.Dashboard, snapshots database.SnapshotStore, prefs settings.Provider, events *notify.Recorder) *Server {
	if prefs == nil {
		prefs = settings.NewMemory(nil)
	}
	if snapshots == nil {
		snapshots = database.NewMockDatabase()
	}
	n := notify.Notifier(notify.Log{})
	if events != nil {
		n = notify.Multi(notify.Log{}, events)
	}
	return &Server{
		api:       api,
		dash:      dash,
		snapshots: snapshots,
		prefs:     prefs,
		events:    events,
		notifier:  n,
		charts:    charts.NewGenerator(),
	}
}

// OnSettingChange registers fn to run after a setting is stored through the
// API.
func (s *Server) OnSettingChange(fn func(key, value string)) {
	s.onChange = fn
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	// API routes
	r.Get("/api/dashboard", s.handleDashboard)
	r.Post("/api/refresh", s.handleRefresh)
	r.Get("/api/results", s.handleResults)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/executions/{id}", s.handleExecutionDetail)
	r.Get("/api/settings", s.handleListSettings)
	r.Put("/api/settings/{key}", s.handleUpdateSetting)
	r.Get("/api/notifications", s.handleNotifications)

	// Chart fragments
	r.Get("/charts/status", s.handleStatusChart)
	r.Get("/charts/suites", s.handleSuiteChart)
	r.Get("/charts/trend", s.handleTrendChart)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("server: failed to encode response", "error", err)
	}
}

func writeHTML(w http.ResponseWriter, body string) {
	if body == "" {
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// dashboardState returns the current overview, refreshing once if nothing
// has been loaded yet.
func (s *Server) dashboardState(ctx context.Context) dashboard.State {
	st := s.dash.State()
	if st.Loaded {
		return st
	}
	if err := s.dash.Refresh(ctx); err != nil {
		slog.Warn("server: initial refresh failed", "error", err)
	}
	return s.dash.State()
}

func (s *Server) passRates(ctx context.Context) []float64 {
	snaps, err := s.snapshots.RecentSnapshots(ctx, trendPoints)
	if err != nil {
		slog.Warn("server: failed to load snapshots", "error", err)
		return nil
	}
	out := make([]float64, len(snaps))
	for i, snap := range snaps {
		out[i] = snap.PassRate
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if hc, ok := s.api.(healthChecker); ok {
		if err := hc.Health(r.Context()); err != nil {
			resp["backend"] = "unreachable"
		} else {
			resp["backend"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type dashboardResponse struct {
	dashboard.State
	PassRate  string `json:"passRateLabel"`
	Sparkline string `json:"passRateSparkline,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := s.dashboardState(r.Context())
	writeJSON(w, http.StatusOK, dashboardResponse{
		State:     st,
		PassRate:  st.Stats.FormatPassRate(),
		Sparkline: s.charts.Sparkline(s.passRates(r.Context())),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.ManualRefresh(r.Context()); err != nil {
		slog.Warn("server: manual refresh failed", "error", err)
		http.Error(w, "Refresh unavailable", http.StatusServiceUnavailable)
		return
	}
	st := s.dash.State()
	writeJSON(w, http.StatusOK, dashboardResponse{State: st, PassRate: st.Stats.FormatPassRate()})
}

type resultsResponse struct {
	Query     filter.Query             `json:"query"`
	Link      string                   `json:"link"`
	Results   []telemetry.TestResult   `json:"results"`
	Summary   telemetry.DashboardStats `json:"summary"`
	Breakdown []telemetry.SuiteCount   `json:"breakdown"`
	Suites    []string                 `json:"suites"`
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	loc := viewstate.NewMemoryLocation(r.URL.RawQuery)
	page := dashboard.NewResults(s.api, loc, s.notifier)
	defer page.Close()

	if err := page.Load(r.Context()); err != nil {
		slog.Debug("server: results load abandoned", "error", err)
		return
	}

	link := page.Sync().Link(r.URL.Path)
	if viewstate.Encode(page.Query()) != r.URL.RawQuery {
		w.Header().Set("Content-Location", link)
	}

	suites := page.Suites()
	if suites == nil {
		suites = []string{}
	}
	writeJSON(w, http.StatusOK, resultsResponse{
		Query:     page.Query(),
		Link:      link,
		Results:   page.View(),
		Summary:   page.Summary(),
		Breakdown: page.Breakdown(),
		Suites:    suites,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.History(r.Context(), s.api))
}

func (s *Server) handleExecutionDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := s.api.FetchExecutionDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, telemetry.ErrNotFound) {
			http.Error(w, "Execution not found", http.StatusNotFound)
			return
		}
		slog.Error("server: failed to load execution", "id", id, "error", err)
		http.Error(w, "Failed to load execution", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string, len(settings.Keys))
	for _, key := range settings.Keys {
		if v, ok := s.prefs.Get(key); ok {
			out[key] = v
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !settings.Known(key) {
		http.Error(w, "Unknown setting", http.StatusNotFound)
		return
	}

	var req struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.prefs.Set(key, *req.Value); err != nil {
		slog.Error("server: failed to store setting", "key", key, "error", err)
		http.Error(w, "Failed to store setting", http.StatusInternalServerError)
		return
	}
	if s.onChange != nil {
		s.onChange(key, *req.Value)
	}
	writeJSON(w, http.StatusOK, map[string]string{key: *req.Value})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	events := []notify.Event{}
	if s.events != nil {
		events = s.events.Events()
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStatusChart(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, s.charts.StatusChart(s.dashboardState(r.Context()).Stats))
}

func (s *Server) handleSuiteChart(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, s.charts.SuiteChart(s.dashboardState(r.Context()).Suites))
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshots.RecentSnapshots(r.Context(), trendPoints)
	if err != nil {
		slog.Error("server: failed to load snapshots", "error", err)
		http.Error(w, "Failed to load trend", http.StatusInternalServerError)
		return
	}
	writeHTML(w, s.charts.TrendChart(snaps))
}
