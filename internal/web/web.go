package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"chagimcal/internal/app"
	"chagimcal/internal/config"
	appLog "chagimcal/internal/log"
	"chagimcal/internal/model"
)

const resultCacheTTL = 10 * time.Minute

// Runner is the pipeline the server exposes.
type Runner interface {
	Run(ctx context.Context, location string) (*app.Result, error)
}

// Server provides the HTTP API over the latest conflict computation.
type Server struct {
	cfg    *config.Config
	runner Runner
	mux    *http.ServeMux
	now    func() time.Time

	// In-memory cache of the last successful run, refreshed on demand
	// or by the cron schedule in cmd/chagimcal.
	resultMu    sync.RWMutex
	resultCache *resultCache
}

type resultCache struct {
	result    *app.Result
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, runner Runner) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="chagimcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Refresh runs the pipeline and replaces the cached result.
func (s *Server) Refresh(ctx context.Context) (*app.Result, error) {
	res, err := s.runner.Run(ctx, s.cfg.Schedule)
	if err != nil {
		return nil, err
	}
	s.resultMu.Lock()
	s.resultCache = &resultCache{result: res, updatedAt: s.now()}
	s.resultMu.Unlock()
	return res, nil
}

// current returns the cached result, refreshing it when stale or when the
// caller forces it.
func (s *Server) current(ctx context.Context, force bool) (*app.Result, error) {
	s.resultMu.RLock()
	rc := s.resultCache
	s.resultMu.RUnlock()
	if !force && rc != nil && s.now().Sub(rc.updatedAt) < resultCacheTTL {
		return rc.result, nil
	}
	return s.Refresh(ctx)
}

// conflictsResponse is the JSON response shape for /api/conflicts.
type conflictsResponse struct {
	*app.Result
	DisplayTimeZone string `json:"display_timezone"`
}

// handleConflicts returns the latest conflicts.
//
// GET /api/conflicts?refresh=1
//   - refresh: recompute instead of serving the cached run
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := s.current(r.Context(), r.URL.Query().Get("refresh") == "1")
	if err != nil {
		appLog.Error("api conflicts: run failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := *res
	if out.Conflicts == nil {
		out.Conflicts = []model.Conflict{}
	}
	writeJSON(w, http.StatusOK, conflictsResponse{Result: &out, DisplayTimeZone: s.cfg.Timezone})
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	FirstDate model.Date  `json:"first_date"`
	LastDate  model.Date  `json:"last_date"`
	Courses   []courseDTO `json:"courses"`
}

// courseDTO is a JSON-friendly view of both course kinds.
type courseDTO struct {
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Days      string          `json:"days,omitempty"`
	StartTime string          `json:"start_time,omitempty"`
	EndTime   string          `json:"end_time,omitempty"`
	FirstDate model.Date      `json:"first_date"`
	LastDate  model.Date      `json:"last_date"`
	Meeting   *model.Interval `json:"meeting,omitempty"`
}

func toCourseDTO(c model.Course) courseDTO {
	dto := courseDTO{Name: c.Name(), FirstDate: c.FirstDate(), LastDate: c.LastDate()}
	switch v := c.(type) {
	case *model.Weekly:
		dto.Kind = "weekly"
		dto.Days = v.Days.String()
		dto.StartTime = v.StartTime.String()
		dto.EndTime = v.EndTime.String()
	case *model.Singleton:
		dto.Kind = "single"
		iv := v.Interval
		dto.Meeting = &iv
	}
	return dto
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := s.current(r.Context(), false)
	if err != nil {
		appLog.Error("api schedule: run failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sched := res.Schedule
	resp := scheduleResponse{
		FirstDate: sched.FirstDate,
		LastDate:  sched.LastDate,
		Courses:   make([]courseDTO, 0, len(sched.Courses)),
	}
	for _, c := range sched.Courses {
		resp.Courses = append(resp.Courses, toCourseDTO(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
