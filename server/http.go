// Package server exposes the debate engine over HTTP: the SSE debate
// stream, pacing control, history, configuration and engine diagnostics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yo2158/break/config"
	"github.com/yo2158/break/engine"
	"github.com/yo2158/break/history"
	"github.com/yo2158/break/llm"
	"github.com/yo2158/break/metrics"
	"github.com/yo2158/break/model"
	"github.com/yo2158/break/stream"
)

// maxRequestBodySize limits POST body sizes.
const maxRequestBodySize = 1 << 20 // 1 MB

// HistoryStore is the slice of the history layer the HTTP surface needs.
type HistoryStore interface {
	Get(ctx context.Context, id string) (*history.Record, error)
	List(ctx context.Context, limit, offset int) ([]history.Summary, int, error)
}

// Completer issues a single LLM call, used by the diagnostics endpoints.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Deps carries the server's collaborators.
type Deps struct {
	Config     *config.Config
	ConfigPath string
	Manager    *engine.Manager
	Bus        *stream.Bus
	History    HistoryStore
	Registry   *model.Registry
	LLM        Completer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Server is the HTTP surface of the debate engine.
type Server struct {
	mu        sync.RWMutex
	cfg       *config.Config
	cfgPath   string
	manager   *engine.Manager
	bus       *stream.Bus
	store     HistoryStore
	registry  *model.Registry
	llm       Completer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	heartbeat time.Duration
}

// New builds a Server from its dependencies.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       d.Config,
		cfgPath:   d.ConfigPath,
		manager:   d.Manager,
		bus:       d.Bus,
		store:     d.History,
		registry:  d.Registry,
		llm:       d.LLM,
		metrics:   d.Metrics,
		logger:    logger,
		heartbeat: 15 * time.Second,
	}
}

// ApplyConfig swaps the active configuration, used by the file watcher.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if s.registry != nil {
		for role, rc := range cfg.ModelRoles() {
			s.registry.SetRole(role, rc)
		}
	}
	s.logger.Info("configuration applied")
}

// RegisterHTTPHandlers registers all handlers under the given prefix.
// The prefix should be the path segment without a trailing slash
// (e.g. "api"). Handlers are registered as:
//
//	GET  <prefix>/debate          (SSE stream)
//	POST <prefix>/debate/advance
//	POST <prefix>/debate/abort
//	GET  <prefix>/history
//	GET  <prefix>/history/{id}
//	GET  <prefix>/config
//	POST <prefix>/config
//	POST <prefix>/test-engine
//	POST <prefix>/test-connection
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"debate", s.handleDebate)
	mux.HandleFunc(prefix+"debate/advance", s.handleAdvance)
	mux.HandleFunc(prefix+"debate/abort", s.handleAbort)
	mux.HandleFunc(prefix+"history", s.handleHistoryList)
	mux.HandleFunc(prefix+"history/", s.handleHistoryGet)
	mux.HandleFunc(prefix+"config", s.handleConfig)
	mux.HandleFunc(prefix+"test-engine", s.handleTestEngine)
	mux.HandleFunc(prefix+"test-connection", s.handleTestConnection)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.metrics.Handler())
}

// handleDebate starts a debate and streams its events as SSE. The client
// dropping the connection aborts the session.
func (s *Server) handleDebate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	topic := strings.TrimSpace(r.URL.Query().Get("topic"))

	// the subscription attaches before generation starts so the stream
	// never misses the first event
	var sub *stream.Subscription
	sess, err := s.manager.Start(topic, func(sess *engine.Session) error {
		var err error
		sub, err = s.bus.SubscribeEvents(sess.SID)
		return err
	})
	if err != nil {
		if engine.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to start debate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start debate")
		return
	}
	defer sub.Unsubscribe()

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.manager.Abort(sess.SID)
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.manager.Abort(sess.SID)
			return

		case <-ticker.C:
			// comment line keeps proxies from timing the stream out
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				s.manager.Abort(sess.SID)
				return
			}
			flusher.Flush()

		case ev, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("marshal event", "error", err)
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				s.manager.Abort(sess.SID)
				return
			}
			flusher.Flush()
		}
	}
}

type controlRequest struct {
	SID string `json:"sid"`
}

// handleAdvance releases the held judgment for the given session. Stale
// session IDs are acknowledged but do nothing.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.handleControl(w, r, s.manager.Advance, "advanced")
}

// handleAbort tears down the given session.
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	s.handleControl(w, r, s.manager.Abort, "aborted")
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request, action func(string) bool, key string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SID == "" {
		writeError(w, http.StatusBadRequest, "sid is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{key: action(req.SID)})
}

// handleHistoryList returns finished debates, newest first.
func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	items, total, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("history list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

// handleHistoryGet returns one full debate transcript.
func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if id == "" {
		writeError(w, http.StatusBadRequest, "debate id is required")
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "debate not found")
			return
		}
		s.logger.Error("history get failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load debate")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleConfig reads or replaces the engine configuration. Updates are
// validated, applied to the live model registry, and persisted when a
// config path is known.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		cfg := s.cfg
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, cfg)

	case http.MethodPost:
		updated := config.DefaultConfig()
		if err := decodeJSON(r, updated); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := updated.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.ApplyConfig(updated)
		if s.cfgPath != "" {
			if err := updated.SaveToFile(s.cfgPath); err != nil {
				s.logger.Error("failed to persist config", "error", err)
				writeError(w, http.StatusInternalServerError, "config applied but not persisted")
				return
			}
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type testEngineRequest struct {
	Role string `json:"role"`
}

type testResult struct {
	OK        bool   `json:"ok"`
	Model     string `json:"model,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// testPrompt is a minimal generation check that any working endpoint can
// answer quickly.
const testPrompt = "接続テストです。「OK」とだけ返答してください。"

// handleTestEngine runs a one-shot generation against a configured role.
func (s *Server) handleTestEngine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req testEngineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role := model.ParseRole(req.Role)
	if role == "" {
		writeError(w, http.StatusBadRequest, "unknown role: "+req.Role)
		return
	}

	s.runTest(r.Context(), w, s.llm, role)
}

// handleTestConnection runs a one-shot generation against an endpoint
// supplied in the request, without touching the saved configuration.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ep config.Endpoint
	if err := decodeJSON(r, &ep); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ep.Provider == "" || ep.Model == "" {
		writeError(w, http.StatusBadRequest, "provider and model are required")
		return
	}

	registry := model.NewRegistry(map[model.Role]model.RoleConfig{
		model.RoleJudge: {Primary: model.EndpointConfig{
			Provider:  ep.Provider,
			URL:       ep.URL,
			Model:     ep.Model,
			MaxTokens: ep.MaxTokens,
		}},
	})
	client := llm.NewClient(registry,
		llm.WithRetryConfig(llm.RetryConfig{
			MaxAttempts:       1,
			BackoffBase:       time.Second,
			BackoffMultiplier: 2,
			MaxBackoff:        time.Second,
		}),
		llm.WithLogger(s.logger))

	s.runTest(r.Context(), w, client, model.RoleJudge)
}

func (s *Server) runTest(ctx context.Context, w http.ResponseWriter, completer Completer, role model.Role) {
	testCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := completer.Complete(testCtx, llm.Request{
		Role:      role,
		Messages:  []llm.Message{{Role: "user", Content: testPrompt}},
		MaxTokens: 64,
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		writeJSON(w, http.StatusOK, testResult{OK: false, LatencyMS: latency, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, testResult{OK: true, Model: resp.Model, LatencyMS: latency})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, total, err := s.store.List(ctx, 1, 0); err != nil {
			resp["status"] = "degraded"
			resp["history"] = "unavailable"
		} else {
			resp["debate_count"] = total
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	return dec.Decode(v)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// response already partially written; nothing to do
		_ = err
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
