package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"factcheck/internal/api"
	"factcheck/internal/cache"
	"factcheck/internal/config"
	"factcheck/internal/logging"
	"factcheck/internal/pipeline"
	"factcheck/internal/services"
	"factcheck/internal/status"
)

const maxSubmitBody = 16 << 10

type submitter interface {
	Submit(ctx context.Context, owner, sourceURL string) (pipeline.Result, error)
}

type poller interface {
	Poll(ctx context.Context, owner string) (status.Snapshot, error)
}

type resultReader interface {
	Resolve(ctx context.Context, code string) (*cache.Result, error)
	Recent(ctx context.Context, limit int) ([]cache.Result, error)
	All(ctx context.Context) ([]cache.Result, error)
}

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	pipeline submitter
	status   poller
	results  resultReader
	shareURL func(string) string
	guard    *guard

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Server.Bind),
		logger:   logger,
		daemon:   d,
		pipeline: d.runtime.Orchestrator,
		status:   d.runtime.Tracker,
		results:  d.runtime.Cache,
		shareURL: cfg.ShareURL,
		guard:    newGuard(cfg.Server.Secret, cfg.Server.RequestsPerSecond, cfg.Server.Burst),
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Submissions block for the whole download, transcription, and
		// analysis run.
		WriteTimeout: 20 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/submit", s.requireToken(s.handleSubmit))
	mux.HandleFunc("GET /api/status", s.requireToken(s.handleStatus))
	mux.HandleFunc("GET /api/token", s.handleToken)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("GET /api/results/{code}", s.handleResult)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /s/{code}", s.handleSharePage)
	return s.withRequestID(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), rid)))
	})
}

func (s *apiServer) handleToken(w http.ResponseWriter, r *http.Request) {
	owner := s.guard.owner(w, r)
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, http.StatusOK, api.TokenResponse{Token: s.guard.token(owner)})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request, owner string) {
	if !s.guard.allow(owner) {
		w.Header().Set("Retry-After", "1")
		s.writeError(w, http.StatusTooManyRequests, "too many submissions; slow down")
		return
	}
	var req api.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	// A client disconnect must not abandon a half-finished run.
	ctx := context.WithoutCancel(r.Context())
	result, err := s.pipeline.Submit(ctx, owner, req.URL)
	if err != nil {
		code, body := api.FromError(err)
		s.writeJSON(w, code, body)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPipelineResult(result))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request, owner string) {
	snap, err := s.status.Poll(r.Context(), owner)
	if err != nil {
		s.log().Warn("status poll failed", logging.Error(err))
	}
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(snap))
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	row, err := s.results.Resolve(r.Context(), r.PathValue("code"))
	if err != nil {
		s.log().Error("resolve result failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	if row == nil {
		s.writeError(w, http.StatusNotFound, "result not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResultResponse{Result: api.FromCacheResult(*row, s.shareURL, true)})
}

func (s *apiServer) handleResults(w http.ResponseWriter, r *http.Request) {
	var (
		rows []cache.Result
		err  error
	)
	switch raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw {
	case "":
		rows, err = s.results.Recent(r.Context(), cache.DefaultRecentLimit)
	case "all":
		rows, err = s.results.All(r.Context())
	default:
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		rows, err = s.results.Recent(r.Context(), limit)
	}
	if err != nil {
		s.log().Error("list results failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResultListResponse{Results: api.FromCacheResults(rows, s.shareURL)})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(st.Dependencies))
	for i, dep := range st.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Running:      st.Running,
		PID:          st.PID,
		CacheDriver:  st.CacheDriver,
		LockFilePath: st.LockFilePath,
		Dependencies: deps,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
