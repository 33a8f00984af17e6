// Package server is the HTTP + WebSocket API surface for Acesso: starting
// audit jobs, reading stored audits and violations, comparing audits and
// streaming job progress.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/acesso/internal/audit"
	"github.com/raysh454/acesso/internal/compare"
	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/logging"
	"github.com/raysh454/acesso/internal/model"
)

type Server struct {
	cfg          Config
	orchestrator *audit.Orchestrator
	store        interfaces.Store
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       interfaces.Logger
}

func NewServer(cfg Config, orch *audit.Orchestrator, st interfaces.Store) (*Server, error) {
	if orch == nil {
		return nil, errors.New("server requires an orchestrator")
	}
	if st == nil {
		return nil, errors.New("server requires a store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		store:        st,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/audits", s.optionsHandler("GET, POST"))
	r.Options("/audits/{auditID}", s.optionsHandler("GET"))
	r.Options("/audits/{auditID}/violations", s.optionsHandler("GET"))
	r.Options("/audits/{auditID}/compare/{previousID}", s.optionsHandler("GET"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	r.Post("/audits", s.handleStartAudit)
	r.Get("/audits", s.handleListAudits)
	r.Get("/audits/{auditID}", s.handleGetAudit)
	r.Get("/audits/{auditID}/violations", s.handleGetViolations)
	r.Get("/audits/{auditID}/compare/{previousID}", s.handleCompareAudits)

	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	r.Get("/ws/jobs/{jobID}", s.handleJobWS)

	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []interfaces.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, interfaces.Field{Key: "query", Value: q})
	}
	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, interfaces.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Audits ---

// handleStartAudit godoc
// @Summary Start an accessibility audit
// @Accept json
// @Produce json
// @Param request body model.AuditRequest true "audit request"
// @Success 202 {object} audit.Job
// @Router /audits [post]
func (s *Server) handleStartAudit(w http.ResponseWriter, r *http.Request) {
	var req model.AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.orchestrator.StartAudit(r.Context(), req)
	if err != nil {
		s.logger.Warn("starting audit", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("started audit job",
		interfaces.Field{Key: "job_id", Value: job.ID},
		interfaces.Field{Key: "site", Value: req.Site})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	site := r.URL.Query().Get("site")
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	audits, err := s.store.ListAudits(r.Context(), site, limit)
	if err != nil {
		s.logger.Warn("listing audits", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if audits == nil {
		audits = []model.Audit{}
	}
	writeJSON(w, http.StatusOK, audits)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "auditID")
	a, err := s.store.GetAudit(r.Context(), auditID)
	if err != nil {
		if errors.Is(err, interfaces.ErrAuditNotFound) {
			writeError(w, http.StatusNotFound, "audit not found")
			return
		}
		s.logger.Warn("getting audit", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetViolations(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "auditID")
	if _, err := s.store.GetAudit(r.Context(), auditID); err != nil {
		if errors.Is(err, interfaces.ErrAuditNotFound) {
			writeError(w, http.StatusNotFound, "audit not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	violations, err := s.store.GetViolations(r.Context(), auditID)
	if err != nil {
		s.logger.Warn("getting violations", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if violations == nil {
		violations = []model.AggregatedViolation{}
	}
	writeJSON(w, http.StatusOK, violations)
}

// comparisonResponse wraps the diff with its derived insights. When no
// comparison is possible the comparison field is null and the message says
// why.
type comparisonResponse struct {
	Comparison *model.ComparisonResult `json:"comparison"`
	Insights   []model.Insight         `json:"insights,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

func (s *Server) handleCompareAudits(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "auditID")
	previousID := chi.URLParam(r, "previousID")

	current, err := s.loadAuditOr404(w, r, auditID)
	if err != nil {
		return
	}
	previous, err := s.loadAuditOr404(w, r, previousID)
	if err != nil {
		return
	}

	curViol, err := s.store.GetViolations(r.Context(), auditID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	prevViol, err := s.store.GetViolations(r.Context(), previousID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := compare.Compare(current, previous, curViol, prevViol)
	if result == nil {
		writeJSON(w, http.StatusOK, comparisonResponse{
			Message: "no comparison available",
		})
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse{
		Comparison: result,
		Insights:   compare.Insights(result),
	})
}

// loadAuditOr404 fetches an audit, writing the error response itself when it
// fails.
func (s *Server) loadAuditOr404(w http.ResponseWriter, r *http.Request, auditID string) (*model.Audit, error) {
	a, err := s.store.GetAudit(r.Context(), auditID)
	if err == nil {
		return a, nil
	}
	if errors.Is(err, interfaces.ErrAuditNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("audit %s not found", auditID))
	} else {
		s.logger.Warn("getting audit", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return nil, err
}

// --- Jobs ---

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.ListJobs())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.CancelJob(jobID) {
		writeError(w, http.StatusNotFound, "job not found or already finished")
		return
	}
	s.logger.Info("canceled job", interfaces.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleJobWS streams a job's events over a websocket until the job ends or
// the client goes away.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", interfaces.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	// Current state first so late subscribers see where the job stands.
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Client disconnected; the job keeps running.
			return
		}
	}
}
