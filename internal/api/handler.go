// Package api provides the HTTP API server for the cycler queue
// service. Job snapshots are served from storage; submissions,
// cancellations and detailed-info queries go to the scheduler backend.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/battlab/cycler-queue-service/internal/domain"
	"github.com/battlab/cycler-queue-service/internal/metrics"
	"github.com/battlab/cycler-queue-service/internal/results"
	"github.com/battlab/cycler-queue-service/internal/scheduler"
	"github.com/battlab/cycler-queue-service/internal/storage"
	"github.com/battlab/cycler-queue-service/internal/tomato"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const version = "1.0.0"

// Server wires the HTTP endpoints to storage and the scheduler.
type Server struct {
	store    storage.Store
	source   scheduler.JobSource
	exporter *metrics.Exporter
	log      *zap.Logger
}

// NewServer creates a new API server. A nil logger disables logging.
func NewServer(store storage.Store, source scheduler.JobSource, exporter *metrics.Exporter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:    store,
		source:   source,
		exporter: exporter,
		log:      log,
	}
}

// Routes returns an HTTP handler with all API routes configured.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", s.handleHealth)

	mux.HandleFunc("GET /v1/jobs", s.handleListJobs)
	mux.HandleFunc("POST /v1/jobs", s.handleSubmitJob)
	mux.HandleFunc("GET /v1/jobs/{jobId}", s.handleGetJob)
	mux.HandleFunc("DELETE /v1/jobs/{jobId}", s.handleCancelJob)
	mux.HandleFunc("GET /v1/jobs/{jobId}/info", s.handleJobInfo)

	mux.HandleFunc("POST /v1/analysis", s.handleAnalysis)

	if s.exporter != nil {
		mux.Handle("GET /metrics", s.exporter.Handler())
	}

	return s.withMiddleware(mux)
}

// withMiddleware attaches a request id and access logging.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   version,
		"scheduler": s.source.Type(),
		"timestamp": time.Now(),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := domain.JobFilter{Limit: 100}

	q := r.URL.Query()
	if v := q.Get("state"); v != "" {
		state := domain.JobState(v)
		if !state.IsValid() {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "unknown state: "+v)
			return
		}
		filter.State = &state
	}
	if v := q.Get("pipeline"); v != "" {
		filter.Pipeline = &v
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	jobs, total, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"jobs":   jobs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

type submitJobRequest struct {
	JobName string                 `json:"job_name"`
	Payload *domain.CyclingPayload `json:"payload"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return
	}

	jobID, err := s.source.Submit(r.Context(), scheduler.SubmitRequest{
		JobName: req.JobName,
		Payload: req.Payload,
	})
	if err != nil {
		s.writeSchedulerError(w, err)
		return
	}

	now := time.Now()
	job := &domain.Job{
		ID:         jobID,
		State:      domain.JobStateQueued,
		JobName:    req.JobName,
		Scheduler:  s.source.Type(),
		SubmitTime: &now,
		LastSeenAt: now,
	}
	if req.Payload != nil {
		job.SampleName = req.Payload.Sample.Name
	}
	if err := s.store.UpsertJob(r.Context(), job); err != nil {
		// The job is submitted either way; the snapshot will appear on
		// the next sync.
		s.log.Warn("failed to store submitted job snapshot",
			zap.String("job_id", jobID), zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{"id": jobID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")

	job, err := s.store.GetJob(r.Context(), id)
	if errors.Is(err, domain.ErrJobNotFound) {
		s.writeError(w, http.StatusNotFound, "not_found", "job not found: "+id)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")

	ok, err := s.source.Cancel(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "scheduler_error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "cancelled": ok})
}

func (s *Server) handleJobInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")

	info, err := s.source.DetailedInfo(r.Context(), id)
	if err != nil {
		s.writeSchedulerError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "info": info})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	opts := results.DefaultAnalysisOptions()

	q := r.URL.Query()
	if v := q.Get("threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil || threshold <= 0 || threshold > 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "threshold must be in (0, 1]")
			return
		}
		opts.Threshold = threshold
	}
	if v := q.Get("consecutive_cycles"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "consecutive_cycles must be a positive integer")
			return
		}
		opts.ConsecutiveCycles = n
	}
	if v := q.Get("discharge"); v != "" {
		discharge, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "discharge must be a boolean")
			return
		}
		opts.Discharge = discharge
	}

	data, err := results.ParseRaw(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	analysis, err := results.Analyze(data, opts)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid_data", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// writeSchedulerError maps adapter errors onto HTTP statuses: caller
// mistakes are 4xx, scheduler-side failures are 502.
func (s *Server) writeSchedulerError(w http.ResponseWriter, err error) {
	var validationErr *tomato.ValidationError
	switch {
	case errors.Is(err, tomato.ErrMissingPayload), errors.As(err, &validationErr),
		errors.Is(err, tomato.ErrUnsupportedQuery):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, "scheduler_error", err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{"error": code, "message": message})
}
