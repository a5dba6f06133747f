package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/subimgmatch/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      store.Store
	addr       string
	server     *http.Server

	// baseCtx is the parent of every job context; cancelling it on shutdown
	// stops running scans.
	baseCtx  context.Context
	stopJobs context.CancelFunc
}

// NewServer creates a new HTTP server. resultStore may be nil, in which
// case finished jobs are kept in memory only.
func NewServer(addr string, resultStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		store:      resultStore,
		addr:       addr,
		baseCtx:    ctx,
		stopJobs:   cancel,
	}
}

// Handler returns the routed and wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register UI routes
	mux.HandleFunc("/", s.handleIndex)

	// Register API routes
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/results", s.handleListResults)
	mux.HandleFunc("/api/v1/results/", s.handleResultWithID)

	// Wrap with middleware
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.stopJobs()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	// Parse job ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if len(parts) == 1 && r.Method == http.MethodDelete {
		s.handleDeleteJob(w, r, jobID)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Route based on subpath
	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetJobStatus(w, r, jobID)
	} else if parts[1] == "stream" {
		s.handleJobStream(w, r, jobID)
	} else if parts[1] == "overlay.png" {
		s.handleGetOverlay(w, r, jobID)
	} else if parts[1] == "trace" {
		s.handleGetTrace(w, r, jobID)
	} else {
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if msg := validateConfig(config); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(config)

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.jobManager.UpdateJob(job.ID, func(j *Job) {
		j.cancel = cancel
	})

	// Start worker in background
	go func() {
		defer cancel()
		runJob(ctx, s.jobManager, s.store, job.ID)
	}()

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	progress := float64(0)
	if job.RowsTotal > 0 {
		progress = float64(job.RowsDone) / float64(job.RowsTotal)
	}

	response := map[string]interface{}{
		"id":        job.ID,
		"state":     job.State,
		"config":    job.Config,
		"result":    job.Result,
		"rowsDone":  job.RowsDone,
		"rowsTotal": job.RowsTotal,
		"progress":  progress,
		"elapsed":   elapsed.Seconds(),
		"startTime": job.StartTime,
		"endTime":   job.EndTime,
		"error":     job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleDeleteJob handles DELETE /api/v1/jobs/:id. A running job is
// cancelled; a finished job is forgotten together with its stored result.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	if !job.State.Terminal() {
		if err := s.jobManager.CancelJob(jobID); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		slog.Info("Job cancellation requested", "job_id", jobID)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if s.store != nil {
		if err := s.store.DeleteResult(jobID); err != nil && !errors.Is(err, store.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Failed to delete result: %v", err), http.StatusInternalServerError)
			return
		}
	}
	if err := s.jobManager.RemoveJob(jobID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetOverlay handles GET /api/v1/jobs/:id/overlay.png
func (s *Server) handleGetOverlay(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if exists && job.Result == nil {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}
	if s.store == nil {
		http.Error(w, "No result store configured", http.StatusNotFound)
		return
	}

	dir, err := s.store.JobDir(jobID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	data, err := os.ReadFile(filepath.Join(dir, "overlay.png"))
	if os.IsNotExist(err) {
		http.Error(w, "Overlay not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read overlay: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write PNG", "error", err)
	}
}

// handleGetTrace handles GET /api/v1/jobs/:id/trace
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if s.store == nil {
		http.Error(w, "No result store configured", http.StatusNotFound)
		return
	}
	dir, err := s.store.JobDir(jobID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	entries, err := store.ReadTrace(dir)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleListResults handles GET /api/v1/results
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []store.RecordInfo{})
		return
	}
	infos, err := s.store.ListResults()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleResultWithID handles GET and DELETE /api/v1/results/:id
func (s *Server) handleResultWithID(w http.ResponseWriter, r *http.Request) {
	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/results/"), "/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.Error(w, "Result ID required", http.StatusBadRequest)
		return
	}
	if s.store == nil {
		http.Error(w, "No result store configured", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := s.store.LoadResult(jobID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, record)
	case http.MethodDelete:
		if err := s.store.DeleteResult(jobID); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
