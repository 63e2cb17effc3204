package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/codelf"
	"github.com/dasmlab/codelf/pkg/service"
)

// DefaultPollInterval is how often the SSE endpoint checks job progress.
const DefaultPollInterval = time.Second

// HTTPServer provides the variable lookup API, lookup job status with SSE
// progress, health and metrics endpoints.
type HTTPServer struct {
	requester    service.VariableRequester
	jobQueue     *service.JobQueue
	logger       *logrus.Logger
	port         int
	pollInterval time.Duration
	srv          *http.Server
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(requester service.VariableRequester, jobQueue *service.JobQueue, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	s := &HTTPServer{
		requester:    requester,
		jobQueue:     jobQueue,
		logger:       logger,
		port:         port,
		pollInterval: DefaultPollInterval,
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/variables", s.handleVariables)
	mux.HandleFunc("POST /api/v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /api/v1/jobs/{id}/events", s.handleJobEvents)

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleVariables answers GET /api/v1/variables?q=&page=&lang=.
func (s *HTTPServer) handleVariables(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	opt := codelf.QueryOption{
		Query: values.Get("q"),
		Lang:  splitLangs(values["lang"]),
	}
	if p := values.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid page %q", p))
			return
		}
		opt.Page = page
	}

	res, err := s.requester.RequestVariable(r.Context(), opt)
	if err != nil {
		if errors.Is(err, codelf.ErrNoTranslator) {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.WithError(err).Error("Variable request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleCreateJob queues a lookup job from a JSON service.JobRequest.
func (s *HTTPServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req service.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	jobID, err := s.jobQueue.CreateJob(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// handleJobStatus returns the current state of a lookup job as JSON.
func (s *HTTPServer) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobQueue.GetJob(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobEvents streams job progress as Server-Sent Events until the job
// finishes or the client disconnects.
func (s *HTTPServer) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobQueue.GetJob(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	// Set up SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	snap := job.Snapshot()
	s.sendSSEEvent(w, "status", snap)
	if job.Done() {
		return
	}
	lastStatus, lastProgress := snap.Status, snap.ProgressPercent

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client disconnected
			return
		case <-ticker.C:
			snap := job.Snapshot()
			if snap.Status == lastStatus && snap.ProgressPercent == lastProgress {
				continue
			}
			s.sendSSEEvent(w, "status", snap)
			lastStatus, lastProgress = snap.Status, snap.ProgressPercent

			if snap.Status == string(service.JobStatusCompleted) || snap.Status == string(service.JobStatusFailed) {
				return
			}
		}
	}
}

// sendSSEEvent writes one event: <type>\ndata: <json>\n\n frame.
func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, snap service.JobSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal SSE event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", data)

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// handleHealth provides a health check endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

// splitLangs accepts both repeated and comma-separated lang parameters.
func splitLangs(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, lang := range strings.Split(v, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				out = append(out, lang)
			}
		}
	}
	return out
}
