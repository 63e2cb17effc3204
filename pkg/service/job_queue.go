package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/codelf"
)

// MaxJobPages caps the number of result pages one lookup job may walk.
const MaxJobPages = 10

// ErrJobNotFound is returned by GetJob for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// LookupJobStatus represents the status of a lookup job.
type LookupJobStatus string

const (
	JobStatusQueued     LookupJobStatus = "queued"
	JobStatusProcessing LookupJobStatus = "processing"
	JobStatusCompleted  LookupJobStatus = "completed"
	JobStatusFailed     LookupJobStatus = "failed"
)

// JobRequest describes a multi-page variable lookup.
type JobRequest struct {
	// RequestID is an optional client-provided identifier.
	RequestID string   `json:"request_id,omitempty"`
	Query     string   `json:"query"`
	Lang      []string `json:"lang,omitempty"`
	// Page is the first page to fetch. Defaults to 1.
	Page int `json:"page,omitempty"`
	// Pages is the number of consecutive pages to fetch. Defaults to 1.
	Pages int `json:"pages,omitempty"`
}

// LookupJob represents an asynchronous multi-page variable lookup.
type LookupJob struct {
	ID        string
	RequestID string
	CreatedAt time.Time

	// Request data
	Query string
	Lang  []string
	Page  int
	Pages int

	mu              sync.RWMutex
	status          LookupJobStatus
	startedAt       *time.Time
	completedAt     *time.Time
	err             string
	pagesDone       int
	progressPercent int32
	progressMessage string
	result          *codelf.VariableResult
}

// JobSnapshot is a point-in-time copy of a job, shaped for JSON.
type JobSnapshot struct {
	JobID           string                 `json:"job_id"`
	RequestID       string                 `json:"request_id,omitempty"`
	Status          string                 `json:"status"`
	Query           string                 `json:"query"`
	Lang            []string               `json:"lang"`
	Page            int                    `json:"page"`
	Pages           int                    `json:"pages"`
	PagesDone       int                    `json:"pages_done"`
	ProgressPercent int32                  `json:"progress_percent"`
	ProgressMessage string                 `json:"progress_message"`
	CreatedAt       string                 `json:"created_at"`
	StartedAt       string                 `json:"started_at,omitempty"`
	CompletedAt     string                 `json:"completed_at,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Result          *codelf.VariableResult `json:"result,omitempty"`
}

// JobQueue manages asynchronous lookup jobs.
type JobQueue struct {
	jobs      map[string]*LookupJob
	jobsMu    sync.RWMutex
	logger    *logrus.Logger
	processor *JobProcessor
}

// NewJobQueue creates a new job queue.
func NewJobQueue(logger *logrus.Logger) *JobQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &JobQueue{
		jobs:   make(map[string]*LookupJob),
		logger: logger,
	}
}

// SetProcessor sets the job processor for this queue.
func (q *JobQueue) SetProcessor(processor *JobProcessor) {
	q.processor = processor
}

// CreateJob validates req, stores a new job and returns its ID. Processing
// starts in the background when a processor is set.
func (q *JobQueue) CreateJob(req JobRequest) (string, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Pages <= 0 {
		req.Pages = 1
	}
	if req.Pages > MaxJobPages {
		return "", fmt.Errorf("pages must be at most %d, got %d", MaxJobPages, req.Pages)
	}

	jobID := uuid.New().String()
	job := &LookupJob{
		ID:        jobID,
		RequestID: req.RequestID,
		CreatedAt: time.Now(),
		Query:     query,
		Lang:      append([]string{}, req.Lang...),
		Page:      req.Page,
		Pages:     req.Pages,
		status:    JobStatusQueued,
	}

	q.jobsMu.Lock()
	q.jobs[jobID] = job
	q.jobsMu.Unlock()
	recordJob(JobStatusQueued)

	q.logger.WithFields(logrus.Fields{
		"job_id":     jobID,
		"request_id": req.RequestID,
		"query":      query,
		"pages":      req.Pages,
	}).Info("Created lookup job")

	if q.processor != nil {
		go q.processor.ProcessJob(job)
	}

	return jobID, nil
}

// GetJob retrieves a job by ID.
func (q *JobQueue) GetJob(jobID string) (*LookupJob, error) {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()

	job, exists := q.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// Len returns the number of tracked jobs.
func (q *JobQueue) Len() int {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()
	return len(q.jobs)
}

// UpdateStatus updates the status of a job.
func (j *LookupJob) UpdateStatus(status LookupJobStatus, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.status = status
	j.progressMessage = message

	now := time.Now()
	switch status {
	case JobStatusProcessing:
		if j.startedAt == nil {
			j.startedAt = &now
		}
	case JobStatusCompleted, JobStatusFailed:
		if j.completedAt == nil {
			j.completedAt = &now
		}
	}
}

// UpdateProgress records that pagesDone pages are finished.
func (j *LookupJob) UpdateProgress(pagesDone int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.pagesDone = pagesDone
	j.progressPercent = int32(pagesDone * 100 / j.Pages)
	j.progressMessage = message
}

// SetError marks the job failed.
func (j *LookupJob) SetError(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.err = err.Error()
	j.status = JobStatusFailed
	now := time.Now()
	j.completedAt = &now
}

// SetResult stores the merged result and marks the job completed.
func (j *LookupJob) SetResult(res *codelf.VariableResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.result = res
	j.status = JobStatusCompleted
	now := time.Now()
	j.completedAt = &now
	j.progressPercent = 100
}

// GetStatus returns the job status, progress message and percent.
func (j *LookupJob) GetStatus() (LookupJobStatus, string, int32) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.status, j.progressMessage, j.progressPercent
}

// Done reports whether the job reached a terminal status.
func (j *LookupJob) Done() bool {
	status, _, _ := j.GetStatus()
	return status == JobStatusCompleted || status == JobStatusFailed
}

// Snapshot returns a copy of the job. The result is only set once the job
// completed.
func (j *LookupJob) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snap := JobSnapshot{
		JobID:           j.ID,
		RequestID:       j.RequestID,
		Status:          string(j.status),
		Query:           j.Query,
		Lang:            j.Lang,
		Page:            j.Page,
		Pages:           j.Pages,
		PagesDone:       j.pagesDone,
		ProgressPercent: j.progressPercent,
		ProgressMessage: j.progressMessage,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
		Error:           j.err,
	}
	if j.startedAt != nil {
		snap.StartedAt = j.startedAt.Format(time.RFC3339)
	}
	if j.completedAt != nil {
		snap.CompletedAt = j.completedAt.Format(time.RFC3339)
	}
	if j.status == JobStatusCompleted {
		snap.Result = j.result
	}
	return snap
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (q *JobQueue) CleanupOldJobs(maxAge time.Duration) int {
	q.jobsMu.Lock()
	defer q.jobsMu.Unlock()

	now := time.Now()
	removed := 0

	for id, job := range q.jobs {
		job.mu.RLock()
		finished := job.status == JobStatusCompleted || job.status == JobStatusFailed
		old := job.completedAt != nil && now.Sub(*job.completedAt) > maxAge
		job.mu.RUnlock()

		if finished && old {
			delete(q.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		q.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(q.jobs),
		}).Info("Cleaned up old lookup jobs")
	}
	return removed
}
