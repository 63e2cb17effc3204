package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/codelf"
)

// DefaultJobTimeout bounds one lookup job.
const DefaultJobTimeout = 5 * time.Minute

// VariableRequester runs a single-page variable lookup. *codelf.Client
// satisfies it.
type VariableRequester interface {
	RequestVariable(ctx context.Context, opt codelf.QueryOption) (*codelf.VariableResult, error)
}

// JobProcessor processes lookup jobs asynchronously.
type JobProcessor struct {
	ctx       context.Context
	requester VariableRequester
	logger    *logrus.Logger
	timeout   time.Duration
}

// NewJobProcessor creates a new job processor. Jobs run under ctx, so
// cancelling it stops in-flight jobs before their next page.
func NewJobProcessor(ctx context.Context, requester VariableRequester, logger *logrus.Logger) *JobProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	return &JobProcessor{
		ctx:       ctx,
		requester: requester,
		logger:    logger,
		timeout:   DefaultJobTimeout,
	}
}

// ProcessJob walks the job's pages one after another and merges their
// variable lists. The first failing page fails the job.
func (p *JobProcessor) ProcessJob(job *LookupJob) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	startTime := time.Now()

	p.logger.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"request_id": job.RequestID,
		"pages":      job.Pages,
	}).Info("Starting lookup job processing")

	job.UpdateStatus(JobStatusProcessing, "Starting lookup...")
	recordJob(JobStatusProcessing)

	var merged *codelf.VariableResult
	seen := make(map[string]struct{})

	for i := 0; i < job.Pages; i++ {
		page := job.Page + i
		if err := ctx.Err(); err != nil {
			p.logger.WithError(err).WithField("job_id", job.ID).Warn("Lookup job cancelled")
			job.SetError(fmt.Errorf("page %d: %w", page, err))
			recordJob(JobStatusFailed)
			return
		}
		res, err := p.requester.RequestVariable(ctx, codelf.QueryOption{
			Query: job.Query,
			Page:  page,
			Lang:  job.Lang,
		})
		if err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"job_id": job.ID,
				"page":   page,
			}).Error("Lookup page failed")
			job.SetError(fmt.Errorf("page %d: %w", page, err))
			recordJob(JobStatusFailed)
			return
		}

		if merged == nil {
			merged = res
			merged.VariableList = mergeVariables(nil, res.VariableList, seen)
		} else {
			merged.VariableList = mergeVariables(merged.VariableList, res.VariableList, seen)
		}
		job.UpdateProgress(i+1, fmt.Sprintf("Searched page %d/%d", i+1, job.Pages))
	}

	job.SetResult(merged)
	recordJob(JobStatusCompleted)
	jobDuration.Observe(time.Since(startTime).Seconds())

	p.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"request_id":  job.RequestID,
		"variables":   len(merged.VariableList),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Lookup job completed successfully")
}

// mergeVariables appends the entries of src whose keyword was not seen yet,
// comparing keywords case-insensitively.
func mergeVariables(dst, src []codelf.RepoResult, seen map[string]struct{}) []codelf.RepoResult {
	if dst == nil {
		dst = make([]codelf.RepoResult, 0, len(src))
	}
	for _, v := range src {
		key := strings.ToLower(v.Keyword)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
