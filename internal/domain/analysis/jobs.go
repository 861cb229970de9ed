package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
)

// Submit validates the request shape, stores a queued job and enqueues it.
func (s *service) Submit(ctx context.Context, accountID int64, req Request) (Job, error) {
	if s.queue == nil || s.jobs == nil {
		return Job{}, apperrors.Wrap("analysis_error", "async analysis is not enabled", nil)
	}
	if err := checkRequest(req); err != nil {
		return Job{}, err
	}
	now := s.now()
	job := Job{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Status:    JobQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return Job{}, apperrors.Wrap("analysis_error", "failed to store job", err)
	}
	payload := map[string]any{
		"job_id":     job.ID,
		"account_id": accountID,
	}
	if err := s.queue.Enqueue(ctx, jobNameAnalyze, payload); err != nil {
		job.Status = JobFailed
		job.Error = "enqueue failed"
		job.UpdatedAt = s.now()
		_ = s.jobs.Save(ctx, job)
		return Job{}, apperrors.Wrap("analysis_error", "failed to enqueue job", err)
	}
	s.stats.JobQueued()
	s.logger.Info("analysis job queued", "job_id", job.ID, "account_id", accountID)
	return job, nil
}

func (s *service) Job(ctx context.Context, accountID int64, id string) (Job, error) {
	if s.jobs == nil {
		return Job{}, apperrors.Wrap("not_found", "job not found", nil)
	}
	job, err := s.jobs.Get(ctx, accountID, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Job{}, apperrors.Wrap("not_found", "job not found", err)
		}
		return Job{}, apperrors.Wrap("analysis_error", "failed to load job", err)
	}
	return job, nil
}

func (s *service) HandleJob(ctx context.Context, name string, payload map[string]any) {
	if name != jobNameAnalyze {
		s.logger.Warn("unknown job", "name", name)
		return
	}
	jobID, _ := payload["job_id"].(string)
	accountID, err := toInt64(payload["account_id"])
	if err != nil || jobID == "" {
		s.logger.Warn("malformed job payload", "payload", payload, "error", err)
		return
	}
	job, err := s.jobs.Get(ctx, accountID, jobID)
	if err != nil {
		s.logger.Warn("job lookup failed", "job_id", jobID, "error", err)
		return
	}
	if job.Status == JobDone || job.Status == JobFailed {
		return
	}
	defer s.stats.JobDone()

	s.setStatus(ctx, &job, JobRunning, "", "")
	record, err := s.Analyze(ctx, accountID, job.Request)
	if err != nil {
		s.logger.Warn("analysis job failed", "job_id", jobID, "error", err)
		s.setStatus(ctx, &job, JobFailed, "", errMessage(err))
		return
	}
	s.setStatus(ctx, &job, JobDone, record.ID, "")
}

func (s *service) setStatus(ctx context.Context, job *Job, status JobStatus, recordID, message string) {
	job.Status = status
	job.RecordID = recordID
	job.Error = message
	job.UpdatedAt = s.now()
	if err := s.jobs.Save(ctx, *job); err != nil {
		s.logger.Warn("job status update failed", "job_id", job.ID, "status", status, "error", err)
	}
}

func errMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// toInt64 accepts the numeric shapes a JSON round trip can produce.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected account id type %T", v)
	}
}
