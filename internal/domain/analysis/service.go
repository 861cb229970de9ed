package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
	"github.com/yanqian/nutriforecast/pkg/metrics"
	"github.com/yanqian/nutriforecast/pkg/util"
)

const (
	jobNameAnalyze  = "analyze"
	reportMimeType  = "application/json"
	maxProfiles     = 32
	defaultHistory  = 20
	maxHistoryLimit = 100
)

// Config controls caching, history and narrative behaviour.
type Config struct {
	CacheTTL        time.Duration
	HistoryLimit    int
	Narrative       bool
	NarrativePrompt string
	MaxPromptTokens int
}

// Service runs family analyses and keeps their history.
type Service interface {
	Analyze(ctx context.Context, accountID int64, req Request) (Record, error)
	Submit(ctx context.Context, accountID int64, req Request) (Job, error)
	Job(ctx context.Context, accountID int64, id string) (Job, error)
	History(ctx context.Context, accountID int64, limit int) ([]Summary, error)
	Get(ctx context.Context, accountID int64, id string) (Record, error)
	// Report returns the exported JSON report for a record.
	Report(ctx context.Context, accountID int64, id string) ([]byte, string, error)
	// HandleJob is the queue handler for submitted jobs.
	HandleJob(ctx context.Context, name string, payload map[string]any)
}

type service struct {
	cfg     Config
	engine  *nutrition.Engine
	members MemberSource
	combos  ComboSource
	history HistoryRepository
	cache   ResultCache
	reports ReportStore
	jobs    JobStore
	queue   JobQueue
	llm     LLM
	tokens  TokenCounter
	stats   *metrics.Analysis
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the analysis workflow. cache, reports, queue, llm, tokens and
// stats may be nil.
func NewService(
	cfg Config,
	engine *nutrition.Engine,
	members MemberSource,
	combos ComboSource,
	history HistoryRepository,
	cache ResultCache,
	reports ReportStore,
	jobs JobStore,
	queue JobQueue,
	llm LLM,
	tokens TokenCounter,
	stats *metrics.Analysis,
	logger *slog.Logger,
) Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistory
	}
	return &service{
		cfg:     cfg,
		engine:  engine,
		members: members,
		combos:  combos,
		history: history,
		cache:   cache,
		reports: reports,
		jobs:    jobs,
		queue:   queue,
		llm:     llm,
		tokens:  tokens,
		stats:   stats,
		logger:  logger.With("component", "analysis.service"),
		now:     util.NowUTC,
	}
}

func (s *service) Analyze(ctx context.Context, accountID int64, req Request) (Record, error) {
	start := s.now()
	if err := checkRequest(req); err != nil {
		return Record{}, err
	}
	batch, err := s.buildBatch(ctx, accountID, req)
	if err != nil {
		return Record{}, err
	}

	days, err := s.engine.ResolveHorizon(batch.HorizonDays)
	if err != nil {
		return Record{}, s.rejected(batch.Mode, start, err)
	}
	batch.HorizonDays = days

	key := cacheKey(batch)
	result, cached := s.lookup(ctx, key)
	if !cached {
		result, err = s.engine.AnalyzeBatch(ctx, batch)
		if err != nil {
			return Record{}, s.rejected(batch.Mode, start, err)
		}
		s.store(ctx, key, result)
	}

	record := Record{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		CreatedAt:    s.now(),
		Request:      req,
		SharedIntake: batch.SharedIntake,
		Result:       result,
		Cached:       cached,
	}
	if req.Narrative && s.cfg.Narrative && s.llm != nil {
		narrative, usage, err := s.narrate(ctx, record)
		if err != nil {
			s.logger.Warn("narrative generation failed", "record_id", record.ID, "error", err)
		} else {
			record.Narrative = narrative
			record.TokenUsage = &usage
			s.stats.AddTokens(usage)
		}
	}
	s.exportReport(ctx, &record)

	if err := s.history.Save(ctx, record); err != nil {
		return Record{}, apperrors.Wrap("analysis_error", "failed to save analysis", err)
	}

	failed := result.Failed()
	outcome := "ok"
	if failed > 0 {
		outcome = "partial"
	}
	s.stats.ObserveRun(string(result.Mode), outcome, s.now().Sub(start))
	s.stats.ObserveMembers(len(result.Outcomes)-failed, failed)
	for _, o := range result.Outcomes {
		if o.Failure != nil {
			for _, f := range o.Failure.Fields {
				s.stats.RejectedField(f.Field)
			}
		}
	}
	s.logger.Info("analysis completed",
		"account_id", accountID,
		"record_id", record.ID,
		"members", len(result.Outcomes),
		"failed", failed,
		"cached", cached,
	)
	return record, nil
}

func (s *service) History(ctx context.Context, accountID int64, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.history.List(ctx, accountID, limit)
	if err != nil {
		return nil, apperrors.Wrap("analysis_error", "failed to list analyses", err)
	}
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, Summary{
			ID:          r.ID,
			CreatedAt:   r.CreatedAt,
			HorizonDays: r.Result.HorizonDays,
			Members:     len(r.Result.Outcomes),
			Failed:      r.Result.Failed(),
			HasReport:   r.ReportKey != "",
		})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, accountID int64, id string) (Record, error) {
	record, err := s.history.Get(ctx, accountID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, apperrors.Wrap("not_found", "analysis not found", err)
		}
		return Record{}, apperrors.Wrap("analysis_error", "failed to load analysis", err)
	}
	return record, nil
}

func (s *service) Report(ctx context.Context, accountID int64, id string) ([]byte, string, error) {
	record, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, "", err
	}
	if record.ReportKey != "" && s.reports != nil {
		body, err := s.reports.Get(ctx, record.ReportKey)
		if err == nil {
			defer body.Close()
			data, readErr := io.ReadAll(body)
			if readErr == nil {
				return data, reportMimeType, nil
			}
			err = readErr
		}
		s.logger.Warn("stored report unavailable, rendering inline", "record_id", id, "error", err)
	}
	data, err := renderReport(record)
	if err != nil {
		return nil, "", apperrors.Wrap("report_error", "failed to render report", err)
	}
	return data, reportMimeType, nil
}

// buildBatch resolves members, inline profiles and the shared intake.
func (s *service) buildBatch(ctx context.Context, accountID int64, req Request) (nutrition.BatchRequest, error) {
	mode, err := nutrition.ParseBatchMode(req.Mode)
	if err != nil {
		return nutrition.BatchRequest{}, invalidInput(err)
	}
	allocation, err := nutrition.ParseAllocationPolicy(req.Allocation)
	if err != nil {
		return nutrition.BatchRequest{}, invalidInput(err)
	}

	profiles := make([]nutrition.ProfileInput, 0, len(req.MemberIDs)+len(req.Profiles))
	if len(req.MemberIDs) > 0 {
		if s.members == nil {
			return nutrition.BatchRequest{}, apperrors.Wrap("invalid_input", "stored members are not available", nil)
		}
		loaded, err := s.members.Profiles(ctx, accountID, req.MemberIDs)
		if err != nil {
			return nutrition.BatchRequest{}, err
		}
		profiles = append(profiles, loaded...)
	}
	profiles = append(profiles, req.Profiles...)

	shared := req.SharedIntake
	if len(req.ComboIDs) > 0 {
		if s.combos == nil {
			return nutrition.BatchRequest{}, apperrors.Wrap("invalid_input", "combos are not available", nil)
		}
		total, err := s.combos.Aggregate(ctx, req.ComboIDs)
		if err != nil {
			return nutrition.BatchRequest{}, err
		}
		shared = &total
	}

	return nutrition.BatchRequest{
		Profiles:     profiles,
		SharedIntake: shared,
		HorizonDays:  req.HorizonDays,
		Mode:         mode,
		Allocation:   allocation,
	}, nil
}

func checkRequest(req Request) error {
	total := len(req.MemberIDs) + len(req.Profiles)
	if total == 0 {
		return apperrors.Wrap("invalid_input", "at least one member or profile is required", nil)
	}
	if total > maxProfiles {
		return apperrors.Wrap("invalid_input", fmt.Sprintf("at most %d members per analysis", maxProfiles), nil)
	}
	if req.SharedIntake != nil && len(req.ComboIDs) > 0 {
		return apperrors.Wrap("invalid_input", "use either sharedIntake or comboIds, not both", nil)
	}
	return nil
}

func (s *service) lookup(ctx context.Context, key string) (nutrition.BatchResult, bool) {
	if s.cache == nil || key == "" {
		return nutrition.BatchResult{}, false
	}
	result, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("result cache lookup failed", "error", err)
		ok = false
	}
	s.stats.CacheLookup(ok)
	return result, ok
}

func (s *service) store(ctx context.Context, key string, result nutrition.BatchResult) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("result cache store failed", "error", err)
	}
}

func (s *service) exportReport(ctx context.Context, record *Record) {
	if s.reports == nil {
		return
	}
	data, err := renderReport(*record)
	if err != nil {
		s.logger.Warn("report render failed", "record_id", record.ID, "error", err)
		return
	}
	key := fmt.Sprintf("reports/%d/%s.json", record.AccountID, record.ID)
	obj, err := s.reports.Put(ctx, key, data, reportMimeType)
	if err != nil {
		s.logger.Warn("report export failed", "record_id", record.ID, "error", err)
		return
	}
	record.ReportKey = obj.Key
}

func (s *service) rejected(mode nutrition.BatchMode, start time.Time, err error) error {
	s.stats.ObserveRun(string(mode), "rejected", s.now().Sub(start))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap("analysis_error", "analysis cancelled", err)
	}
	var memberErr *nutrition.MemberError
	if errors.As(err, &memberErr) {
		fields := validationFields(memberErr.Err)
		for _, f := range fields {
			s.stats.RejectedField(f.Field)
		}
		return apperrors.WrapDetails("invalid_input", memberErr.Error(), MemberFailure{
			Index:     memberErr.Index,
			ProfileID: memberErr.ID,
			Fields:    fields,
		}, err)
	}
	return invalidInput(err)
}

// MemberFailure is the error detail for a fail-fast rejection.
type MemberFailure struct {
	Index     int                         `json:"index"`
	ProfileID string                      `json:"profileId,omitempty"`
	Fields    []nutrition.ValidationError `json:"fields"`
}

func invalidInput(err error) error {
	fields := validationFields(err)
	if len(fields) == 0 {
		return apperrors.Wrap("invalid_input", err.Error(), err)
	}
	return apperrors.WrapDetails("invalid_input", err.Error(), fields, err)
}

func validationFields(err error) []nutrition.ValidationError {
	var many nutrition.ValidationErrors
	if errors.As(err, &many) {
		return many
	}
	var one nutrition.ValidationError
	if errors.As(err, &one) {
		return []nutrition.ValidationError{one}
	}
	return nil
}

func renderReport(record Record) ([]byte, error) {
	return json.MarshalIndent(record, "", "  ")
}
