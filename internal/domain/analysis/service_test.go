package analysis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
)

func TestService_AnalyzeInlineProfiles(t *testing.T) {
	deps := newTestDeps()
	svc := deps.service(Config{})

	record, err := svc.Analyze(context.Background(), 1, Request{
		Profiles:    []nutrition.ProfileInput{adult("p1", 3000)},
		HorizonDays: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.False(t, record.Cached)
	require.Equal(t, 30, record.Result.HorizonDays)
	require.Len(t, record.Result.Outcomes, 1)
	require.Nil(t, record.Result.Outcomes[0].Failure)
	require.Equal(t, "reports/1/"+record.ID+".json", record.ReportKey)

	again, err := svc.Analyze(context.Background(), 1, Request{
		Profiles:    []nutrition.ProfileInput{adult("p1", 3000)},
		HorizonDays: 30,
	})
	require.NoError(t, err)
	require.True(t, again.Cached)
	require.Equal(t, record.Result, again.Result)

	history, err := svc.History(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].HasReport)

	_, err = svc.Get(context.Background(), 2, record.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))

	report, mime, err := svc.Report(context.Background(), 1, record.ID)
	require.NoError(t, err)
	require.Equal(t, "application/json", mime)
	require.Contains(t, string(report), record.ID)
}

func TestService_AnalyzeMembersWithCombos(t *testing.T) {
	deps := newTestDeps()
	deps.members.profiles["dad"] = adult("dad", 0)
	deps.members.profiles["mum"] = nutrition.ProfileInput{
		ID: "mum", Name: "Mum", Gender: "female", Age: 33, HeightCM: 162, WeightKG: 55,
		ExerciseFrequency: "light", ExerciseDuration: "medium", ExerciseIntensity: "low",
	}
	svc := deps.service(Config{})

	record, err := svc.Analyze(context.Background(), 1, Request{
		MemberIDs: []string{"dad", "mum"},
		ComboIDs:  []string{"c1"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c1"}, deps.combos.calls)
	require.Equal(t, &nutrition.Intake{Calories: 4000, ProteinG: 160, FatG: 120, CarbsG: 500}, record.SharedIntake)
	require.Equal(t, nutrition.AllocateByWeight, record.Result.Allocation)
	require.Equal(t, nutrition.DefaultHorizonDays, record.Result.HorizonDays)

	var total float64
	for _, o := range record.Result.Outcomes {
		require.Nil(t, o.Failure)
		total += o.Result.Profile.Intake.Calories
	}
	require.InDelta(t, 4000, total, 1e-9)
}

func TestService_AnalyzeRejections(t *testing.T) {
	deps := newTestDeps()
	svc := deps.service(Config{})
	ctx := context.Background()

	_, err := svc.Analyze(ctx, 1, Request{})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Analyze(ctx, 1, Request{
		Profiles:     []nutrition.ProfileInput{adult("p1", 0)},
		SharedIntake: &nutrition.Intake{Calories: 2000},
		ComboIDs:     []string{"c1"},
	})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Analyze(ctx, 1, Request{Profiles: []nutrition.ProfileInput{adult("p1", 3000)}, HorizonDays: -3})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	fields, ok := apperrors.DetailsOf(err).([]nutrition.ValidationError)
	require.True(t, ok)
	require.Equal(t, "horizonDays", fields[0].Field)

	_, err = svc.Analyze(ctx, 1, Request{Profiles: []nutrition.ProfileInput{adult("p1", 3000)}, Mode: "sometimes"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	bad := adult("p2", 3000)
	bad.Gender = "unknown"
	_, err = svc.Analyze(ctx, 1, Request{
		Profiles: []nutrition.ProfileInput{adult("p1", 3000), bad},
		Mode:     "fail_fast",
	})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	failure, ok := apperrors.DetailsOf(err).(MemberFailure)
	require.True(t, ok)
	require.Equal(t, 1, failure.Index)
	require.Equal(t, "p2", failure.ProfileID)
	require.Equal(t, "gender", failure.Fields[0].Field)

	record, err := svc.Analyze(ctx, 1, Request{Profiles: []nutrition.ProfileInput{adult("p1", 3000), bad}})
	require.NoError(t, err)
	require.Equal(t, 1, record.Result.Failed())
}

func TestService_Narrative(t *testing.T) {
	deps := newTestDeps()
	deps.llm = &stubLLM{answer: "  Everyone is on track.  "}
	svc := deps.service(Config{Narrative: true, MaxPromptTokens: 500})

	record, err := svc.Analyze(context.Background(), 1, Request{
		Profiles:  []nutrition.ProfileInput{adult("p1", 3000)},
		Narrative: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Everyone is on track.", record.Narrative)
	require.NotNil(t, record.TokenUsage)
	require.Equal(t, 4, record.TokenUsage.CompletionTokens)
	require.Equal(t, record.TokenUsage.PromptTokens+4, record.TokenUsage.TotalTokens)
	require.Len(t, deps.llm.messages, 2)
	require.Contains(t, deps.llm.messages[1].Content, "Dad")

	deps.llm.err = errors.New("upstream down")
	record, err = svc.Analyze(context.Background(), 1, Request{
		Profiles:  []nutrition.ProfileInput{adult("p1", 3000)},
		Narrative: true,
	})
	require.NoError(t, err)
	require.Empty(t, record.Narrative)
	require.Nil(t, record.TokenUsage)
}

func TestService_SubmitAndHandleJob(t *testing.T) {
	deps := newTestDeps()
	svc := deps.service(Config{})
	ctx := context.Background()

	job, err := svc.Submit(ctx, 5, Request{Profiles: []nutrition.ProfileInput{adult("p1", 2500)}})
	require.NoError(t, err)
	require.Equal(t, JobQueued, job.Status)
	require.Len(t, deps.queue.jobs, 1)

	queued := deps.queue.jobs[0]
	require.Equal(t, jobNameAnalyze, queued.name)
	// Simulate the JSON round trip a persistent queue performs.
	queued.payload["account_id"] = float64(5)
	svc.HandleJob(ctx, queued.name, queued.payload)

	done, err := svc.Job(ctx, 5, job.ID)
	require.NoError(t, err)
	require.Equal(t, JobDone, done.Status)
	require.NotEmpty(t, done.RecordID)

	_, err = svc.Get(ctx, 5, done.RecordID)
	require.NoError(t, err)

	_, err = svc.Job(ctx, 6, job.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))

	failing, err := svc.Submit(ctx, 5, Request{Profiles: []nutrition.ProfileInput{adult("p1", 2500)}, HorizonDays: 99999})
	require.NoError(t, err)
	svc.HandleJob(ctx, jobNameAnalyze, deps.queue.jobs[1].payload)
	failed, err := svc.Job(ctx, 5, failing.ID)
	require.NoError(t, err)
	require.Equal(t, JobFailed, failed.Status)
	require.Contains(t, failed.Error, "horizonDays")
}

func TestService_SubmitWithoutQueue(t *testing.T) {
	deps := newTestDeps()
	svc := deps.service(Config{}).(*service)
	svc.queue = nil

	_, err := svc.Submit(context.Background(), 1, Request{Profiles: []nutrition.ProfileInput{adult("p1", 2500)}})
	require.True(t, apperrors.IsCode(err, "analysis_error"))
}

func adult(id string, calories float64) nutrition.ProfileInput {
	in := nutrition.ProfileInput{
		ID:                id,
		Name:              "Dad",
		Gender:            "male",
		Age:               35,
		AgeGroup:          "middle",
		HeightCM:          175,
		WeightKG:          70,
		ExerciseFrequency: "sedentary",
		ExerciseDuration:  "medium",
		ExerciseIntensity: "medium",
	}
	if calories > 0 {
		in.Intake = &nutrition.Intake{Calories: calories, ProteinG: 100, FatG: 80, CarbsG: 400}
	}
	return in
}

type testDeps struct {
	members *stubMembers
	combos  *stubCombos
	history *stubHistory
	cache   *stubCache
	reports *stubReports
	jobs    *stubJobs
	queue   *stubQueue
	llm     *stubLLM
}

func newTestDeps() *testDeps {
	return &testDeps{
		members: &stubMembers{profiles: map[string]nutrition.ProfileInput{}},
		combos:  &stubCombos{total: nutrition.Intake{Calories: 4000, ProteinG: 160, FatG: 120, CarbsG: 500}},
		history: &stubHistory{records: map[string]Record{}},
		cache:   &stubCache{entries: map[string]nutrition.BatchResult{}},
		reports: &stubReports{blobs: map[string][]byte{}},
		jobs:    &stubJobs{jobs: map[string]Job{}},
		queue:   &stubQueue{},
	}
}

func (d *testDeps) service(cfg Config) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := nutrition.NewEngine(nutrition.Config{}, logger)
	var llm LLM
	if d.llm != nil {
		llm = d.llm
	}
	svc := NewService(cfg, engine, d.members, d.combos, d.history, d.cache, d.reports, d.jobs, d.queue, llm, wordCounter{}, nil, logger).(*service)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc
}

type stubMembers struct {
	profiles map[string]nutrition.ProfileInput
}

func (s *stubMembers) Profiles(_ context.Context, _ int64, ids []string) ([]nutrition.ProfileInput, error) {
	out := make([]nutrition.ProfileInput, 0, len(ids))
	for _, id := range ids {
		p, ok := s.profiles[id]
		if !ok {
			return nil, apperrors.Wrap("not_found", "member not found", nil)
		}
		out = append(out, p)
	}
	return out, nil
}

type stubCombos struct {
	total nutrition.Intake
	calls []string
}

func (s *stubCombos) Aggregate(_ context.Context, ids []string) (nutrition.Intake, error) {
	s.calls = append(s.calls, ids...)
	return s.total, nil
}

type stubHistory struct {
	records map[string]Record
}

func (s *stubHistory) Save(_ context.Context, record Record) error {
	s.records[record.ID] = record
	return nil
}

func (s *stubHistory) Get(_ context.Context, accountID int64, id string) (Record, error) {
	r, ok := s.records[id]
	if !ok || r.AccountID != accountID {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *stubHistory) List(_ context.Context, accountID int64, limit int) ([]Record, error) {
	var out []Record
	for _, r := range s.records {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubCache struct {
	entries map[string]nutrition.BatchResult
}

func (s *stubCache) Get(_ context.Context, key string) (nutrition.BatchResult, bool, error) {
	r, ok := s.entries[key]
	return r, ok, nil
}

func (s *stubCache) Set(_ context.Context, key string, result nutrition.BatchResult, _ time.Duration) error {
	s.entries[key] = result
	return nil
}

type stubReports struct {
	blobs map[string][]byte
}

func (s *stubReports) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	s.blobs[key] = data
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType}, nil
}

func (s *stubReports) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type stubJobs struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func (s *stubJobs) Save(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *stubJobs) Get(_ context.Context, accountID int64, id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.AccountID != accountID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

type queuedJob struct {
	name    string
	payload map[string]any
}

type stubQueue struct {
	jobs []queuedJob
}

func (s *stubQueue) Enqueue(_ context.Context, name string, payload any) error {
	s.jobs = append(s.jobs, queuedJob{name: name, payload: payload.(map[string]any)})
	return nil
}

type stubLLM struct {
	answer   string
	err      error
	messages []LLMMessage
}

func (s *stubLLM) Chat(_ context.Context, messages []LLMMessage) (string, error) {
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func (wordCounter) Truncate(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return text
	}
	return strings.Join(words[:maxTokens], " ")
}
