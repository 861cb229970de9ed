package healthlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/family"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func TestService_RecordValidates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entry, err := svc.Record(ctx, 1, "m1", RecordInput{Code: "Weight", Value: 71.5})
	require.NoError(t, err)
	require.Equal(t, MetricWeight, entry.Code)
	require.Equal(t, "kg", entry.Unit)
	require.Equal(t, SourceManual, entry.Source)
	require.Equal(t, testNow, entry.MeasuredAt)

	sodium, err := svc.Record(ctx, 1, "m1", RecordInput{Code: "sodium", Value: 2200, Source: "device"})
	require.NoError(t, err)
	require.Equal(t, StatusHigh, sodium.Status)
	require.Equal(t, SourceDevice, sodium.Source)

	future := testNow.Add(time.Hour)
	beforeBirth := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, in := range map[string]RecordInput{
		"unknown code":   {Code: "glucose", Value: 5},
		"out of range":   {Code: "weight", Value: 900},
		"negative":       {Code: "energy", Value: -1},
		"unknown source": {Code: "weight", Value: 70, Source: "guess"},
		"future":         {Code: "weight", Value: 70, MeasuredAt: &future},
		"before birth":   {Code: "weight", Value: 70, MeasuredAt: &beforeBirth},
	} {
		_, err := svc.Record(ctx, 1, "m1", in)
		require.True(t, apperrors.IsCode(err, "invalid_input"), name)
	}

	_, err = svc.Record(ctx, 2, "m1", RecordInput{Code: "weight", Value: 70})
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_ListAndLatest(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i, v := range []float64{72, 71, 70} {
		at := testNow.AddDate(0, 0, -3+i)
		_, err := svc.Record(ctx, 1, "m1", RecordInput{Code: "weight", Value: v, MeasuredAt: &at})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, 1, "m1", RecordInput{Code: "calcium", Value: 500})
	require.NoError(t, err)

	all, err := svc.List(ctx, 1, "m1", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, MetricCalcium, all[0].Code)

	weights, err := svc.List(ctx, 1, "m1", "weight", 2)
	require.NoError(t, err)
	require.Len(t, weights, 2)
	require.Equal(t, 70.0, weights[0].Value)

	_, err = svc.List(ctx, 1, "m1", "steps", 0)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	latest, err := svc.Latest(ctx, 1, "m1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, 70.0, latest[MetricWeight].Value)
	require.Equal(t, StatusLow, latest[MetricCalcium].Status)
}

func TestService_IntakeSummary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	record := func(code string, value float64, daysAgo int) {
		at := testNow.AddDate(0, 0, -daysAgo)
		_, err := svc.Record(ctx, 1, "m1", RecordInput{Code: code, Value: value, MeasuredAt: &at})
		require.NoError(t, err)
	}
	record("energy", 1400, 1)
	record("energy", 1500, 2)
	record("energy", 3000, 10)
	record("protein", 48, 1)
	record("weight", 70, 1)

	summary, err := svc.IntakeSummary(ctx, 1, "m1", 0)
	require.NoError(t, err)
	require.Len(t, summary, 2)

	energy := summary[0]
	require.Equal(t, MetricEnergy, energy.Code)
	require.Equal(t, 1450.0, energy.Average)
	require.Equal(t, 2, energy.Samples)
	require.Equal(t, 81.0, energy.Percent)
	require.Equal(t, StatusNormal, energy.Status)

	protein := summary[1]
	require.Equal(t, MetricProtein, protein.Code)
	require.Equal(t, 80.0, protein.Percent)

	wide, err := svc.IntakeSummary(ctx, 1, "m1", 30)
	require.NoError(t, err)
	require.Equal(t, 3, wide[0].Samples)

	_, err = svc.IntakeSummary(ctx, 1, "m1", MaxWindowDays+1)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestService_HealthStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	status, err := svc.HealthStatus(ctx, 1, "m1")
	require.NoError(t, err)
	require.Equal(t, 70.0, *status.WeightKG)
	require.Equal(t, 22.9, *status.BMI)
	require.Equal(t, StatusNormal, status.BMIStatus)
	require.Nil(t, status.Calcium)
	require.Nil(t, status.Sodium)

	_, err = svc.Record(ctx, 1, "m1", RecordInput{Code: "weight", Value: 80})
	require.NoError(t, err)
	_, err = svc.Record(ctx, 1, "m1", RecordInput{Code: "sodium", Value: 1200})
	require.NoError(t, err)

	status, err = svc.HealthStatus(ctx, 1, "m1")
	require.NoError(t, err)
	require.Equal(t, 80.0, *status.WeightKG)
	require.Equal(t, 26.1, *status.BMI)
	require.Equal(t, StatusHigh, status.BMIStatus)
	require.Equal(t, 1200.0, *status.Sodium)
	require.Equal(t, StatusNormal, status.SodiumStatus)
}

func TestMetricType_Grade(t *testing.T) {
	bmi, ok := LookupType("BMI")
	require.True(t, ok)
	require.Equal(t, StatusLow, bmi.Grade(17))
	require.Equal(t, StatusNormal, bmi.Grade(18.5))
	require.Equal(t, StatusHigh, bmi.Grade(24))

	weight, _ := LookupType("weight")
	require.Empty(t, weight.Grade(70))

	_, ok = LookupType("steps")
	require.False(t, ok)
	require.Len(t, Types(), len(metricTypes))
}

func newTestService() (*service, *stubRepo) {
	repo := &stubRepo{}
	svc := NewService(repo, newStubMembers(), discardLogger()).(*service)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubMembers struct {
	members map[string]family.Member
}

func newStubMembers() *stubMembers {
	return &stubMembers{members: map[string]family.Member{
		"m1": {
			ID:                "m1",
			AccountID:         1,
			Name:              "Dad",
			Gender:            "male",
			BirthDate:         time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			HeightCM:          175,
			WeightKG:          70,
			ExerciseFrequency: "moderate",
			ExerciseDuration:  "medium",
			ExerciseIntensity: "medium",
			UpdatedAt:         testNow.AddDate(0, 0, -5),
		},
	}}
}

func (s *stubMembers) Get(_ context.Context, accountID int64, id string) (family.Member, error) {
	m, ok := s.members[id]
	if !ok || m.AccountID != accountID {
		return family.Member{}, apperrors.Wrap("not_found", "member not found", family.ErrNotFound)
	}
	return m, nil
}

type stubRepo struct {
	entries []Entry
	err     error
}

func (r *stubRepo) Create(_ context.Context, e Entry) (Entry, error) {
	if r.err != nil {
		return Entry{}, r.err
	}
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *stubRepo) List(_ context.Context, accountID int64, memberID string, code MetricCode, limit int) ([]Entry, error) {
	out := r.match(accountID, memberID, func(e Entry) bool { return code == "" || e.Code == code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, r.err
}

func (r *stubRepo) Latest(_ context.Context, accountID int64, memberID string) ([]Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	seen := map[MetricCode]bool{}
	var out []Entry
	for _, e := range r.match(accountID, memberID, func(Entry) bool { return true }) {
		if !seen[e.Code] {
			seen[e.Code] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubRepo) Since(_ context.Context, accountID int64, memberID string, codes []MetricCode, since time.Time) ([]Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.match(accountID, memberID, func(e Entry) bool {
		for _, c := range codes {
			if c == e.Code {
				return !e.MeasuredAt.Before(since)
			}
		}
		return false
	}), nil
}

func (r *stubRepo) match(accountID int64, memberID string, keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range r.entries {
		if e.AccountID == accountID && e.MemberID == memberID && keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeasuredAt.After(out[j].MeasuredAt) })
	return out
}

var errStore = errors.New("store down")
