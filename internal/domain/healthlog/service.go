package healthlog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
	"github.com/yanqian/nutriforecast/pkg/util"
)

const (
	DefaultWindowDays = 7
	MaxWindowDays     = 90
	defaultListLimit  = 50
	maxListLimit      = 500
	futureSkew        = 5 * time.Minute
)

// MemberStore resolves the family member a measurement belongs to.
type MemberStore interface {
	Get(ctx context.Context, accountID int64, id string) (family.Member, error)
}

// Service keeps the measurement log of family members.
type Service interface {
	Record(ctx context.Context, accountID int64, memberID string, in RecordInput) (Entry, error)
	List(ctx context.Context, accountID int64, memberID, code string, limit int) ([]Entry, error)
	Latest(ctx context.Context, accountID int64, memberID string) (map[MetricCode]Entry, error)
	// IntakeSummary averages the intake metrics logged in the last days.
	IntakeSummary(ctx context.Context, accountID int64, memberID string, days int) ([]NutrientAverage, error)
	HealthStatus(ctx context.Context, accountID int64, memberID string) (HealthStatus, error)
}

type service struct {
	repo    Repository
	members MemberStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the measurement log service.
func NewService(repo Repository, members MemberStore, logger *slog.Logger) Service {
	return &service{
		repo:    repo,
		members: members,
		logger:  logger.With("component", "healthlog.service"),
		now:     util.NowUTC,
	}
}

func (s *service) Record(ctx context.Context, accountID int64, memberID string, in RecordInput) (Entry, error) {
	member, err := s.members.Get(ctx, accountID, memberID)
	if err != nil {
		return Entry{}, err
	}
	mt, ok := LookupType(in.Code)
	if !ok {
		return Entry{}, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown metric code %q", in.Code), nil)
	}
	if math.IsNaN(in.Value) || math.IsInf(in.Value, 0) || in.Value < mt.Min || in.Value > mt.Max {
		return Entry{}, apperrors.Wrap("invalid_input", fmt.Sprintf("%s must be between %g and %g %s", mt.Code, mt.Min, mt.Max, mt.Unit), nil)
	}
	source, err := parseSource(in.Source)
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	measuredAt := now
	if in.MeasuredAt != nil {
		measuredAt = in.MeasuredAt.UTC()
	}
	if measuredAt.After(now.Add(futureSkew)) {
		return Entry{}, apperrors.Wrap("invalid_input", "measuredAt cannot be in the future", nil)
	}
	if measuredAt.Before(member.BirthDate) {
		return Entry{}, apperrors.Wrap("invalid_input", "measuredAt cannot be before the member's birth date", nil)
	}

	entry, err := s.repo.Create(ctx, Entry{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		MemberID:   member.ID,
		Code:       mt.Code,
		Value:      in.Value,
		Unit:       mt.Unit,
		Status:     mt.Grade(in.Value),
		Source:     source,
		MeasuredAt: measuredAt,
		CreatedAt:  now,
	})
	if err != nil {
		return Entry{}, apperrors.Wrap("healthlog_error", "failed to record measurement", err)
	}
	s.logger.Info("measurement recorded", "account_id", accountID, "member_id", member.ID, "code", mt.Code)
	return entry, nil
}

func (s *service) List(ctx context.Context, accountID int64, memberID, code string, limit int) ([]Entry, error) {
	member, err := s.members.Get(ctx, accountID, memberID)
	if err != nil {
		return nil, err
	}
	var filter MetricCode
	if strings.TrimSpace(code) != "" {
		mt, ok := LookupType(code)
		if !ok {
			return nil, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown metric code %q", code), nil)
		}
		filter = mt.Code
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	entries, err := s.repo.List(ctx, accountID, member.ID, filter, limit)
	if err != nil {
		return nil, apperrors.Wrap("healthlog_error", "failed to list measurements", err)
	}
	return entries, nil
}

func (s *service) Latest(ctx context.Context, accountID int64, memberID string) (map[MetricCode]Entry, error) {
	member, err := s.members.Get(ctx, accountID, memberID)
	if err != nil {
		return nil, err
	}
	return s.latest(ctx, accountID, member.ID)
}

func (s *service) latest(ctx context.Context, accountID int64, memberID string) (map[MetricCode]Entry, error) {
	entries, err := s.repo.Latest(ctx, accountID, memberID)
	if err != nil {
		return nil, apperrors.Wrap("healthlog_error", "failed to load latest measurements", err)
	}
	out := make(map[MetricCode]Entry, len(entries))
	for _, e := range entries {
		out[e.Code] = e
	}
	return out, nil
}

func (s *service) IntakeSummary(ctx context.Context, accountID int64, memberID string, days int) ([]NutrientAverage, error) {
	member, err := s.members.Get(ctx, accountID, memberID)
	if err != nil {
		return nil, err
	}
	if days == 0 {
		days = DefaultWindowDays
	}
	if days < 1 || days > MaxWindowDays {
		return nil, apperrors.Wrap("invalid_input", fmt.Sprintf("days must be between 1 and %d", MaxWindowDays), nil)
	}
	return s.intakeAverages(ctx, accountID, member.ID, days)
}

func (s *service) intakeAverages(ctx context.Context, accountID int64, memberID string, days int) ([]NutrientAverage, error) {
	codes := make([]MetricCode, 0, len(metricTypes))
	for _, mt := range metricTypes {
		if mt.Intake {
			codes = append(codes, mt.Code)
		}
	}
	since := s.now().AddDate(0, 0, -days)
	entries, err := s.repo.Since(ctx, accountID, memberID, codes, since)
	if err != nil {
		return nil, apperrors.Wrap("healthlog_error", "failed to load intake measurements", err)
	}
	return averageEntries(entries), nil
}

// averageEntries returns one average per code present, in catalogue order.
func averageEntries(entries []Entry) []NutrientAverage {
	type acc struct {
		sum float64
		n   int
	}
	sums := make(map[MetricCode]*acc)
	for _, e := range entries {
		a, ok := sums[e.Code]
		if !ok {
			a = &acc{}
			sums[e.Code] = a
		}
		a.sum += e.Value
		a.n++
	}
	out := make([]NutrientAverage, 0, len(sums))
	for _, mt := range metricTypes {
		a, ok := sums[mt.Code]
		if !ok {
			continue
		}
		avg := a.sum / float64(a.n)
		na := NutrientAverage{
			Code:    mt.Code,
			Name:    mt.Name,
			Unit:    mt.Unit,
			Average: round1(avg),
			Samples: a.n,
			Target:  mt.Target,
			Status:  mt.Grade(avg),
		}
		if mt.Target > 0 {
			na.Percent = math.Floor(avg/mt.Target*100 + 0.5)
		}
		out = append(out, na)
	}
	return out
}

func (s *service) HealthStatus(ctx context.Context, accountID int64, memberID string) (HealthStatus, error) {
	member, err := s.members.Get(ctx, accountID, memberID)
	if err != nil {
		return HealthStatus{}, err
	}
	latest, err := s.latest(ctx, accountID, member.ID)
	if err != nil {
		return HealthStatus{}, err
	}

	weight := member.WeightKG
	if e, ok := latest[MetricWeight]; ok && e.MeasuredAt.After(member.UpdatedAt) {
		weight = e.Value
	}
	height := member.HeightCM
	if e, ok := latest[MetricHeight]; ok && e.MeasuredAt.After(member.UpdatedAt) {
		height = e.Value
	}
	bmi := round1(nutrition.BMI(height, weight))
	if e, ok := latest[MetricBMI]; ok {
		bmi = e.Value
	}
	bmiType, _ := LookupType(string(MetricBMI))

	status := HealthStatus{
		MemberID:  member.ID,
		WeightKG:  &weight,
		HeightCM:  &height,
		BMI:       &bmi,
		BMIStatus: bmiType.Grade(bmi),
	}
	if e, ok := latest[MetricCalcium]; ok {
		v := e.Value
		status.Calcium = &v
	}
	if e, ok := latest[MetricSodium]; ok {
		v := e.Value
		status.Sodium = &v
		status.SodiumStatus = e.Status
	}
	return status, nil
}

func parseSource(raw string) (Source, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return SourceManual, nil
	}
	for _, src := range sources {
		if string(src) == raw {
			return src, nil
		}
	}
	return "", apperrors.Wrap("invalid_input", fmt.Sprintf("unknown source %q", raw), nil)
}

func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
