package healthlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/pkg/util"
)

// ProfileSource loads stored members as engine input, refined by the log:
// a weight or height measured after the member was last edited replaces the
// stored value, and a member without a default intake gets the average of
// the energy and macro totals logged in the window.
type ProfileSource struct {
	members    MemberStore
	repo       Repository
	windowDays int
	logger     *slog.Logger
	now        func() time.Time
}

// NewProfileSource constructs the source. windowDays <= 0 uses DefaultWindowDays.
func NewProfileSource(members MemberStore, repo Repository, windowDays int, logger *slog.Logger) *ProfileSource {
	if windowDays <= 0 || windowDays > MaxWindowDays {
		windowDays = DefaultWindowDays
	}
	return &ProfileSource{
		members:    members,
		repo:       repo,
		windowDays: windowDays,
		logger:     logger.With("component", "healthlog.profiles"),
		now:        util.NowUTC,
	}
}

// Profiles implements the analysis member source.
func (p *ProfileSource) Profiles(ctx context.Context, accountID int64, ids []string) ([]nutrition.ProfileInput, error) {
	today := p.now()
	out := make([]nutrition.ProfileInput, 0, len(ids))
	for _, id := range ids {
		member, err := p.members.Get(ctx, accountID, id)
		if err != nil {
			return nil, err
		}
		in := family.ToProfileInput(member, today)
		p.refine(ctx, accountID, member, &in, today)
		out = append(out, in)
	}
	return out, nil
}

// refine applies logged measurements. Log read failures keep the stored values.
func (p *ProfileSource) refine(ctx context.Context, accountID int64, member family.Member, in *nutrition.ProfileInput, today time.Time) {
	latest, err := p.repo.Latest(ctx, accountID, member.ID)
	if err != nil {
		p.logger.Warn("latest measurements unavailable", "member_id", member.ID, "error", err)
		return
	}
	for _, e := range latest {
		if !e.MeasuredAt.After(member.UpdatedAt) {
			continue
		}
		switch e.Code {
		case MetricWeight:
			in.WeightKG = e.Value
		case MetricHeight:
			in.HeightCM = e.Value
		}
	}

	if in.Intake != nil {
		return
	}
	codes := []MetricCode{MetricEnergy, MetricProtein, MetricFat, MetricCarbs}
	entries, err := p.repo.Since(ctx, accountID, member.ID, codes, today.AddDate(0, 0, -p.windowDays))
	if err != nil {
		p.logger.Warn("logged intake unavailable", "member_id", member.ID, "error", err)
		return
	}
	if intake, ok := intakeFrom(averageEntries(entries)); ok {
		in.Intake = &intake
	}
}

// intakeFrom needs all four of energy, protein, fat and carbs.
func intakeFrom(averages []NutrientAverage) (nutrition.Intake, bool) {
	values := make(map[MetricCode]float64, len(averages))
	for _, a := range averages {
		values[a.Code] = a.Average
	}
	var intake nutrition.Intake
	for code, dst := range map[MetricCode]*float64{
		MetricEnergy:  &intake.Calories,
		MetricProtein: &intake.ProteinG,
		MetricFat:     &intake.FatG,
		MetricCarbs:   &intake.CarbsG,
	} {
		v, ok := values[code]
		if !ok {
			return nutrition.Intake{}, false
		}
		*dst = v
	}
	return intake, true
}
