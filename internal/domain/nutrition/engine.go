package nutrition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// BatchMode controls how per-member failures affect a batch.
type BatchMode string

const (
	// BatchModeBestEffort returns an outcome for every member, failed or not.
	BatchModeBestEffort BatchMode = "best_effort"
	// BatchModeFailFast aborts the batch on the first failing member.
	BatchModeFailFast BatchMode = "fail_fast"
)

// ParseBatchMode accepts best_effort or fail_fast. Empty input returns "".
func ParseBatchMode(raw string) (BatchMode, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	m, verr := parseEnum("mode", raw, []BatchMode{BatchModeBestEffort, BatchModeFailFast})
	if verr != nil {
		return "", *verr
	}
	return m, nil
}

// Config tunes engine defaults.
type Config struct {
	DefaultHorizonDays int
	MaxHorizonDays     int
	BatchMode          BatchMode
	Allocation         AllocationPolicy
	Workers            int
}

// BatchRequest analyses several members at once. When SharedIntake is set it is
// split between the valid members and any per-member intake is ignored.
type BatchRequest struct {
	Profiles     []ProfileInput
	SharedIntake *Intake
	HorizonDays  int
	Mode         BatchMode
	Allocation   AllocationPolicy
}

// Outcome is one member's slot in a batch, in input order.
type Outcome struct {
	Index     int             `json:"index"`
	ProfileID string          `json:"profileId,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Failure   *Failure        `json:"error,omitempty"`
}

// Failure marks a member that could not be analysed.
type Failure struct {
	Message string            `json:"message"`
	Fields  []ValidationError `json:"fields,omitempty"`
}

// BatchResult carries the outcomes plus the resolved request settings.
type BatchResult struct {
	HorizonDays int              `json:"horizonDays"`
	Mode        BatchMode        `json:"mode"`
	Allocation  AllocationPolicy `json:"allocation,omitempty"`
	Outcomes    []Outcome        `json:"outcomes"`
}

// Failed counts outcomes carrying an error marker.
func (r BatchResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failure != nil {
			n++
		}
	}
	return n
}

// MemberError is returned in fail-fast mode.
type MemberError struct {
	Index int
	ID    string
	Err   error
}

func (e *MemberError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("member %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("member %d: %v", e.Index, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

// Engine runs the forecast pipeline. It holds no mutable state.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine normalises cfg and returns an Engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = DefaultHorizonDays
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = 5 * 365
	}
	if cfg.BatchMode == "" {
		cfg.BatchMode = BatchModeBestEffort
	}
	if cfg.Allocation == "" {
		cfg.Allocation = AllocateByWeight
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{cfg: cfg, logger: logger.With("component", "nutrition.engine")}
}

// ResolveHorizon returns days or the configured default when days is zero.
func (e *Engine) ResolveHorizon(days int) (int, error) {
	if days == 0 {
		return e.cfg.DefaultHorizonDays, nil
	}
	if days < MinHorizonDays || days > e.cfg.MaxHorizonDays {
		return 0, ValidationError{
			Field:  "horizonDays",
			Value:  days,
			Reason: fmt.Sprintf("must be between %d and %d", MinHorizonDays, e.cfg.MaxHorizonDays),
		}
	}
	return days, nil
}

// Analyze validates one profile with its own intake and runs the pipeline.
func (e *Engine) Analyze(in ProfileInput, horizonDays int) (AnalysisResult, error) {
	days, err := e.ResolveHorizon(horizonDays)
	if err != nil {
		return AnalysisResult{}, err
	}
	p, err := ParseProfile(in, true)
	if err != nil {
		return AnalysisResult{}, err
	}
	return e.AnalyzeProfile(p, days), nil
}

// AnalyzeProfile runs the pipeline on an already validated profile.
func (e *Engine) AnalyzeProfile(p Profile, days int) AnalysisResult {
	baseline := CalculateBaseline(p)
	diff := CalculateDifferences(p.Intake, baseline)
	pred := PredictWeightShift(p, diff, days)
	images := PredictBodyImage(p, pred.WeightShiftKG)
	e.warnFallback(p, images)

	return AnalysisResult{
		Profile:          p,
		Baseline:         baseline,
		Differences:      diff,
		Prediction:       pred,
		BodyImage:        images,
		Advice:           BuildAdvice(p, diff, pred),
		AlgorithmVersion: AlgorithmVersion,
	}
}

// ClassifyBodyImage classifies a single weight and logs range table gaps.
func (e *Engine) ClassifyBodyImage(heightCM, weightKG float64, gender Gender) BodyImage {
	img := ClassifyBodyImage(heightCM, weightKG, gender)
	if img.Fallback {
		e.logger.Warn("bmi outside body image tiers, using standard tier", "bmi", img.BMI, "gender", gender)
	}
	return img
}

func (e *Engine) warnFallback(p Profile, images BodyImageTransition) {
	for _, img := range []BodyImage{images.Current, images.Future} {
		if img.Fallback {
			e.logger.Warn("bmi outside body image tiers, using standard tier", "profile_id", p.ID, "bmi", img.BMI, "gender", p.Gender)
		}
	}
}

// AnalyzeBatch validates every member, splits the shared intake once, then
// runs the per-member pipelines concurrently.
func (e *Engine) AnalyzeBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	days, err := e.ResolveHorizon(req.HorizonDays)
	if err != nil {
		return BatchResult{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = e.cfg.BatchMode
	}
	result := BatchResult{HorizonDays: days, Mode: mode, Outcomes: make([]Outcome, len(req.Profiles))}
	if len(req.Profiles) == 0 {
		return result, nil
	}

	shared := req.SharedIntake != nil
	if shared {
		if err := ValidateSharedIntake(*req.SharedIntake); err != nil {
			return BatchResult{}, err
		}
		result.Allocation = req.Allocation
		if result.Allocation == "" {
			result.Allocation = e.cfg.Allocation
		}
	}

	profiles := make([]Profile, len(req.Profiles))
	errs := make([]error, len(req.Profiles))
	for i, in := range req.Profiles {
		result.Outcomes[i] = Outcome{Index: i, ProfileID: in.ID}
		in.Intake = nilIf(shared, in.Intake)
		profiles[i], errs[i] = ParseProfile(in, !shared)
		if errs[i] != nil && mode == BatchModeFailFast {
			return BatchResult{}, &MemberError{Index: i, ID: in.ID, Err: errs[i]}
		}
	}

	if shared {
		valid := make([]int, 0, len(profiles))
		members := make([]Profile, 0, len(profiles))
		for i, p := range profiles {
			if errs[i] == nil {
				valid = append(valid, i)
				members = append(members, p)
			}
		}
		parts := Allocate(*req.SharedIntake, members, result.Allocation)
		for k, i := range valid {
			profiles[i], errs[i] = profiles[i].WithIntake(parts[k])
			if errs[i] != nil && mode == BatchModeFailFast {
				return BatchResult{}, &MemberError{Index: i, ID: req.Profiles[i].ID, Err: errs[i]}
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range profiles {
		if errs[i] != nil {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := e.AnalyzeProfile(profiles[i], days)
			result.Outcomes[i].Result = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	for i, err := range errs {
		if err != nil {
			result.Outcomes[i].Failure = newFailure(err)
			e.logger.Warn("member analysis rejected", "index", i, "profile_id", req.Profiles[i].ID, "error", err)
		}
	}
	return result, nil
}

func newFailure(err error) *Failure {
	f := &Failure{Message: err.Error()}
	var many ValidationErrors
	var one ValidationError
	switch {
	case errors.As(err, &many):
		f.Fields = many
	case errors.As(err, &one):
		f.Fields = []ValidationError{one}
	}
	return f
}

func nilIf(cond bool, intake *Intake) *Intake {
	if cond {
		return nil
	}
	return intake
}
