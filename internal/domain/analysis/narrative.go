package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanqian/nutriforecast/pkg/metrics"
)

const defaultNarrativePrompt = "You are a family nutrition coach. Summarise the forecast below in plain language " +
	"for the household in at most five short paragraphs. Mention each member by name, keep numbers as given " +
	"and do not invent data."

func (s *service) narrate(ctx context.Context, record Record) (string, metrics.TokenUsage, error) {
	system := s.cfg.NarrativePrompt
	if strings.TrimSpace(system) == "" {
		system = defaultNarrativePrompt
	}
	body := narrativeInput(record)
	if s.tokens != nil && s.cfg.MaxPromptTokens > 0 {
		budget := s.cfg.MaxPromptTokens - s.tokens.Count(system)
		if budget <= 0 {
			return "", metrics.TokenUsage{}, fmt.Errorf("system prompt exceeds %d tokens", s.cfg.MaxPromptTokens)
		}
		body = s.tokens.Truncate(body, budget)
	}

	answer, err := s.llm.Chat(ctx, []LLMMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: body},
	})
	if err != nil {
		return "", metrics.TokenUsage{}, err
	}
	answer = strings.TrimSpace(answer)

	var usage metrics.TokenUsage
	if s.tokens != nil {
		usage.PromptTokens = s.tokens.Count(system) + s.tokens.Count(body)
		usage.CompletionTokens = s.tokens.Count(answer)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return answer, usage, nil
}

// narrativeInput renders the record as compact text lines for the model.
func narrativeInput(record Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Horizon: %d days\n", record.Result.HorizonDays)
	if record.SharedIntake != nil {
		in := record.SharedIntake
		fmt.Fprintf(&b, "Shared daily intake: %.0f kcal, protein %.1f g, fat %.1f g, carbs %.1f g (split by %s)\n",
			in.Calories, in.ProteinG, in.FatG, in.CarbsG, record.Result.Allocation)
	}
	for _, o := range record.Result.Outcomes {
		if o.Failure != nil {
			fmt.Fprintf(&b, "- member %d: not analysed (%s)\n", o.Index+1, o.Failure.Message)
			continue
		}
		r := o.Result
		name := r.Profile.Name
		if name == "" {
			name = fmt.Sprintf("member %d", o.Index+1)
		}
		fmt.Fprintf(&b, "- %s, %s, %d years: %.1f kg now, %+.2f kg expected (fat %+.2f, muscle %+.2f), "+
			"intake %.0f of %.0f kcal baseline, synergy %.0f/100, body type %s to %s, phase %s\n",
			name, r.Profile.Gender, r.Profile.Age, r.Profile.WeightKG,
			r.Prediction.WeightShiftKG, r.Prediction.FatShiftKG, r.Prediction.MuscleShiftKG,
			r.Profile.Intake.Calories, r.Baseline.Calories, r.Prediction.SynergyScore,
			r.BodyImage.Current.Name, r.BodyImage.Future.Name, r.Advice.PlanPhase)
	}
	return b.String()
}
