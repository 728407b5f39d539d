package orchestrator

import "github.com/capitalize-ai/assistant-evaluator/internal/model"

// Aggregate summarises pairs. The LLM score is the mean llmScore of pairs
// with an evaluation; per-criterion LLM scores are pass rates over the same
// pairs. Human scores cover only pairs and criteria with a human verdict and
// stay nil when there is none. Empty sets score 0.
func Aggregate(pairs []model.QAPair, criteria []model.Criterion) model.AggregateScores {
	var (
		evaluated  int
		llmTotal   float64
		humanCount int
		humanTotal float64
	)
	llmPassed := make(map[string]int, len(criteria))
	humanPassed := make(map[string]int)
	humanJudged := make(map[string]int)

	for _, p := range pairs {
		if p.Evaluation == nil {
			continue
		}
		evaluated++
		llmTotal += p.Evaluation.LLMScore
		for _, e := range p.Evaluation.LLMEvaluations {
			if e.Passed {
				llmPassed[e.CriterionID]++
			}
		}

		if p.Evaluation.HumanScore != nil {
			humanCount++
			humanTotal += *p.Evaluation.HumanScore
		}
		for _, e := range p.Evaluation.HumanEvaluations {
			humanJudged[e.CriterionID]++
			if e.Passed {
				humanPassed[e.CriterionID]++
			}
		}
	}

	scores := model.AggregateScores{
		LLM:          ratio(llmTotal, evaluated),
		PerCriterion: make(map[string]model.CriterionScores, len(criteria)),
	}
	if humanCount > 0 {
		h := humanTotal / float64(humanCount)
		scores.Human = &h
	}

	for _, c := range criteria {
		cs := model.CriterionScores{LLM: ratio(float64(llmPassed[c.ID]), evaluated)}
		if n := humanJudged[c.ID]; n > 0 {
			h := float64(humanPassed[c.ID]) / float64(n)
			cs.Human = &h
		}
		scores.PerCriterion[c.ID] = cs
	}
	return scores
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
