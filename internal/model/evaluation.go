package model

import "strconv"

// Criterion is one rubric item judged by the language model.
type Criterion struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Prompt      string `json:"prompt" yaml:"prompt"`
}

// CriterionEvaluation is the verdict for one (QAPair, Criterion) pair.
type CriterionEvaluation struct {
	CriterionID string `json:"criterionId"`
	Passed      bool   `json:"passed"`
	Reasoning   string `json:"reasoning"`
}

// Evaluation holds the judge's verdicts for a QAPair and optional human ones.
type Evaluation struct {
	LLMEvaluations   []CriterionEvaluation `json:"llmEvaluations"`
	LLMScore         float64               `json:"llmScore"`
	HumanEvaluations []CriterionEvaluation `json:"humanEvaluations,omitempty"`
	HumanScore       *float64              `json:"humanScore,omitempty"`
}

// Clone returns a deep copy.
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	c := *e
	c.LLMEvaluations = append([]CriterionEvaluation(nil), e.LLMEvaluations...)
	c.HumanEvaluations = append([]CriterionEvaluation(nil), e.HumanEvaluations...)
	if e.HumanScore != nil {
		s := *e.HumanScore
		c.HumanScore = &s
	}
	return &c
}

// QAPair is one question, its generated answer and optional evaluation.
type QAPair struct {
	ID         string      `json:"id"`
	Question   string      `json:"question"`
	Answer     string      `json:"answer"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// Clone returns a deep copy.
func (p QAPair) Clone() QAPair {
	p.Evaluation = p.Evaluation.Clone()
	return p
}

// PassRate returns passed/total for the evaluations, 0 for an empty slice.
func PassRate(evals []CriterionEvaluation) float64 {
	if len(evals) == 0 {
		return 0
	}
	passed := 0
	for _, e := range evals {
		if e.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(evals))
}

// PairID is the id of the QAPair at index i of the question set.
func PairID(i int) string {
	return "pair-" + strconv.Itoa(i)
}

// UpsertEvaluation returns a copy of evals with e replacing the entry for the
// same criterion, or appended when there is none.
func UpsertEvaluation(evals []CriterionEvaluation, e CriterionEvaluation) []CriterionEvaluation {
	out := append([]CriterionEvaluation(nil), evals...)
	for i := range out {
		if out[i].CriterionID == e.CriterionID {
			out[i] = e
			return out
		}
	}
	return append(out, e)
}
