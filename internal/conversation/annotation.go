package conversation

import (
	"math"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

// MergeAnnotations builds the working annotation set for conversations.
//
// Each conversation starts from its preloaded CSV annotation. A persisted
// record overrides the annotation text only when its own text is non-empty;
// its criteria and quality gate always win. Persisted records for unknown
// conversations are ignored.
func MergeAnnotations(conversations []model.Conversation, persisted map[string]model.ConversationAnnotation) map[string]model.ConversationAnnotation {
	merged := make(map[string]model.ConversationAnnotation, len(conversations))

	for _, conv := range conversations {
		a := model.ConversationAnnotation{
			ConversationID: conv.ID,
			Annotation:     conv.Annotation,
			Criteria:       map[string]bool{},
		}

		if p, ok := persisted[conv.ID]; ok {
			if p.Annotation != "" {
				a.Annotation = p.Annotation
			}
			for k, v := range p.Criteria {
				a.Criteria[k] = v
			}
			a.QualityGate = p.QualityGate
			a.UpdatedAt = p.UpdatedAt
		}

		merged[conv.ID] = a
	}

	return merged
}

// Apply returns a copy of a with the update applied.
func Apply(a model.ConversationAnnotation, u model.AnnotationUpdate) model.ConversationAnnotation {
	criteria := make(map[string]bool, len(a.Criteria)+len(u.Criteria))
	for k, v := range a.Criteria {
		criteria[k] = v
	}
	for k, v := range u.Criteria {
		criteria[k] = v
	}
	a.Criteria = criteria

	if u.Annotation != nil {
		a.Annotation = *u.Annotation
	}
	if u.ClearQualityGate {
		a.QualityGate = nil
	} else if u.QualityGate != nil {
		gate := *u.QualityGate
		a.QualityGate = &gate
	}
	return a
}

// Score evaluates an annotation against the rubric. The average covers the
// non-hard-rule categories only; hard rules pass when every hard-rule
// criterion is checked.
func Score(a model.ConversationAnnotation, categories []model.RubricCategory) model.ConversationScore {
	score := model.ConversationScore{
		CategoryScores: make(map[string]model.CategoryScore, len(categories)),
		HardRules:      true,
	}

	var totalPassed, totalCriteria int
	for _, cat := range categories {
		passed := 0
		for _, c := range cat.Criteria {
			if a.Criteria[c.ID] {
				passed++
			} else if cat.HardRule {
				score.HardRules = false
			}
		}

		total := len(cat.Criteria)
		score.CategoryScores[cat.ID] = model.CategoryScore{
			Passed:     passed,
			Total:      total,
			Percentage: percent(passed, total),
		}

		if !cat.HardRule {
			totalPassed += passed
			totalCriteria += total
		}
	}

	score.Average = percent(totalPassed, totalCriteria)
	return score
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
