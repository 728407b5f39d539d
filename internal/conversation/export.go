package conversation

import (
	"fmt"
	"io"
	"strconv"

	"github.com/capitalize-ai/assistant-evaluator/internal/csvparse"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

// Export writes one CSV row per conversation with its counts, annotation and
// rubric scores. Values are escaped field by field.
func Export(w io.Writer, conversations []model.Conversation, annotations map[string]model.ConversationAnnotation, categories []model.RubricCategory) error {
	header := []string{
		"conversation_id",
		"message_count",
		"turn_count",
		"annotation",
		"quality_gate",
		"average_score",
		"hard_rules",
	}
	for _, cat := range categories {
		header = append(header, cat.ID+"_score")
	}

	rows := make([][]string, 0, len(conversations)+1)
	rows = append(rows, header)

	for i := range conversations {
		conv := &conversations[i]
		a := annotations[conv.ID]
		score := Score(a, categories)

		row := []string{
			conv.ID,
			strconv.Itoa(len(conv.Messages)),
			strconv.Itoa(conv.TurnCount()),
			a.Annotation,
			qualityGate(a.QualityGate),
			strconv.Itoa(score.Average),
			passFail(score.HardRules),
		}
		for _, cat := range categories {
			cs := score.CategoryScores[cat.ID]
			row = append(row, fmt.Sprintf("%d/%d", cs.Passed, cs.Total))
		}
		rows = append(rows, row)
	}

	return csvparse.Write(w, rows)
}

func qualityGate(gate *bool) string {
	switch {
	case gate == nil:
		return ""
	case *gate:
		return "Yes"
	default:
		return "No"
	}
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
