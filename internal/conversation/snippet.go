package conversation

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/capitalize-ai/assistant-evaluator/internal/csvparse"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

// Snippet export columns: snippet_id, snippet_name, message_id, input_text,
// evaluation_text.
const snippetWidth = 5

// AssembleSnippets groups snippet rows by snippet id in first-seen order and
// sorts each snippet's turns by message id. The first row is the header.
// Rows with fewer than five fields or no snippet id are skipped.
func AssembleSnippets(rows [][]string) []model.Snippet {
	var (
		order []string
		byID  = make(map[string]*model.Snippet)
	)

	for i, row := range rows {
		if i == 0 || len(row) < snippetWidth {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			continue
		}

		s, ok := byID[id]
		if !ok {
			s = &model.Snippet{ID: id, Name: strings.TrimSpace(row[1])}
			byID[id] = s
			order = append(order, id)
		}
		s.Turns = append(s.Turns, model.SnippetTurn{
			MessageID: strings.TrimSpace(row[2]),
			Input:     strings.TrimSpace(row[3]),
			Response:  strings.TrimSpace(row[4]),
		})
	}

	out := make([]model.Snippet, 0, len(order))
	for _, id := range order {
		s := byID[id]
		sort.SliceStable(s.Turns, func(a, b int) bool {
			return s.Turns[a].MessageID < s.Turns[b].MessageID
		})
		out = append(out, *s)
	}
	return out
}

// ExportSnippets writes snippet_id, snippet_name, turn_count and the note of
// each snippet as CSV.
func ExportSnippets(w io.Writer, snippets []model.Snippet, notes map[string]string) error {
	rows := make([][]string, 0, len(snippets)+1)
	rows = append(rows, []string{"snippet_id", "snippet_name", "turn_count", "annotation"})
	for _, s := range snippets {
		rows = append(rows, []string{s.ID, s.Name, strconv.Itoa(len(s.Turns)), notes[s.ID]})
	}
	return csvparse.Write(w, rows)
}
