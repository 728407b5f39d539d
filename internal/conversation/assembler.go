// Package conversation turns flat message rows from a CSV export into
// conversations and scores human reviews of them.
package conversation

import (
	"sort"
	"strings"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

// Schema maps the columns of a message export. Rows with fewer than Width
// fields are dropped.
type Schema struct {
	ConversationID int
	Annotation     int
	Year           int
	Month          int
	Day            int
	Time           int
	MessageType    int
	Content        int
	MessageID      int
	Width          int
}

// DefaultSchema is the layout of the representative-sample export:
// conversation_id, message_number, annotation, year, month, day, time,
// message_type, intent_names, content_anonymized, message_id.
var DefaultSchema = Schema{
	ConversationID: 0,
	Annotation:     2,
	Year:           3,
	Month:          4,
	Day:            5,
	Time:           6,
	MessageType:    7,
	Content:        9,
	MessageID:      10,
	Width:          11,
}

var headerColumns = map[string]func(*Schema) *int{
	"conversation_id":    func(s *Schema) *int { return &s.ConversationID },
	"annotation":         func(s *Schema) *int { return &s.Annotation },
	"year":               func(s *Schema) *int { return &s.Year },
	"month":              func(s *Schema) *int { return &s.Month },
	"day":                func(s *Schema) *int { return &s.Day },
	"time":               func(s *Schema) *int { return &s.Time },
	"message_type":       func(s *Schema) *int { return &s.MessageType },
	"content_anonymized": func(s *Schema) *int { return &s.Content },
	"message_id":         func(s *Schema) *int { return &s.MessageID },
}

// SchemaFromHeader resolves the column positions from a header row. It falls
// back to DefaultSchema unless every known column is present.
func SchemaFromHeader(header []string) Schema {
	s := Schema{}
	found := 0
	for i, name := range header {
		col, ok := headerColumns[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		*col(&s) = i
		found++
		if i+1 > s.Width {
			s.Width = i + 1
		}
	}
	if found != len(headerColumns) {
		return DefaultSchema
	}
	return s
}

// Assemble groups rows (header first) into conversations in first-seen order.
//
// Rows shorter than the schema and rows with empty or "null" content are
// skipped. The first non-empty annotation seen for a conversation is kept.
// Only conversations with at least one USER and one AGENT message survive, and
// their messages are sorted by timestamp.
func Assemble(rows [][]string, schema Schema) []model.Conversation {
	if len(rows) < 2 {
		return nil
	}

	var order []string
	byID := make(map[string]*model.Conversation)

	for _, values := range rows[1:] {
		if len(values) < schema.Width {
			continue
		}

		content := strings.TrimSpace(values[schema.Content])
		if content == "" || content == "null" {
			continue
		}

		id := values[schema.ConversationID]
		conv, ok := byID[id]
		if !ok {
			conv = &model.Conversation{ID: id}
			byID[id] = conv
			order = append(order, id)
		}

		if conv.Annotation == "" {
			conv.Annotation = strings.TrimSpace(values[schema.Annotation])
		}

		conv.Messages = append(conv.Messages, model.Message{
			ID:        values[schema.MessageID],
			Type:      model.ParseMessageType(values[schema.MessageType]),
			Content:   content,
			Timestamp: Timestamp(values[schema.Year], values[schema.Month], values[schema.Day], values[schema.Time]),
		})
	}

	conversations := make([]model.Conversation, 0, len(order))
	for _, id := range order {
		conv := byID[id]
		if !complete(conv) {
			continue
		}
		sort.SliceStable(conv.Messages, func(i, j int) bool {
			return conv.Messages[i].Timestamp < conv.Messages[j].Timestamp
		})
		conversations = append(conversations, *conv)
	}

	return conversations
}

// Timestamp builds a sortable "YYYY-MM-DD time" string, zero-padding month and
// day.
func Timestamp(year, month, day, clock string) string {
	return year + "-" + padTwo(month) + "-" + padTwo(day) + " " + clock
}

func padTwo(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

func complete(c *model.Conversation) bool {
	var user, agent bool
	for _, m := range c.Messages {
		switch m.Type {
		case model.MessageTypeUser:
			user = true
		case model.MessageTypeAgent:
			agent = true
		}
	}
	return user && agent && len(c.Messages) >= 2
}
