package conversation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/conversation"
	"github.com/capitalize-ai/assistant-evaluator/internal/csvparse"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

var header = []string{
	"conversation_id", "message_number", "annotation", "year", "month", "day",
	"time", "message_type", "intent_names", "content_anonymized", "message_id",
}

func row(convID, annotation, month, day, clock, msgType, content, msgID string) []string {
	return []string{convID, "1", annotation, "2024", month, day, clock, msgType, "", content, msgID}
}

func TestAssemble_Scenario(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		header,
		row("c1", "", "01", "01", "09:00", "USER", "hi", "m1"),
		row("c1", "", "01", "01", "09:01", "AGENT", "hello", "m2"),
	}

	convs := conversation.Assemble(rows, conversation.DefaultSchema)

	require.Len(t, convs, 1)
	assert.Equal(t, "c1", convs[0].ID)
	require.Len(t, convs[0].Messages, 2)
	assert.Equal(t, "hi", convs[0].Messages[0].Content)
	assert.Equal(t, model.MessageTypeUser, convs[0].Messages[0].Type)
	assert.Equal(t, "hello", convs[0].Messages[1].Content)
	assert.Equal(t, model.MessageTypeAgent, convs[0].Messages[1].Type)
	assert.Equal(t, "2024-01-01 09:00", convs[0].Messages[0].Timestamp)
}

func TestAssemble_Filters(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		header,
		// only user messages
		row("users-only", "", "1", "1", "09:00", "USER_MESSAGE", "a", "1"),
		row("users-only", "", "1", "1", "09:01", "USER_MESSAGE", "b", "2"),
		// only agent message
		row("agent-only", "", "1", "1", "09:00", "AGENT_MESSAGE", "a", "3"),
		// null and empty content dropped, leaving a single message
		row("nulls", "", "1", "1", "09:00", "USER_MESSAGE", "null", "4"),
		row("nulls", "", "1", "1", "09:01", "AGENT_MESSAGE", "   ", "5"),
		row("nulls", "", "1", "1", "09:02", "AGENT_MESSAGE", "ok", "6"),
		// short row dropped
		{"short", "1", ""},
		// blank line from the parser
		{""},
		// valid
		row("valid", "", "1", "1", "09:00", "USER_MESSAGE", "q", "7"),
		row("valid", "", "1", "1", "09:01", "AGENT_MESSAGE", "a", "8"),
	}

	convs := conversation.Assemble(rows, conversation.DefaultSchema)

	require.Len(t, convs, 1)
	assert.Equal(t, "valid", convs[0].ID)
}

func TestAssemble_SortsByPaddedTimestamp(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		header,
		row("c", "", "10", "2", "08:00", "AGENT_MESSAGE", "october", "3"),
		row("c", "", "9", "15", "08:00", "USER_MESSAGE", "september", "1"),
		row("c", "", "9", "3", "08:00", "AGENT_MESSAGE", "early september", "2"),
	}

	convs := conversation.Assemble(rows, conversation.DefaultSchema)

	require.Len(t, convs, 1)
	var contents []string
	for _, m := range convs[0].Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"early september", "september", "october"}, contents)
}

func TestAssemble_FirstAnnotationWins(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		header,
		row("c", "", "1", "1", "09:00", "USER", "q", "1"),
		row("c", " first note ", "1", "1", "09:01", "AGENT", "a", "2"),
		row("c", "second note", "1", "1", "09:02", "USER", "q2", "3"),
	}

	convs := conversation.Assemble(rows, conversation.DefaultSchema)

	require.Len(t, convs, 1)
	assert.Equal(t, "first note", convs[0].Annotation)
}

func TestAssemble_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		header,
		row("b", "", "1", "1", "09:00", "USER", "q", "1"),
		row("a", "", "1", "1", "09:00", "USER", "q", "2"),
		row("b", "", "1", "1", "09:01", "AGENT", "x", "3"),
		row("a", "", "1", "1", "09:01", "AGENT", "x", "4"),
	}

	convs := conversation.Assemble(rows, conversation.DefaultSchema)

	require.Len(t, convs, 2)
	assert.Equal(t, "b", convs[0].ID)
	assert.Equal(t, "a", convs[1].ID)
}

func TestAssemble_Invariants(t *testing.T) {
	t.Parallel()

	text := csvparse.Render([][]string{
		header,
		row("c1", "", "3", "1", "10:00", "AGENT_MESSAGE", "Antwort, mit Komma", "2"),
		row("c1", "", "3", "1", "09:59", "USER_MESSAGE", "Frage\nmit Zeilenumbruch", "1"),
		row("c2", "", "3", "1", "11:00", "USER_MESSAGE", `"quoted" question`, "3"),
		row("c2", "", "3", "1", "11:05", "AGENT_MESSAGE", "reply", "4"),
		row("c2", "", "3", "1", "11:03", "USER_MESSAGE", "follow-up", "5"),
		row("c3", "", "3", "1", "12:00", "USER_MESSAGE", "lonely", "6"),
	})

	first := conversation.Assemble(csvparse.Parse(text), conversation.DefaultSchema)
	second := conversation.Assemble(csvparse.Parse(text), conversation.DefaultSchema)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "Frage\nmit Zeilenumbruch", first[0].Messages[0].Content)

	for _, conv := range first {
		var users, agents int
		for i, m := range conv.Messages {
			switch m.Type {
			case model.MessageTypeUser:
				users++
			case model.MessageTypeAgent:
				agents++
			}
			if i > 0 {
				assert.LessOrEqual(t, conv.Messages[i-1].Timestamp, m.Timestamp)
			}
		}
		assert.GreaterOrEqual(t, users, 1)
		assert.GreaterOrEqual(t, agents, 1)
		assert.GreaterOrEqual(t, len(conv.Messages), 2)
	}
}

func TestAssemble_HeaderOnly(t *testing.T) {
	t.Parallel()

	assert.Empty(t, conversation.Assemble([][]string{header}, conversation.DefaultSchema))
	assert.Empty(t, conversation.Assemble(nil, conversation.DefaultSchema))
}

func TestSchemaFromHeader(t *testing.T) {
	t.Parallel()

	t.Run("default layout", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, conversation.DefaultSchema, conversation.SchemaFromHeader(header))
	})

	t.Run("reordered columns", func(t *testing.T) {
		t.Parallel()

		s := conversation.SchemaFromHeader([]string{
			"message_id", "conversation_id", "content_anonymized", "message_type",
			"year", "month", "day", "time", "annotation",
		})

		assert.Equal(t, 0, s.MessageID)
		assert.Equal(t, 1, s.ConversationID)
		assert.Equal(t, 2, s.Content)
		assert.Equal(t, 8, s.Annotation)
		assert.Equal(t, 9, s.Width)
	})

	t.Run("unknown header falls back", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, conversation.DefaultSchema, conversation.SchemaFromHeader([]string{"a", "b"}))
	})
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-03-07 9:05", conversation.Timestamp("2024", "3", "7", "9:05"))
	assert.Equal(t, "2024-12-31 23:59", conversation.Timestamp("2024", "12", "31", "23:59"))
}
