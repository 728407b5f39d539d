package conversation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/conversation"
	"github.com/capitalize-ai/assistant-evaluator/internal/csvparse"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

func TestAssembleSnippets(t *testing.T) {
	t.Parallel()

	rows := csvparse.Parse(`snippet_id,snippet_name,message_id,input_text,evaluation_text
s2,Returns,m2, second question ,"answer, with comma"
s1,Shipping,m9,late,sorry
s2,Returns,m1,first question,first answer
s3,Broken,m1,too,short,extra
short,row
,nameless,m1,q,a
`)

	snippets := conversation.AssembleSnippets(rows)

	require.Len(t, snippets, 3)
	assert.Equal(t, "s2", snippets[0].ID)
	assert.Equal(t, "Returns", snippets[0].Name)
	assert.Equal(t, []model.SnippetTurn{
		{MessageID: "m1", Input: "first question", Response: "first answer"},
		{MessageID: "m2", Input: "second question", Response: "answer, with comma"},
	}, snippets[0].Turns)
	assert.Equal(t, "s1", snippets[1].ID)
	assert.Len(t, snippets[1].Turns, 1)
	assert.Equal(t, "s3", snippets[2].ID)
	assert.Equal(t, "short", snippets[2].Turns[0].Response)
}

func TestAssembleSnippets_HeaderOnly(t *testing.T) {
	t.Parallel()

	assert.Empty(t, conversation.AssembleSnippets(nil))
	assert.Empty(t, conversation.AssembleSnippets([][]string{
		{"snippet_id", "snippet_name", "message_id", "input_text", "evaluation_text"},
	}))
}

func TestExportSnippets(t *testing.T) {
	t.Parallel()

	snippets := []model.Snippet{
		{ID: "s1", Name: "Shipping", Turns: make([]model.SnippetTurn, 2)},
		{ID: "s2", Name: "Returns, refunds", Turns: make([]model.SnippetTurn, 1)},
	}
	notes := map[string]string{"s1": `tone "off"`}

	var b strings.Builder
	require.NoError(t, conversation.ExportSnippets(&b, snippets, notes))

	assert.Equal(t, "snippet_id,snippet_name,turn_count,annotation\n"+
		"s1,Shipping,2,\"tone \"\"off\"\"\"\n"+
		"s2,\"Returns, refunds\",1,\n", b.String())
}
