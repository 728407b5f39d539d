package csvparse_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/csvparse"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "simple rows",
			input: "a,b,c\n1,2,3\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "trailing row without newline",
			input: "a,b\n1,2",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "quoted comma",
			input: `x,"hello, world",y` + "\n",
			want:  [][]string{{"x", "hello, world", "y"}},
		},
		{
			name:  "quoted newline",
			input: "id,\"line one\nline two\"\n2,b\n",
			want:  [][]string{{"id", "line one\nline two"}, {"2", "b"}},
		},
		{
			name:  "escaped quotes",
			input: `"she said ""hi""",b` + "\n",
			want:  [][]string{{`she said "hi"`, "b"}},
		},
		{
			name:  "crlf normalised",
			input: "a,b\r\n1,2\r\n",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "carriage return inside quotes kept",
			input: "\"a\r\nb\",c\n",
			want:  [][]string{{"a\r\nb", "c"}},
		},
		{
			name:  "blank line yields one empty field",
			input: "a,b\n\n1,2\n",
			want:  [][]string{{"a", "b"}, {""}, {"1", "2"}},
		},
		{
			name:  "trailing comma at end of input",
			input: "a,",
			want:  [][]string{{"a", ""}},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "stray quote mid field toggles",
			input: `ab"c,d"e,f` + "\n",
			want:  [][]string{{"abc,de", "f"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, csvparse.Parse(tt.input))
		})
	}
}

func TestParseReader(t *testing.T) {
	t.Parallel()

	rows, err := csvparse.ParseReader(strings.NewReader("a,\"b\nc\"\n"))

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b\nc"}}, rows)
}

func TestEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", csvparse.Escape("plain"))
	assert.Equal(t, `"a,b"`, csvparse.Escape("a,b"))
	assert.Equal(t, `"say ""x"""`, csvparse.Escape(`say "x"`))
	assert.Equal(t, "\"two\nlines\"", csvparse.Escape("two\nlines"))
	assert.Equal(t, "", csvparse.Escape(""))
}

func TestRender_RoundTrip(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"conversation_id", "content", "note"},
		{"c1", "hello, world", `she said "hi"`},
		{"c2", "first line\nsecond line", ""},
		{"c3", "\"quoted\"\r\nwindows", ",,,"},
		{""},
		{"", "", ""},
	}

	got := csvparse.Parse(csvparse.Render(rows))

	assert.Equal(t, rows, got)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	err := csvparse.Write(&b, [][]string{{"a", "b,c"}, {"1", "2"}})

	require.NoError(t, err)
	assert.Equal(t, "a,\"b,c\"\n1,2\n", b.String())
}
