package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCriteria(t *testing.T) {
	t.Parallel()

	t.Run("loads JSON criteria", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "criteria.json", `[
  {"id": "tone", "name": "Tone", "description": "Friendly", "prompt": "Is the answer friendly?"},
  {"id": "links", "name": "Links", "description": "Valid links", "prompt": "Are links valid?"}
]`)

		criteria, err := dataset.LoadCriteria(path)

		require.NoError(t, err)
		require.Len(t, criteria, 2)
		assert.Equal(t, "tone", criteria[0].ID)
		assert.Equal(t, "Are links valid?", criteria[1].Prompt)
	})

	t.Run("loads YAML criteria", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "criteria.yaml", "- id: tone\n  name: Tone\n  prompt: |\n    Is it friendly?\n")

		criteria, err := dataset.LoadCriteria(path)

		require.NoError(t, err)
		require.Len(t, criteria, 1)
		assert.Equal(t, "Is it friendly?\n", criteria[0].Prompt)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "criteria.json", `[{"id": "a"}, {"id": "a"}]`)

		_, err := dataset.LoadCriteria(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("rejects empty file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "criteria.json", `[]`)

		_, err := dataset.LoadCriteria(path)

		require.ErrorIs(t, err, dataset.ErrEmpty)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := dataset.LoadCriteria("/nonexistent/criteria.json")

		require.Error(t, err)
	})
}

func TestLoadQuestions(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sample-inputs.json", `["Wie ändere ich mein Passwort?", "Where is my invoice?"]`)

	questions, err := dataset.LoadQuestions(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"Wie ändere ich mein Passwort?", "Where is my invoice?"}, questions)
}

func TestLoadRubric_BuiltIn(t *testing.T) {
	t.Parallel()

	categories, err := dataset.LoadRubric("")

	require.NoError(t, err)
	require.Len(t, categories, 7)
	assert.Equal(t, "sprache", categories[0].ID)
	assert.Len(t, categories[0].Criteria, 5)

	last := categories[len(categories)-1]
	assert.Equal(t, "hard_rules", last.ID)
	assert.True(t, last.HardRule)
	assert.Len(t, last.Criteria, 4)
}
