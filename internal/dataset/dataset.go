// Package dataset loads the static inputs of an evaluation: the judge
// criteria, the sample questions and the conversation review rubric.
//
// Files may be JSON or YAML; both are decoded with yaml.v3, which accepts JSON
// documents as YAML.
package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
)

//go:embed rubric.yaml
var defaultRubric []byte

// ErrEmpty is returned when a dataset file decodes to no entries.
var ErrEmpty = errors.New("dataset is empty")

// LoadCriteria reads the judge criteria from path.
func LoadCriteria(path string) ([]model.Criterion, error) {
	var criteria []model.Criterion
	if err := decodeFile(path, &criteria); err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		return nil, fmt.Errorf("criteria %s: %w", path, ErrEmpty)
	}
	seen := make(map[string]bool, len(criteria))
	for i, c := range criteria {
		if c.ID == "" {
			return nil, fmt.Errorf("criteria %s: entry %d has no id", path, i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("criteria %s: duplicate id %q", path, c.ID)
		}
		seen[c.ID] = true
	}
	return criteria, nil
}

// LoadQuestions reads the sample questions, a list of strings, from path.
func LoadQuestions(path string) ([]string, error) {
	var questions []string
	if err := decodeFile(path, &questions); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("questions %s: %w", path, ErrEmpty)
	}
	return questions, nil
}

// LoadRubric reads the conversation review rubric from path. An empty path
// returns the built-in rubric.
func LoadRubric(path string) ([]model.RubricCategory, error) {
	var categories []model.RubricCategory
	if path == "" {
		if err := yaml.Unmarshal(defaultRubric, &categories); err != nil {
			return nil, fmt.Errorf("built-in rubric: %w", err)
		}
		return categories, nil
	}
	if err := decodeFile(path, &categories); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("rubric %s: %w", path, ErrEmpty)
	}
	return categories, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
