// Package model defines data structures for the evaluation service.
package model

import "time"

// Conversation is an ordered exchange of USER/AGENT messages sharing an ID.
type Conversation struct {
	ID         string    `json:"id"`
	Messages   []Message `json:"messages"`
	Annotation string    `json:"annotation,omitempty"` // preloaded from the CSV
}

// TurnCount returns the number of USER messages.
func (c *Conversation) TurnCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Type == MessageTypeUser {
			n++
		}
	}
	return n
}

// ConversationAnnotation is a human review of one conversation.
type ConversationAnnotation struct {
	ConversationID string          `json:"conversationId"`
	Annotation     string          `json:"annotation"`
	Criteria       map[string]bool `json:"criteria"`
	QualityGate    *bool           `json:"qualityGate"`
	UpdatedAt      time.Time       `json:"updatedAt,omitempty"`
}

// AnnotationUpdate is a partial update of a ConversationAnnotation. Nil fields
// are left untouched; Criteria entries are merged key by key.
type AnnotationUpdate struct {
	Annotation       *string         `json:"annotation,omitempty"`
	Criteria         map[string]bool `json:"criteria,omitempty"`
	QualityGate      *bool           `json:"qualityGate,omitempty"`
	ClearQualityGate bool            `json:"clearQualityGate,omitempty"`
}

// RubricCriterion is one checkbox of the conversation review rubric.
type RubricCriterion struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// RubricCategory groups rubric criteria. Hard-rule categories are excluded from
// the average and must pass in full.
type RubricCategory struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	HardRule    bool              `json:"hardRule" yaml:"hard_rule"`
	Criteria    []RubricCriterion `json:"criteria" yaml:"criteria"`
}

// CategoryScore is the pass count of one rubric category.
type CategoryScore struct {
	Passed     int `json:"passed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ConversationScore summarises an annotation against the rubric.
type ConversationScore struct {
	CategoryScores map[string]CategoryScore `json:"categoryScores"`
	Average        int                      `json:"average"`
	HardRules      bool                     `json:"hardRules"`
}

// AnnotationStats counts annotated conversations in a batch.
type AnnotationStats struct {
	Total     int `json:"total"`
	Annotated int `json:"annotated"`
	Pending   int `json:"pending"`
}
