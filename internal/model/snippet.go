package model

import "time"

// Snippet is a labelled excerpt of question/answer turns for open coding.
type Snippet struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Turns []SnippetTurn `json:"turns"`
}

// SnippetTurn is one question and the answer under review.
type SnippetTurn struct {
	MessageID string `json:"messageId"`
	Input     string `json:"input"`
	Response  string `json:"response"`
}

// SnippetAnnotation is the free-text note a reviewer left on a snippet.
type SnippetAnnotation struct {
	SnippetID  string    `json:"snippetId"`
	Annotation string    `json:"annotation"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}
