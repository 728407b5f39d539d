package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxContentLength   = 100000
	maxReasoningLength = 10000
	maxIDLength        = 128
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateContent validates free text such as a question, answer or prompt.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxContentLength {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateID validates a path identifier (run, pair, conversation, criterion
// or category id).
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > maxIDLength {
		return errors.New("id exceeds maximum length")
	}
	if !idPattern.MatchString(id) {
		return errors.New("invalid id format")
	}
	return nil
}

// ValidateReasoning validates a reviewer's reasoning.
func ValidateReasoning(reasoning string) error {
	if strings.TrimSpace(reasoning) == "" {
		return errors.New("reasoning is required")
	}
	if len(reasoning) > maxReasoningLength {
		return errors.New("reasoning exceeds maximum length")
	}
	if !utf8.ValidString(reasoning) {
		return errors.New("reasoning must be valid UTF-8")
	}
	return nil
}

// ValidateModel validates a model identifier. Empty selects the default.
func ValidateModel(model string) error {
	if model == "" {
		return nil
	}
	if len(model) > maxIDLength || !idPattern.MatchString(model) {
		return errors.New("invalid model identifier")
	}
	return nil
}
