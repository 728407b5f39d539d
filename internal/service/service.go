// Package service provides the business logic behind the HTTP API: prompt
// versions, conversation annotations, snippet notes and run history.
package service

import "errors"

var (
	// ErrNotFound is returned when a conversation, snippet, run, pair or
	// prompt version does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)
