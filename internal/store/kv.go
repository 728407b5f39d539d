// Package store persists runs, prompt versions, conversation reviews and
// snippet notes in a key-value capability.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Collection names.
const (
	CollectionRuns          = "eval_runs"
	CollectionPrompts       = "prompt_versions"
	CollectionCurrentPrompt = "current_prompt_version"
	CollectionAnnotations   = "conversation_evaluations_v01"
	CollectionSnippetNotes  = "conversation_annotations"
)

// Entry is one stored record.
type Entry struct {
	ID    string
	Value []byte
}

// KV is a collection-scoped key-value store. Values are JSON documents. Put on
// an existing id replaces the value (last write wins).
type KV interface {
	Put(ctx context.Context, collection, id string, value []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	// List returns every entry of the collection in insertion order.
	List(ctx context.Context, collection string) ([]Entry, error)
	Delete(ctx context.Context, collection, id string) error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
