package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// Compile-time interface verification.
var (
	_ KV     = (*FileKV)(nil)
	_ Pinger = (*FileKV)(nil)
)

// FileKV stores each collection as a JSON array of {id, record} objects in
// <dir>/<collection>.json. Writes replace the file atomically.
type FileKV struct {
	dir    string
	logger *logger.Logger
	mu     sync.Mutex
}

type fileEntry struct {
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record"`
}

// NewFileKV creates dir if needed and returns a store rooted there.
func NewFileKV(dir string, log *logger.Logger) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileKV{dir: dir, logger: log}, nil
}

func (f *FileKV) path(collection string) string {
	return filepath.Join(f.dir, collection+".json")
}

// load reads a collection. A missing file is empty; a corrupt file is logged
// and treated as empty.
func (f *FileKV) load(collection string) ([]fileEntry, error) {
	data, err := os.ReadFile(f.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		f.logger.Error("corrupt collection file, treating as empty",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return nil, nil
	}
	return entries, nil
}

func (f *FileKV) save(collection string, entries []fileEntry) error {
	if entries == nil {
		entries = []fileEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}

	tmp, err := os.CreateTemp(f.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close collection %s: %w", collection, err)
	}
	if err := os.Rename(tmp.Name(), f.path(collection)); err != nil {
		return fmt.Errorf("replace collection %s: %w", collection, err)
	}
	return nil
}

func (f *FileKV) Put(_ context.Context, collection, id string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("put %s/%s: value is not valid JSON", collection, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load(collection)
	if err != nil {
		return err
	}

	replaced := false
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Record = value
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, fileEntry{ID: id, Record: value})
	}
	return f.save(collection, entries)
}

func (f *FileKV) Get(_ context.Context, collection, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load(collection)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == id {
			return []byte(e.Record), nil
		}
	}
	return nil, ErrNotFound
}

func (f *FileKV) List(_ context.Context, collection string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load(collection)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{ID: e.ID, Value: []byte(e.Record)}
	}
	return out, nil
}

func (f *FileKV) Delete(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load(collection)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.ID == id {
			return f.save(collection, append(entries[:i], entries[i+1:]...))
		}
	}
	return ErrNotFound
}

// Ping checks that the data directory is still accessible.
func (f *FileKV) Ping(_ context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.dir)
	}
	return nil
}
