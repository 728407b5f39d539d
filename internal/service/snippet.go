package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/conversation"
	"github.com/capitalize-ai/assistant-evaluator/internal/csvparse"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// AnnotatedSnippet is a snippet with its open-coding note.
type AnnotatedSnippet struct {
	Snippet    model.Snippet `json:"snippet"`
	Annotation string        `json:"annotation"`
}

// SnippetService holds the loaded snippets and their free-text notes.
type SnippetService struct {
	repo   *store.SnippetNotes
	logger *logger.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snippets []model.Snippet
	index    map[string]int
	notes    map[string]string
}

// NewSnippetService creates a snippet service.
func NewSnippetService(repo *store.SnippetNotes, log *logger.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: log,
		now:    time.Now,
		index:  make(map[string]int),
		notes:  make(map[string]string),
	}
}

// LoadFile loads snippets from a CSV file on disk.
func (s *SnippetService) LoadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snippets: %w", err)
	}
	defer f.Close()
	return s.Load(ctx, f)
}

// Load replaces the snippets and merges the stored notes into them.
func (s *SnippetService) Load(ctx context.Context, r io.Reader) error {
	rows, err := csvparse.ParseReader(r)
	if err != nil {
		return fmt.Errorf("read snippets: %w", err)
	}
	snippets := conversation.AssembleSnippets(rows)

	stored, err := s.repo.All(ctx)
	if err != nil {
		s.logger.Error("failed to load stored snippet notes, starting empty", zap.Error(err))
		stored = nil
	}

	index := make(map[string]int, len(snippets))
	notes := make(map[string]string, len(stored))
	for i, sn := range snippets {
		index[sn.ID] = i
	}
	for id, n := range stored {
		notes[id] = n.Annotation
	}

	s.mu.Lock()
	s.snippets = snippets
	s.index = index
	s.notes = notes
	s.mu.Unlock()

	s.logger.Info("snippets loaded",
		zap.Int("snippets", len(snippets)),
		zap.Int("stored_notes", len(stored)),
	)
	return nil
}

// List returns the first limit snippets, or all when limit <= 0.
func (s *SnippetService) List(limit int) []AnnotatedSnippet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.batchLocked(limit)
	out := make([]AnnotatedSnippet, len(batch))
	for i, sn := range batch {
		out[i] = AnnotatedSnippet{Snippet: sn, Annotation: s.notes[sn.ID]}
	}
	return out
}

// Get returns one snippet.
func (s *SnippetService) Get(id string) (*AnnotatedSnippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("snippet %s: %w", id, ErrNotFound)
	}
	return &AnnotatedSnippet{Snippet: s.snippets[i], Annotation: s.notes[id]}, nil
}

// Annotate replaces the note of a snippet. An empty note marks it pending
// again.
func (s *SnippetService) Annotate(ctx context.Context, id, text string) (*model.SnippetAnnotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return nil, fmt.Errorf("snippet %s: %w", id, ErrNotFound)
	}

	note := &model.SnippetAnnotation{SnippetID: id, Annotation: text, UpdatedAt: s.now().UTC()}
	if err := s.repo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("save snippet note: %w", err)
	}
	s.notes[id] = text
	return note, nil
}

// Stats counts snippets with a non-empty note among the first limit.
func (s *SnippetService) Stats(limit int) model.AnnotationStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.batchLocked(limit)
	stats := model.AnnotationStats{Total: len(batch)}
	for _, sn := range batch {
		if s.notes[sn.ID] != "" {
			stats.Annotated++
		}
	}
	stats.Pending = stats.Total - stats.Annotated
	return stats
}

// Export writes the first limit snippets and their notes as CSV.
func (s *SnippetService) Export(w io.Writer, limit int) error {
	s.mu.RLock()
	batch := s.batchLocked(limit)
	notes := make(map[string]string, len(batch))
	for _, sn := range batch {
		notes[sn.ID] = s.notes[sn.ID]
	}
	s.mu.RUnlock()

	return conversation.ExportSnippets(w, batch, notes)
}

func (s *SnippetService) batchLocked(limit int) []model.Snippet {
	if limit <= 0 || limit > len(s.snippets) {
		return s.snippets
	}
	return s.snippets[:limit]
}
