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

// AnnotatedConversation is a conversation with its review and rubric score.
type AnnotatedConversation struct {
	Conversation model.Conversation           `json:"conversation"`
	Annotation   model.ConversationAnnotation `json:"annotation"`
	Score        model.ConversationScore      `json:"score"`
}

// AnnotationService holds the loaded conversation batch and its human
// reviews. Every change is written through to the store.
type AnnotationService struct {
	repo       *store.Annotations
	categories []model.RubricCategory
	criteria   map[string]bool
	logger     *logger.Logger
	now        func() time.Time

	mu            sync.RWMutex
	conversations []model.Conversation
	index         map[string]int
	annotations   map[string]model.ConversationAnnotation
}

// NewAnnotationService creates a service scoring against categories.
func NewAnnotationService(repo *store.Annotations, categories []model.RubricCategory, log *logger.Logger) *AnnotationService {
	criteria := make(map[string]bool)
	for _, cat := range categories {
		for _, c := range cat.Criteria {
			criteria[c.ID] = true
		}
	}
	return &AnnotationService{
		repo:        repo,
		categories:  categories,
		criteria:    criteria,
		logger:      log,
		now:         time.Now,
		index:       make(map[string]int),
		annotations: make(map[string]model.ConversationAnnotation),
	}
}

// Categories returns the rubric.
func (s *AnnotationService) Categories() []model.RubricCategory {
	return s.categories
}

// LoadFile loads conversations from a CSV export on disk.
func (s *AnnotationService) LoadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open conversations: %w", err)
	}
	defer f.Close()
	return s.Load(ctx, f)
}

// Load replaces the batch with the conversations of a CSV export and merges
// the stored reviews into it. The first row is the header.
func (s *AnnotationService) Load(ctx context.Context, r io.Reader) error {
	rows, err := csvparse.ParseReader(r)
	if err != nil {
		return fmt.Errorf("read conversations: %w", err)
	}

	schema := conversation.DefaultSchema
	if len(rows) > 0 {
		schema = conversation.SchemaFromHeader(rows[0])
	}
	// Assemble skips the header row itself.
	convs := conversation.Assemble(rows, schema)

	persisted, err := s.repo.All(ctx)
	if err != nil {
		s.logger.Error("failed to load stored annotations, starting empty", zap.Error(err))
		persisted = nil
	}
	merged := conversation.MergeAnnotations(convs, persisted)

	index := make(map[string]int, len(convs))
	for i, c := range convs {
		index[c.ID] = i
	}

	s.mu.Lock()
	s.conversations = convs
	s.index = index
	s.annotations = merged
	s.mu.Unlock()

	s.logger.Info("conversations loaded",
		zap.Int("rows", len(rows)),
		zap.Int("conversations", len(convs)),
		zap.Int("stored_annotations", len(persisted)),
	)
	return nil
}

// List returns the first limit conversations, or all when limit <= 0.
func (s *AnnotationService) List(limit int) []AnnotatedConversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := s.batchLocked(limit)
	out := make([]AnnotatedConversation, len(convs))
	for i, c := range convs {
		a := s.annotations[c.ID]
		out[i] = AnnotatedConversation{
			Conversation: c,
			Annotation:   a,
			Score:        conversation.Score(a, s.categories),
		}
	}
	return out
}

// Get returns one conversation.
func (s *AnnotationService) Get(id string) (*AnnotatedConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	a := s.annotations[id]
	return &AnnotatedConversation{
		Conversation: s.conversations[i],
		Annotation:   a,
		Score:        conversation.Score(a, s.categories),
	}, nil
}

// Update applies a partial update to a conversation's review.
func (s *AnnotationService) Update(ctx context.Context, id string, u model.AnnotationUpdate) (*model.ConversationAnnotation, error) {
	for c := range u.Criteria {
		if !s.criteria[c] {
			return nil, fmt.Errorf("%w: unknown criterion %s", ErrInvalidInput, c)
		}
	}
	return s.modify(ctx, id, func(a model.ConversationAnnotation) model.ConversationAnnotation {
		return conversation.Apply(a, u)
	})
}

// ToggleCriterion flips one rubric checkbox.
func (s *AnnotationService) ToggleCriterion(ctx context.Context, id, criterionID string) (*model.ConversationAnnotation, error) {
	if !s.criteria[criterionID] {
		return nil, fmt.Errorf("criterion %s: %w", criterionID, ErrNotFound)
	}
	return s.modify(ctx, id, func(a model.ConversationAnnotation) model.ConversationAnnotation {
		return conversation.Apply(a, model.AnnotationUpdate{
			Criteria: map[string]bool{criterionID: !a.Criteria[criterionID]},
		})
	})
}

// PassCategory checks every criterion of a rubric category.
func (s *AnnotationService) PassCategory(ctx context.Context, id, categoryID string) (*model.ConversationAnnotation, error) {
	var category *model.RubricCategory
	for i := range s.categories {
		if s.categories[i].ID == categoryID {
			category = &s.categories[i]
			break
		}
	}
	if category == nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}

	update := model.AnnotationUpdate{Criteria: make(map[string]bool, len(category.Criteria))}
	for _, c := range category.Criteria {
		update.Criteria[c.ID] = true
	}
	return s.modify(ctx, id, func(a model.ConversationAnnotation) model.ConversationAnnotation {
		return conversation.Apply(a, update)
	})
}

// Score returns the rubric score of a conversation.
func (s *AnnotationService) Score(id string) (model.ConversationScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index[id]; !ok {
		return model.ConversationScore{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return conversation.Score(s.annotations[id], s.categories), nil
}

// Stats counts reviewed conversations among the first limit. A conversation
// counts as annotated once it has annotation text or any criterion set.
func (s *AnnotationService) Stats(limit int) model.AnnotationStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := s.batchLocked(limit)
	stats := model.AnnotationStats{Total: len(convs)}
	for _, c := range convs {
		a := s.annotations[c.ID]
		if a.Annotation != "" || len(a.Criteria) > 0 {
			stats.Annotated++
		}
	}
	stats.Pending = stats.Total - stats.Annotated
	return stats
}

// Export writes the first limit conversations as CSV.
func (s *AnnotationService) Export(w io.Writer, limit int) error {
	s.mu.RLock()
	convs := s.batchLocked(limit)
	annotations := make(map[string]model.ConversationAnnotation, len(convs))
	for _, c := range convs {
		annotations[c.ID] = s.annotations[c.ID]
	}
	s.mu.RUnlock()

	return conversation.Export(w, convs, annotations, s.categories)
}

func (s *AnnotationService) batchLocked(limit int) []model.Conversation {
	if limit <= 0 || limit > len(s.conversations) {
		return s.conversations
	}
	return s.conversations[:limit]
}

// modify applies fn to a review and writes the result through. The in-memory
// review changes only when the write succeeds.
func (s *AnnotationService) modify(ctx context.Context, id string, fn func(model.ConversationAnnotation) model.ConversationAnnotation) (*model.ConversationAnnotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}

	next := fn(s.annotations[id])
	next.ConversationID = id
	next.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("save annotation: %w", err)
	}
	s.annotations[id] = next
	return &next, nil
}
