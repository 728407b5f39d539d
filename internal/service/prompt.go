package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// Initial prompt version created when the store holds none.
const (
	InitialPromptID          = "v1"
	InitialPromptVersion     = "v2.3"
	InitialPromptDescription = "Initial version"
)

// CreatePromptRequest describes a new prompt version.
type CreatePromptRequest struct {
	Content     string `json:"content"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	MakeCurrent bool   `json:"makeCurrent"`
}

// PromptService manages versioned generator system prompts.
type PromptService struct {
	repo   *store.Prompts
	logger *logger.Logger
	now    func() time.Time
}

// NewPromptService creates a new prompt service.
func NewPromptService(repo *store.Prompts, log *logger.Logger) *PromptService {
	return &PromptService{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// Initialize returns the current prompt version. Without a valid current
// pointer the latest stored version becomes current; with no versions at all
// one is created from content.
func (s *PromptService) Initialize(ctx context.Context, content string) (*model.PromptVersion, error) {
	cur, err := s.repo.Current(ctx)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load current prompt: %w", err)
	}

	versions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prompt versions: %w", err)
	}
	if len(versions) > 0 {
		latest := versions[len(versions)-1]
		if err := s.repo.SetCurrent(ctx, latest.ID); err != nil {
			return nil, fmt.Errorf("set current prompt: %w", err)
		}
		s.logger.Info("current prompt reset to latest version", zap.String("prompt_id", latest.ID))
		return &latest, nil
	}

	first := &model.PromptVersion{
		ID:          InitialPromptID,
		Version:     InitialPromptVersion,
		Content:     content,
		CreatedAt:   s.now().UnixMilli(),
		Description: InitialPromptDescription,
	}
	if err := s.repo.Save(ctx, first); err != nil {
		return nil, fmt.Errorf("save initial prompt: %w", err)
	}
	if err := s.repo.SetCurrent(ctx, first.ID); err != nil {
		return nil, fmt.Errorf("set current prompt: %w", err)
	}
	s.logger.Info("initial prompt version created", zap.String("prompt_id", first.ID))
	return first, nil
}

// Current returns the current prompt version.
func (s *PromptService) Current(ctx context.Context) (*model.PromptVersion, error) {
	pv, err := s.repo.Current(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("current prompt: %w", ErrNotFound)
	}
	return pv, err
}

// List returns every prompt version in creation order.
func (s *PromptService) List(ctx context.Context) ([]model.PromptVersion, error) {
	return s.repo.List(ctx)
}

// Create stores a new prompt version with the next free "v<n>" id.
func (s *PromptService) Create(ctx context.Context, req CreatePromptRequest) (*model.PromptVersion, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	versions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prompt versions: %w", err)
	}
	taken := make(map[string]bool, len(versions))
	for _, v := range versions {
		taken[v.ID] = true
	}
	n := len(versions) + 1
	for taken[fmt.Sprintf("v%d", n)] {
		n++
	}
	id := fmt.Sprintf("v%d", n)

	version := req.Version
	if version == "" {
		version = id
	}

	pv := &model.PromptVersion{
		ID:          id,
		Version:     version,
		Content:     req.Content,
		CreatedAt:   s.now().UnixMilli(),
		Description: req.Description,
	}
	if err := s.repo.Save(ctx, pv); err != nil {
		return nil, fmt.Errorf("save prompt: %w", err)
	}
	if req.MakeCurrent {
		if err := s.repo.SetCurrent(ctx, pv.ID); err != nil {
			return nil, fmt.Errorf("set current prompt: %w", err)
		}
	}

	s.logger.Info("prompt version created",
		zap.String("prompt_id", pv.ID),
		zap.String("version", pv.Version),
		zap.Bool("current", req.MakeCurrent),
	)
	return pv, nil
}

// SetCurrent makes the version with id current.
func (s *PromptService) SetCurrent(ctx context.Context, id string) (*model.PromptVersion, error) {
	if err := s.repo.SetCurrent(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("prompt version %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
