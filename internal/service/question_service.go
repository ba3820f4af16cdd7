package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"partyroom/internal/cache"
	"partyroom/internal/model"
	"partyroom/internal/repository"
)

var validate = validator.New()

// ErrQuestionNotFound is returned for unknown question ids
var ErrQuestionNotFound = repository.ErrQuestionNotFound

// QuestionService serves the question pool to the orchestrator and backs
// the admin CRUD endpoints
type QuestionService struct {
	repo      repository.QuestionRepo
	poolCache cache.PoolCache
	log       *slog.Logger
}

// NewQuestionService creates a question service. poolCache may be nil.
func NewQuestionService(repo repository.QuestionRepo, poolCache cache.PoolCache, log *slog.Logger) *QuestionService {
	if log == nil {
		log = slog.Default()
	}
	return &QuestionService{
		repo:      repo,
		poolCache: poolCache,
		log:       log,
	}
}

// Pool returns the full question pool, from the cache when warm
func (s *QuestionService) Pool(ctx context.Context) ([]model.Question, error) {
	if s.poolCache != nil {
		cached, err := s.poolCache.GetPool(ctx)
		if err != nil {
			s.log.Warn("pool cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	pool, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, storageErr("load question pool", err)
	}

	if s.poolCache != nil {
		if err := s.poolCache.SetPool(ctx, pool); err != nil {
			s.log.Warn("pool cache write failed", "error", err)
		}
	}
	return pool, nil
}

// List returns every question straight from the repository
func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	questions, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, storageErr("list questions", err)
	}
	return questions, nil
}

// Get retrieves a question by ID
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get question", err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	return q, nil
}

// Create validates and stores a new question
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return storageErr("create question", err)
	}
	s.invalidate(ctx)
	return nil
}

// Update replaces an existing question
func (s *QuestionService) Update(ctx context.Context, q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return fmt.Errorf("%w: %s", ErrQuestionNotFound, q.ID)
		}
		return storageErr("update question", err)
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a question from the pool
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		return storageErr("delete question", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context) {
	if s.poolCache == nil {
		return
	}
	if err := s.poolCache.Invalidate(ctx); err != nil {
		s.log.Warn("pool cache invalidation failed", "error", err)
	}
}

func validateQuestion(q *model.Question) error {
	if q.Tag == "" {
		q.Tag = model.TagNone
	}
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
