package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"partyroom/internal/model"
)

type memoryQuestionRepo struct {
	mu        sync.RWMutex
	questions []model.Question
}

// NewMemoryQuestionRepo creates an in-process pool seeded with questions
func NewMemoryQuestionRepo(seed ...model.Question) QuestionRepo {
	r := &memoryQuestionRepo{}
	for _, q := range seed {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		r.questions = append(r.questions, q)
	}
	return r
}

func (r *memoryQuestionRepo) index(id string) int {
	return slices.IndexFunc(r.questions, func(q model.Question) bool { return q.ID == id })
}

func (r *memoryQuestionRepo) Create(_ context.Context, question *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	r.questions = append(r.questions, *question)
	return nil
}

func (r *memoryQuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id)
	if i < 0 {
		return nil, nil
	}
	q := r.questions[i]
	return &q, nil
}

func (r *memoryQuestionRepo) Update(_ context.Context, question *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(question.ID)
	if i < 0 {
		return ErrQuestionNotFound
	}
	r.questions[i] = *question
	return nil
}

func (r *memoryQuestionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	r.questions = slices.Delete(r.questions, i, i+1)
	return nil
}

func (r *memoryQuestionRepo) GetAll(_ context.Context) ([]model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.questions), nil
}
