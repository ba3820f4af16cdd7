package repository

import (
	"context"
	"sort"
	"sync"

	"partyroom/internal/model"
)

type memorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemorySessionRepo creates an in-process session repository.
// Sessions are cloned on every read and write.
func NewMemorySessionRepo() SessionRepo {
	return &memorySessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

func (r *memorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.Code]; ok {
		return ErrCodeTaken
	}
	r.sessions[session.Code] = session.Clone()
	return nil
}

func (r *memorySessionRepo) GetByCode(_ context.Context, code string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[code].Clone(), nil
}

func (r *memorySessionRepo) Update(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.Code] = session.Clone()
	return nil
}

func (r *memorySessionRepo) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, code)
	return nil
}

func (r *memorySessionRepo) List(_ context.Context) ([]*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memorySessionRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.sessions))
	r.sessions = make(map[string]*model.Session)
	return n, nil
}
