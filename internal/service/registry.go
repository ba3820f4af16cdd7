package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"partyroom/internal/model"
	"partyroom/internal/repository"
	"partyroom/internal/selector"
)

const (
	codeDigits      = 6
	maxCodeAttempts = 64
)

// event is a broadcast queued by a transition
type event struct {
	msgType string
	payload interface{}
}

// change describes what a transition wants done with the session it mutated
type change struct {
	commit   bool // persist the mutated session
	remove   bool // delete the session instead of persisting it
	events   []event
	rollback func() // undo side effects when persisting fails
}

// Registry owns the canonical copy of every live session and serializes
// all transitions per room code.
type Registry struct {
	repo        repository.SessionRepo
	broadcaster Broadcaster
	locks       *keyedMutex
	defaults    model.SessionConfig
	log         *slog.Logger
	now         func() time.Time
	newCode     func() string
}

// NewRegistry creates a registry on top of a session repository
func NewRegistry(repo repository.SessionRepo, defaults model.SessionConfig, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if defaults.Selection == "" {
		defaults.Selection = model.SelectionBalanced
	}
	if defaults.QuestionsPerRate <= 0 {
		defaults.QuestionsPerRate = selector.DefaultPerRate
	}
	return &Registry{
		repo:     repo,
		locks:    newKeyedMutex(),
		defaults: defaults,
		log:      log,
		now:      time.Now,
		newCode:  randomCode,
	}
}

// SetBroadcaster sets the broadcaster for room events
func (r *Registry) SetBroadcaster(b Broadcaster) {
	r.broadcaster = b
}

// randomCode draws a fixed-width numeric room code uniformly
func randomCode() string {
	return fmt.Sprintf("%0*d", codeDigits, rand.IntN(1_000_000))
}

func (r *Registry) withDefaults(cfg model.SessionConfig) model.SessionConfig {
	if cfg.Selection == "" {
		cfg.Selection = r.defaults.Selection
	}
	if cfg.Tag == "" {
		cfg.Tag = r.defaults.Tag
	}
	if cfg.QuestionsPerRate <= 0 {
		cfg.QuestionsPerRate = r.defaults.QuestionsPerRate
	}
	return cfg
}

// Create opens a new lobby with the creator as its only player. Code
// collisions are retried with a fresh code.
func (r *Registry) Create(ctx context.Context, creatorConnID, playerName string, cfg model.SessionConfig, anchor *model.GeoPoint) (*model.Session, error) {
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	cfg = r.withDefaults(cfg)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		session, err := r.tryCreate(ctx, r.newCode(), creatorConnID, playerName, cfg, anchor)
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		r.log.Info("session created", "code", session.Code, "player", playerName, "selection", cfg.Selection)
		return session, nil
	}
	return nil, fmt.Errorf("%w: no free session code after %d attempts", ErrStorage, maxCodeAttempts)
}

func (r *Registry) tryCreate(ctx context.Context, code, connID, playerName string, cfg model.SessionConfig, anchor *model.GeoPoint) (*model.Session, error) {
	unlock := r.locks.Lock(code)
	defer unlock()

	existing, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, storageErr("load session", err)
	}
	if existing != nil {
		return nil, repository.ErrCodeTaken
	}

	now := r.now()
	session := &model.Session{
		Code:                code,
		Players:             []model.Player{{Name: playerName, ConnectionID: connID, JoinedAt: now}},
		Questions:           []model.Question{},
		Status:              model.SessionLobby,
		CreatorConnectionID: connID,
		AnchorLocation:      anchor,
		Config:              cfg,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// The creator must already be subscribed when the first snapshot goes out.
	r.subscribe(code, connID)
	if err := r.repo.Create(ctx, session); err != nil {
		r.unsubscribe(code, connID)
		if errors.Is(err, repository.ErrCodeTaken) {
			return nil, err
		}
		return nil, storageErr("create session", err)
	}

	r.publish(code, membershipChanged(session))
	return session.Clone(), nil
}

// Get returns a copy of the session stored under code
func (r *Registry) Get(ctx context.Context, code string) (*model.Session, error) {
	session, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, storageErr("load session", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return session, nil
}

// Delete removes a session and tells its room it is over
func (r *Registry) Delete(ctx context.Context, code string) error {
	return r.transact(ctx, code, func(s *model.Session) (change, error) {
		return change{remove: true, events: sessionEnded(s, model.EndReasonDeleted)}, nil
	})
}

// List returns every stored session
func (r *Registry) List(ctx context.Context) ([]*model.Session, error) {
	sessions, err := r.repo.List(ctx)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	return sessions, nil
}

// DeleteAll tears down every session, one code at a time
func (r *Registry) DeleteAll(ctx context.Context) (int, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, s := range sessions {
		err := r.Delete(ctx, s.Code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// transact runs fn on a private copy of the session while holding the
// code's lock, then persists and publishes what fn asked for. Nothing is
// written when fn fails, and a failed write leaves the stored copy as it was.
// Removing a session detaches every seated connection from its room once the
// final events are out.
func (r *Registry) transact(ctx context.Context, code string, fn func(s *model.Session) (change, error)) error {
	unlock := r.locks.Lock(code)
	defer unlock()

	stored, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		return storageErr("load session", err)
	}
	if stored == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	session := stored.Clone()
	ch, err := fn(session)
	if err != nil {
		return err
	}

	switch {
	case ch.remove:
		if err := r.repo.Delete(ctx, code); err != nil {
			if ch.rollback != nil {
				ch.rollback()
			}
			return storageErr("delete session", err)
		}
	case ch.commit:
		session.UpdatedAt = r.now()
		if err := r.repo.Update(ctx, session); err != nil {
			if ch.rollback != nil {
				ch.rollback()
			}
			return storageErr("update session", err)
		}
	}

	for _, e := range ch.events {
		r.publish(code, e)
	}
	if ch.remove {
		// A removed room keeps no subscribers.
		for _, p := range stored.Players {
			r.unsubscribe(code, p.ConnectionID)
		}
	}
	return nil
}

func (r *Registry) subscribe(code, connID string) {
	if r.broadcaster != nil && connID != "" {
		r.broadcaster.Subscribe(code, connID)
	}
}

func (r *Registry) unsubscribe(code, connID string) {
	if r.broadcaster != nil && connID != "" {
		r.broadcaster.Unsubscribe(code, connID)
	}
}

func (r *Registry) publish(code string, e event) {
	if r.broadcaster != nil {
		r.broadcaster.BroadcastToRoom(code, e.msgType, e.payload)
	}
}

func membershipChanged(s *model.Session) event {
	return event{msgType: model.EventMembershipChanged, payload: s.Snapshot()}
}

func sessionEnded(s *model.Session, reason string) []event {
	return []event{{
		msgType: model.EventSessionEnded,
		payload: model.SessionEndedEvent{Code: s.Code, Reason: reason},
	}}
}
