package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partyroom/internal/model"
	"partyroom/internal/repository"
	"partyroom/internal/selector"
)

var errDiskFull = errors.New("disk full")

// delivery is a broadcast as seen by one subscribed connection
type delivery struct {
	msgType string
	payload interface{}
}

// recordingBroadcaster keeps room subscriptions in memory and records what
// every subscribed connection would have received
type recordingBroadcaster struct {
	mu        sync.Mutex
	rooms     map[string]map[string]bool
	delivered map[string][]delivery
	room      map[string][]delivery
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		rooms:     make(map[string]map[string]bool),
		delivered: make(map[string][]delivery),
		room:      make(map[string][]delivery),
	}
}

func (b *recordingBroadcaster) Subscribe(roomCode, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[roomCode] == nil {
		b.rooms[roomCode] = make(map[string]bool)
	}
	b.rooms[roomCode][connID] = true
}

func (b *recordingBroadcaster) Unsubscribe(roomCode, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms[roomCode], connID)
}

func (b *recordingBroadcaster) BroadcastToRoom(roomCode, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := delivery{msgType: msgType, payload: payload}
	b.room[roomCode] = append(b.room[roomCode], d)
	for connID := range b.rooms[roomCode] {
		b.delivered[connID] = append(b.delivered[connID], d)
	}
}

func (b *recordingBroadcaster) subscribed(roomCode, connID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rooms[roomCode][connID]
}

func (b *recordingBroadcaster) received(connID string) []delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]delivery(nil), b.delivered[connID]...)
}

func (b *recordingBroadcaster) events(roomCode, msgType string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []interface{}
	for _, d := range b.room[roomCode] {
		if d.msgType == msgType {
			out = append(out, d.payload)
		}
	}
	return out
}

// flakyRepo fails writes on demand
type flakyRepo struct {
	repository.SessionRepo
	mu         sync.Mutex
	failWrites bool
}

func (r *flakyRepo) setFailing(fail bool) {
	r.mu.Lock()
	r.failWrites = fail
	r.mu.Unlock()
}

func (r *flakyRepo) failing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failWrites
}

func (r *flakyRepo) Create(ctx context.Context, s *model.Session) error {
	if r.failing() {
		return errDiskFull
	}
	return r.SessionRepo.Create(ctx, s)
}

func (r *flakyRepo) Update(ctx context.Context, s *model.Session) error {
	if r.failing() {
		return errDiskFull
	}
	return r.SessionRepo.Update(ctx, s)
}

func (r *flakyRepo) Delete(ctx context.Context, code string) error {
	if r.failing() {
		return errDiskFull
	}
	return r.SessionRepo.Delete(ctx, code)
}

// clock is a settable time source
type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.cur = c.cur.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	repo   *flakyRepo
	bc     *recordingBroadcaster
	clock  *clock
	reg    *Registry
	orch   *Orchestrator
	qs     *QuestionService
	qrepo  repository.QuestionRepo
	nextID int
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, policy DisconnectPolicy, pool ...model.Question) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:  &flakyRepo{SessionRepo: repository.NewMemorySessionRepo()},
		bc:    newRecordingBroadcaster(),
		clock: &clock{cur: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		qrepo: repository.NewMemoryQuestionRepo(pool...),
	}

	log := discardLogger()
	env.reg = NewRegistry(env.repo, model.SessionConfig{}, log)
	env.reg.SetBroadcaster(env.bc)
	env.reg.now = env.clock.now

	codes := 0
	env.reg.newCode = func() string {
		codes++
		return fmt.Sprintf("%06d", codes)
	}

	env.qs = NewQuestionService(env.qrepo, nil, log)
	env.orch = NewOrchestrator(env.reg, env.qs, policy, log)

	var seed uint64
	var seedMu sync.Mutex
	env.orch.newRand = func() (*rand.Rand, error) {
		seedMu.Lock()
		defer seedMu.Unlock()
		seed++
		return selector.NewSeeded(seed), nil
	}
	return env
}

// create opens a lobby with name as creator on a fresh connection id
func (e *testEnv) create(t *testing.T, name string) (*model.Session, string) {
	t.Helper()
	conn := e.conn()
	s, err := e.reg.Create(context.Background(), conn, name, model.SessionConfig{}, nil)
	require.NoError(t, err)
	return s, conn
}

func (e *testEnv) conn() string {
	e.nextID++
	return fmt.Sprintf("conn-%d", e.nextID)
}

func questionsWithRate(n, rate int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:   fmt.Sprintf("q%d", i+1),
			Text: fmt.Sprintf("question %d", i+1),
			Rate: rate,
			Tag:  model.TagNone,
		}
	}
	return out
}

func requireIndexBounds(t *testing.T, s *model.Session) {
	t.Helper()
	require.GreaterOrEqual(t, s.CurrentQuestionIndex, 0)
	require.LessOrEqual(t, s.CurrentQuestionIndex, len(s.Questions))
	if len(s.Questions) > 0 && s.CurrentQuestionIndex == len(s.Questions) {
		require.Equal(t, model.SessionEnded, s.Status)
	}
}
