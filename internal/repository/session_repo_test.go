package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"partyroom/internal/model"
)

func newSession(code string) *model.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Session{
		Code:      code,
		Status:    model.SessionLobby,
		Players:   []model.Player{{Name: "Ana", ConnectionID: "c1", JoinedAt: now}},
		Config:    model.SessionConfig{Selection: model.SelectionBalanced},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// every backend except Mongo shares one behavioural suite
func sessionRepoBackends(t *testing.T) map[string]SessionRepo {
	return map[string]SessionRepo{
		"memory": NewMemorySessionRepo(),
		"badger": NewBadgerSessionRepo(openBadger(t)),
	}
}

func TestSessionRepo_CreateGetUpdateDelete(t *testing.T) {
	for name, repo := range sessionRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctx := context.Background()

			// Given a stored session
			req.NoError(repo.Create(ctx, newSession("123456")))

			// When it is read back
			got, err := repo.GetByCode(ctx, "123456")
			req.NoError(err)
			req.NotNil(got)
			req.Equal("Ana", got.Players[0].Name)

			// Then an update replaces it
			got.Status = model.SessionActive
			req.NoError(repo.Update(ctx, got))
			got, err = repo.GetByCode(ctx, "123456")
			req.NoError(err)
			req.Equal(model.SessionActive, got.Status)

			// And delete makes it unknown
			req.NoError(repo.Delete(ctx, "123456"))
			got, err = repo.GetByCode(ctx, "123456")
			req.NoError(err)
			req.Nil(got)
		})
	}
}

func TestSessionRepo_CreateRejectsTakenCode(t *testing.T) {
	for name, repo := range sessionRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctx := context.Background()

			req.NoError(repo.Create(ctx, newSession("000001")))
			req.ErrorIs(repo.Create(ctx, newSession("000001")), ErrCodeTaken)
		})
	}
}

func TestSessionRepo_ListAndDeleteAll(t *testing.T) {
	for name, repo := range sessionRepoBackends(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctx := context.Background()

			for _, code := range []string{"000003", "000001", "000002"} {
				req.NoError(repo.Create(ctx, newSession(code)))
			}

			all, err := repo.List(ctx)
			req.NoError(err)
			req.Len(all, 3)

			n, err := repo.DeleteAll(ctx)
			req.NoError(err)
			req.EqualValues(3, n)

			all, err = repo.List(ctx)
			req.NoError(err)
			req.Empty(all)
		})
	}
}

func TestMemorySessionRepo_DoesNotShareState(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMemorySessionRepo()

	s := newSession("424242")
	req.NoError(repo.Create(ctx, s))

	// mutating the caller's copy must not leak into the store
	s.Players[0].Name = "Mallory"
	got, err := repo.GetByCode(ctx, "424242")
	req.NoError(err)
	req.Equal("Ana", got.Players[0].Name)

	got.Players = append(got.Players, model.Player{Name: "Bo"})
	again, err := repo.GetByCode(ctx, "424242")
	req.NoError(err)
	req.Len(again.Players, 1)
}
