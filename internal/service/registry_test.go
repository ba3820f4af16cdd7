package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"partyroom/internal/mocks"
	"partyroom/internal/model"
	"partyroom/internal/repository"
)

func TestRegistry_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should open a lobby with the creator subscribed", func(t *testing.T) {
		req := require.New(t)
		env := newTestEnv(t, PolicyRemove)
		conn := env.conn()
		anchor := &model.GeoPoint{Lat: 32.08, Lng: 34.78}

		s, err := env.reg.Create(ctx, conn, "Ana", model.SessionConfig{}, anchor)
		req.NoError(err)
		req.Len(s.Code, 6)
		req.Equal(model.SessionLobby, s.Status)
		req.Equal(conn, s.CreatorConnectionID)
		req.Len(s.Players, 1)
		req.Equal("Ana", s.Players[0].Name)
		req.Empty(s.Questions)
		req.Equal(model.SelectionBalanced, s.Config.Selection)
		req.Equal(10, s.Config.QuestionsPerRate)
		req.Equal(anchor, s.AnchorLocation)

		req.True(env.bc.subscribed(s.Code, conn))
		got := env.bc.received(conn)
		req.Len(got, 1)
		req.Equal(model.EventMembershipChanged, got[0].msgType)
	})

	t.Run("should retry on code collision", func(t *testing.T) {
		req := require.New(t)
		env := newTestEnv(t, PolicyRemove)
		first, _ := env.create(t, "Ana")

		codes := []string{first.Code, first.Code, "777777"}
		env.reg.newCode = func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		}

		second, err := env.reg.Create(ctx, env.conn(), "Bo", model.SessionConfig{}, nil)
		req.NoError(err)
		req.Equal("777777", second.Code)
		req.Empty(codes)
	})

	t.Run("should give up once the code space is saturated", func(t *testing.T) {
		req := require.New(t)
		env := newTestEnv(t, PolicyRemove)
		first, _ := env.create(t, "Ana")
		env.reg.newCode = func() string { return first.Code }

		_, err := env.reg.Create(ctx, env.conn(), "Bo", model.SessionConfig{}, nil)
		req.ErrorIs(err, ErrStorage)
	})

	t.Run("should reject an empty player name", func(t *testing.T) {
		env := newTestEnv(t, PolicyRemove)
		_, err := env.reg.Create(ctx, env.conn(), "", model.SessionConfig{}, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
		require.Equal(t, "invalid_request", Reason(err))
	})

	t.Run("should produce distinct codes under concurrency", func(t *testing.T) {
		req := require.New(t)
		reg := NewRegistry(repository.NewMemorySessionRepo(), model.SessionConfig{}, discardLogger())

		var mu sync.Mutex
		codes := make(map[string]bool)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := reg.Create(ctx, "", "Ana", model.SessionConfig{}, nil)
				if err != nil {
					t.Errorf("create: %v", err)
					return
				}
				mu.Lock()
				codes[s.Code] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		req.Len(codes, 50)
	})
}

func TestRegistry_CreateUnsubscribesOnStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSessionRepo(ctrl)
	bc := mocks.NewMockBroadcaster(ctrl)
	reg := NewRegistry(repo, model.SessionConfig{}, discardLogger())
	reg.SetBroadcaster(bc)
	reg.newCode = func() string { return "000001" }

	gomock.InOrder(
		repo.EXPECT().GetByCode(gomock.Any(), "000001").Return(nil, nil),
		bc.EXPECT().Subscribe("000001", "c1"),
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errDiskFull),
		bc.EXPECT().Unsubscribe("000001", "c1"),
	)
	bc.EXPECT().BroadcastToRoom(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := reg.Create(context.Background(), "c1", "Ana", model.SessionConfig{}, nil)
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, errDiskFull)
}

func TestRegistry_GetDeleteList(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, PolicyRemove)

	a, aConn := env.create(t, "Ana")
	b, _ := env.create(t, "Bo")

	got, err := env.reg.Get(ctx, a.Code)
	req.NoError(err)
	req.Equal(a.Code, got.Code)

	_, err = env.reg.Get(ctx, "nope")
	req.ErrorIs(err, ErrNotFound)

	list, err := env.reg.List(ctx)
	req.NoError(err)
	req.Len(list, 2)

	req.NoError(env.reg.Delete(ctx, a.Code))
	_, err = env.reg.Get(ctx, a.Code)
	req.ErrorIs(err, ErrNotFound)

	last := env.bc.received(aConn)
	req.Equal(model.EventSessionEnded, last[len(last)-1].msgType)
	req.Equal(model.EndReasonDeleted, last[len(last)-1].payload.(model.SessionEndedEvent).Reason)

	req.ErrorIs(env.reg.Delete(ctx, a.Code), ErrNotFound)

	n, err := env.reg.DeleteAll(ctx)
	req.NoError(err)
	req.Equal(1, n)
	_, err = env.reg.Get(ctx, b.Code)
	req.ErrorIs(err, ErrNotFound)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, PolicyRemove)
	s, _ := env.create(t, "Ana")

	s.Players[0].Name = "Mallory"
	s.Status = model.SessionEnded

	stored, err := env.reg.Get(ctx, s.Code)
	req.NoError(err)
	req.Equal("Ana", stored.Players[0].Name)
	req.Equal(model.SessionLobby, stored.Status)
}

func TestRegistry_DeleteDetachesRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t, PolicyRemove, questionsWithRate(2, 1)...)
	env.reg.newCode = func() string { return "123456" }

	s, anaConn := env.create(t, "Ana")
	boConn := env.conn()
	_, err := env.orch.Join(ctx, s.Code, "Bo", boConn)
	req.NoError(err)

	req.NoError(env.reg.Delete(ctx, s.Code))
	req.False(env.bc.subscribed(s.Code, anaConn))
	req.False(env.bc.subscribed(s.Code, boConn))
	got := env.bc.received(boConn)
	req.Equal(model.EventSessionEnded, got[len(got)-1].msgType)

	anaBefore := len(env.bc.received(anaConn))
	boBefore := len(env.bc.received(boConn))
	reused, zedConn := env.create(t, "Zed")
	req.Equal(s.Code, reused.Code)
	_, err = env.orch.Start(ctx, reused.Code, zedConn)
	req.NoError(err)

	req.Len(env.bc.received(anaConn), anaBefore)
	req.Len(env.bc.received(boConn), boBefore)
	req.NotEmpty(env.bc.events(reused.Code, model.EventSessionStarted))
}
