package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"partyroom/internal/mocks"
	"partyroom/internal/model"
	"partyroom/internal/repository"
)

func TestQuestionService_Pool(t *testing.T) {
	ctx := context.Background()
	pool := questionsWithRate(3, 2)

	t.Run("should fill the cache on a miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockQuestionRepo(ctrl)
		pc := mocks.NewMockPoolCache(ctrl)
		svc := NewQuestionService(repo, pc, discardLogger())

		gomock.InOrder(
			pc.EXPECT().GetPool(gomock.Any()).Return(nil, nil),
			repo.EXPECT().GetAll(gomock.Any()).Return(pool, nil),
			pc.EXPECT().SetPool(gomock.Any(), pool).Return(nil),
		)

		got, err := svc.Pool(ctx)
		require.NoError(t, err)
		require.Equal(t, pool, got)
	})

	t.Run("should skip the repository on a hit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockQuestionRepo(ctrl)
		pc := mocks.NewMockPoolCache(ctrl)
		svc := NewQuestionService(repo, pc, discardLogger())

		pc.EXPECT().GetPool(gomock.Any()).Return(pool, nil)
		repo.EXPECT().GetAll(gomock.Any()).Times(0)

		got, err := svc.Pool(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
	})

	t.Run("should fall back to the repository when the cache errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockQuestionRepo(ctrl)
		pc := mocks.NewMockPoolCache(ctrl)
		svc := NewQuestionService(repo, pc, discardLogger())

		pc.EXPECT().GetPool(gomock.Any()).Return(nil, errDiskFull)
		repo.EXPECT().GetAll(gomock.Any()).Return(pool, nil)
		pc.EXPECT().SetPool(gomock.Any(), gomock.Any()).Return(errDiskFull)

		got, err := svc.Pool(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
	})

	t.Run("should report repository failures as storage errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := mocks.NewMockQuestionRepo(ctrl)
		svc := NewQuestionService(repo, nil, discardLogger())
		repo.EXPECT().GetAll(gomock.Any()).Return(nil, errDiskFull)

		_, err := svc.Pool(ctx)
		require.ErrorIs(t, err, ErrStorage)
	})
}

func TestQuestionService_CRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("should validate and invalidate the cache on writes", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pc := mocks.NewMockPoolCache(ctrl)
		svc := NewQuestionService(repository.NewMemoryQuestionRepo(), pc, discardLogger())
		pc.EXPECT().Invalidate(gomock.Any()).Return(nil).Times(3)

		q := &model.Question{Text: "Who would survive a zombie apocalypse?", Rate: 3}
		req.NoError(svc.Create(ctx, q))
		req.NotEmpty(q.ID)
		req.Equal(model.TagNone, q.Tag)

		q.Tag = model.TagFriend
		req.NoError(svc.Update(ctx, q))

		got, err := svc.Get(ctx, q.ID)
		req.NoError(err)
		req.Equal(model.TagFriend, got.Tag)

		req.NoError(svc.Delete(ctx, q.ID))
		_, err = svc.Get(ctx, q.ID)
		req.ErrorIs(err, ErrQuestionNotFound)
	})

	t.Run("should reject invalid questions", func(t *testing.T) {
		svc := NewQuestionService(repository.NewMemoryQuestionRepo(), nil, discardLogger())

		err := svc.Create(ctx, &model.Question{Text: "too spicy", Rate: 9})
		require.ErrorIs(t, err, ErrInvalidInput)

		err = svc.Create(ctx, &model.Question{Rate: 2})
		require.ErrorIs(t, err, ErrInvalidInput)

		err = svc.Create(ctx, &model.Question{Text: "x", Rate: 2, Tag: "enemy"})
		require.ErrorIs(t, err, ErrInvalidInput)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("should report unknown ids", func(t *testing.T) {
		svc := NewQuestionService(repository.NewMemoryQuestionRepo(), nil, discardLogger())

		err := svc.Update(ctx, &model.Question{ID: "missing", Text: "x", Rate: 1})
		require.ErrorIs(t, err, ErrQuestionNotFound)
		require.ErrorIs(t, svc.Delete(ctx, "missing"), ErrQuestionNotFound)
	})
}
