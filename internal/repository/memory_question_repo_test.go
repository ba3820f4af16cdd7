package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"partyroom/internal/model"
)

func TestMemoryQuestionRepo(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMemoryQuestionRepo(model.Question{Text: "seeded", Rate: 1})

	all, err := repo.GetAll(ctx)
	req.NoError(err)
	req.Len(all, 1)
	req.NotEmpty(all[0].ID)

	q := &model.Question{Text: "added", Rate: 3, Tag: model.TagRandom}
	req.NoError(repo.Create(ctx, q))
	req.NotEmpty(q.ID)

	q.Text = "edited"
	req.NoError(repo.Update(ctx, q))
	got, err := repo.GetByID(ctx, q.ID)
	req.NoError(err)
	req.Equal("edited", got.Text)

	req.NoError(repo.Delete(ctx, q.ID))
	got, err = repo.GetByID(ctx, q.ID)
	req.NoError(err)
	req.Nil(got)

	req.ErrorIs(repo.Delete(ctx, q.ID), ErrQuestionNotFound)
	req.ErrorIs(repo.Update(ctx, &model.Question{ID: "nope"}), ErrQuestionNotFound)
}
