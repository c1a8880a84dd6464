package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/validator"
)

func TestTitleRatingFollowsReviews(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	svc := NewTitleService(db, validator.New(nil))

	title := createTitle(t, db, "Dune", 1965)
	alice := createUser(t, db, "alice", model.RoleUser)
	bob := createUser(t, db, "bob", model.RoleUser)

	got, err := svc.Get(ctx, title.Id)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)

	createReview(t, db, title.Id, alice, 8)
	createReview(t, db, title.Id, bob, 10)

	got, err = svc.Get(ctx, title.Id)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 9.0, *got.Rating, 1e-9)

	list, _, err := svc.List(ctx, TitleFilter{}, PageQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Rating)
	assert.InDelta(t, 9.0, *list[0].Rating, 1e-9)
}
