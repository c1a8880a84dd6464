package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
)

func TestCommentLookupPrecedesPermission(t *testing.T) {
	db := setupDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice", model.RoleUser)
	a := createTitle(t, db, "A", 2000)
	b := createTitle(t, db, "B", 2001)
	r := createReview(t, db, a.Id, alice, 5)

	// review r belongs to a, not b
	_, err := svc.Create(ctx, nil, b.Id, r.Id, CommentInput{Text: ptr("hi")})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = svc.Create(ctx, nil, a.Id, r.Id, CommentInput{Text: ptr("hi")})
	assert.ErrorIs(t, err, entity.ErrNotAuthenticated)

	_, err = svc.Create(ctx, alice, a.Id, r.Id, CommentInput{Text: ptr("  ")})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, _, err = svc.List(ctx, a.Id, 999, PageQuery{Page: 1, Size: 10})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCommentLifecycle(t *testing.T) {
	db := setupDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice", model.RoleUser)
	bob := createUser(t, db, "bob", model.RoleUser)
	mod := createUser(t, db, "mod", model.RoleModerator)
	title := createTitle(t, db, "A", 2000)
	r := createReview(t, db, title.Id, alice, 5)

	c, err := svc.Create(ctx, bob, title.Id, r.Id, CommentInput{Text: ptr("first")})
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Author)
	assert.False(t, c.PubDate.IsZero())

	_, err = svc.Update(ctx, alice, title.Id, r.Id, c.Id, CommentInput{Text: ptr("hijack")})
	assert.ErrorIs(t, err, entity.ErrPermissionDenied)

	got, err := svc.Update(ctx, mod, title.Id, r.Id, c.Id, CommentInput{Text: ptr("moderated")})
	require.NoError(t, err)
	assert.Equal(t, "moderated", got.Text)
	assert.Equal(t, "bob", got.Author)

	got, err = svc.Get(ctx, title.Id, r.Id, c.Id)
	require.NoError(t, err)
	assert.Equal(t, "moderated", got.Text)

	list, total, err := svc.List(ctx, title.Id, r.Id, PageQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(ctx, alice, title.Id, r.Id, c.Id), entity.ErrPermissionDenied)
	require.NoError(t, svc.Delete(ctx, bob, title.Id, r.Id, c.Id))
	_, err = svc.Get(ctx, title.Id, r.Id, c.Id)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
