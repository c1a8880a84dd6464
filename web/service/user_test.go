package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	got, err := svc.Create(ctx, UserInput{Username: ptr("bob"), Email: ptr("bob@example.com"), Bio: ptr("hi")})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, got.Role)
	assert.Equal(t, "hi", got.Bio)

	_, err = svc.Create(ctx, UserInput{Username: ptr("bob"), Email: ptr("other@example.com")})
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.NotContains(t, verr.Fields, "email")

	_, err = svc.Create(ctx, UserInput{Username: ptr("carol"), Email: ptr("c@example.com"), Role: ptr("owner")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	_, err = svc.Create(ctx, UserInput{Username: ptr("me"), Email: ptr("me@example.com")})
	assert.ErrorIs(t, err, entity.ErrInvalidUsername)

	_, err = svc.Get(ctx, "me")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	createUser(t, db, "bobby", model.RoleUser)
	list, total, err := svc.List(ctx, "bob", PageQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "bob", list[0].Username)
}

func TestUpdateMeRole(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice", model.RoleUser)
	root := createUser(t, db, "root", model.RoleAdmin)

	got, err := svc.UpdateMe(ctx, alice, UserInput{Role: ptr("admin"), Bio: ptr("new bio")})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, got.Role)
	assert.Equal(t, "new bio", got.Bio)

	got, err = svc.UpdateMe(ctx, root, UserInput{Role: ptr("moderator")})
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, got.Role)

	_, err = svc.UpdateMe(ctx, nil, UserInput{})
	assert.ErrorIs(t, err, entity.ErrNotAuthenticated)

	_, err = svc.UpdateMe(ctx, alice, UserInput{Email: ptr("root@example.com")})
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestSetRoleAndSuperuser(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	createUser(t, db, "alice", model.RoleUser)

	got, err := svc.SetRole(ctx, "alice", "moderator")
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, got.Role)

	got, err = svc.CreateSuperuser(ctx, "root", "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	u, err := svc.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)

	// promoting an existing exact pair
	_, err = svc.CreateSuperuser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	u, err = svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = svc.CreateSuperuser(ctx, "alice", "different@example.com")
	assert.ErrorIs(t, err, entity.ErrIdentityConflict)
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupDB(t)
	svc := NewUserService(db)
	comments := NewCommentService(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice", model.RoleUser)
	bob := createUser(t, db, "bob", model.RoleUser)
	title := createTitle(t, db, "A", 2000)
	ra := createReview(t, db, title.Id, alice, 4)
	rb := createReview(t, db, title.Id, bob, 6)

	_, err := comments.Create(ctx, bob, title.Id, ra.Id, CommentInput{Text: ptr("on alice's review")})
	require.NoError(t, err)
	_, err = comments.Create(ctx, alice, title.Id, rb.Id, CommentInput{Text: ptr("by alice")})
	require.NoError(t, err)
	kept, err := comments.Create(ctx, bob, title.Id, rb.Id, CommentInput{Text: ptr("stays")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice"))

	var reviews []model.Review
	require.NoError(t, db.Find(&reviews).Error)
	require.Len(t, reviews, 1)
	assert.Equal(t, rb.Id, reviews[0].Id)

	var left []model.Comment
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, kept.Id, left[0].Id)

	assert.ErrorIs(t, svc.Delete(ctx, "alice"), entity.ErrNotFound)
}
