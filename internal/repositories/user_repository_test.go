package repositories_test

import (
	"context"
	"testing"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	ctx := context.Background()

	uid := "firebase-uid-1"
	user := &models.User{Username: "leo", Email: "Leo@Example.com", FirebaseUID: &uid}
	require.NoError(t, repo.CreateUser(ctx, user))

	byName, err := repo.GetUserByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUID, err := repo.GetUserByFirebaseUID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUID.ID)

	exists, err := repo.UsernameExists(ctx, "leo")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "leo"}))
	assert.ErrorIs(t, repo.CreateUser(ctx, &models.User{Username: "leo"}), gorm.ErrDuplicatedKey)
}

func TestCommentRepository_OldestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePosts(t, db, author, nil, 1)
	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: text}))
	}

	comments, err := repo.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "third", comments[2].Text)
	assert.Equal(t, "leo", comments[0].Author.Username)
}

func TestGroupRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresGroupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateGroup(ctx, &models.Group{Title: "Zebras", Slug: "zebras"}))
	require.NoError(t, repo.CreateGroup(ctx, &models.Group{Title: "Cats", Slug: "cats"}))

	group, err := repo.GetGroupBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", group.Title)

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "cats", groups[0].Slug)

	_, err = repo.GetGroupByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
