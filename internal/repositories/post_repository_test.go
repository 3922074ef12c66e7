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

func TestPostRepository_ListNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "cats")
	testutil.CreatePosts(t, db, author, nil, 3)
	newest := testutil.CreatePosts(t, db, author, group, 1)

	posts, err := repo.ListPosts(ctx, repositories.PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 4)
	assert.Equal(t, newest.ID, posts[0].ID)
	assert.Equal(t, "leo", posts[0].Author.Username)
	require.NotNil(t, posts[0].Group)
	assert.Equal(t, "cats", posts[0].Group.Slug)
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
	}
}

func TestPostRepository_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresPostRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	ann := testutil.CreateUser(t, db, "ann")
	group := testutil.CreateGroup(t, db, "cats")
	testutil.CreatePosts(t, db, leo, group, 13)
	testutil.CreatePosts(t, db, ann, nil, 3)
	testutil.CreatePosts(t, db, ann, group, 4)

	tests := []struct {
		name   string
		filter repositories.PostFilter
		want   int64
	}{
		{"all", repositories.PostFilter{}, 20},
		{"group", repositories.PostFilter{GroupID: &group.ID}, 17},
		{"author", repositories.PostFilter{AuthorID: &leo.ID}, 13},
		{"author set", repositories.PostFilter{AuthorIDs: []uint{ann.ID}}, 7},
		{"empty author set", repositories.PostFilter{AuthorIDs: []uint{}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.CountPosts(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)

			posts, err := repo.ListPosts(ctx, tt.filter, 10, 10)
			require.NoError(t, err)
			assert.Len(t, posts, int(max(0, min(10, tt.want-10))))
		})
	}
}

func TestPostRepository_UpdateClearsGroup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "cats")
	post := testutil.CreatePosts(t, db, author, group, 1)

	post.Text = "edited"
	post.GroupID = nil
	require.NoError(t, repo.UpdatePost(ctx, post))

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)
	assert.Equal(t, author.ID, got.AuthorID)
}

func TestPostRepository_UpdateMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresPostRepository(db)

	err := repo.UpdatePost(context.Background(), &models.Post{ID: 404, Text: "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepository_DeleteCascadesToComments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresPostRepository(db)
	comments := repositories.NewPostgresCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePosts(t, db, author, nil, 1)
	other := testutil.CreatePosts(t, db, author, nil, 1)
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "one"}))
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{PostID: other.ID, AuthorID: author.ID, Text: "two"}))

	require.NoError(t, repo.DeletePost(ctx, post.ID))

	_, err := repo.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Comment{}))
	assert.ErrorIs(t, repo.DeletePost(ctx, post.ID), gorm.ErrRecordNotFound)
}

func TestPostRepository_FetchedListIsUnaffectedByDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewPostgresPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	testutil.CreatePosts(t, db, author, nil, 2)
	last := testutil.CreatePosts(t, db, author, nil, 1)

	posts, err := repo.ListPosts(ctx, repositories.PostFilter{}, 0, 10)
	require.NoError(t, err)
	first := posts[0]

	require.NoError(t, repo.DeletePost(ctx, last.ID))

	assert.Equal(t, first, posts[0])
	assert.Equal(t, last.ID, posts[0].ID)
}
