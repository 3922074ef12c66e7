package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/yatube/backend/internal/events"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUser(t *testing.T) {
	s := newTestServer(t)
	reader := testutil.CreateUser(t, s.db, "reader")
	author := testutil.CreateUser(t, s.db, "leo")

	for i := 0; i < 2; i++ {
		rec := s.get("/profile/leo/follow/", reader)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/profile/reader/", location(rec))
	}

	var follows []models.Follow
	require.NoError(t, s.db.Find(&follows).Error)
	require.Len(t, follows, 1)
	assert.Equal(t, reader.ID, follows[0].UserID)
	assert.Equal(t, author.ID, follows[0].AuthorID)
	assert.Equal(t, []string{events.FollowCreated}, s.events.subjects())
}

func TestFollowUser_Self(t *testing.T) {
	s := newTestServer(t)
	reader := testutil.CreateUser(t, s.db, "reader")

	rec := s.get("/profile/reader/follow/", reader)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/reader/", location(rec))
	assert.Equal(t, int64(0), testutil.Count(t, s.db, &models.Follow{}))
}

func TestFollowUser_UnknownAuthor(t *testing.T) {
	s := newTestServer(t)
	reader := testutil.CreateUser(t, s.db, "reader")

	rec := s.get("/profile/nobody/follow/", reader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(0), testutil.Count(t, s.db, &models.Follow{}))
}

func TestFollowUser_RequiresLogin(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateUser(t, s.db, "leo")

	rec := s.get("/profile/leo/follow/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login/?next=/profile/leo/follow/", location(rec))
}

func TestUnfollowUser(t *testing.T) {
	s := newTestServer(t)
	reader := testutil.CreateUser(t, s.db, "reader")
	testutil.CreateUser(t, s.db, "leo")
	testutil.CreateUser(t, s.db, "mia")

	require.Equal(t, http.StatusFound, s.get("/profile/leo/follow/", reader).Code)
	require.Equal(t, http.StatusFound, s.get("/profile/mia/follow/", reader).Code)

	rec := s.get("/profile/leo/unfollow/", reader)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/reader/", location(rec))
	assert.Equal(t, int64(1), testutil.Count(t, s.db, &models.Follow{}))

	// not following and unknown authors are both no-ops
	for _, target := range []string{"/profile/leo/unfollow/", "/profile/nobody/unfollow/"} {
		rec = s.get(target, reader)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/profile/reader/", location(rec))
	}
	assert.Equal(t, int64(1), testutil.Count(t, s.db, &models.Follow{}))
	assert.Equal(t, []string{events.FollowCreated, events.FollowCreated, events.FollowDeleted}, s.events.subjects())
}
