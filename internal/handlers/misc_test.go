package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAboutPages(t *testing.T) {
	s := newTestServer(t)

	for target, page := range map[string]string{
		"/about/author/": "about/author.html",
		"/about/tech/":   "about/tech.html",
	} {
		rec := s.get(target, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, page, s.renderer.name, target)
	}
}

func TestMissingTrailingSlashRedirects(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/about/tech?x=1", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/about/tech/?x=1", location(rec))
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/no/such/page/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "core/404.html", s.renderer.name)
	assert.Equal(t, "/no/such/page/", s.renderer.data["path"])
	assert.Contains(t, rec.Body.String(), "/no/such/page/")
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServeMedia(t *testing.T) {
	s := newTestServer(t)
	name, err := s.media.Save(context.Background(), "posts/", "cat.gif", strings.NewReader(string(smallGIF)))
	require.NoError(t, err)

	rec := s.get("/media/"+name, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, smallGIF, rec.Body.Bytes())

	// stored bytes decide the content type, not the file name
	_, err = s.media.Save(context.Background(), "posts/", "page.html", strings.NewReader("<script>alert(1)</script>"))
	require.NoError(t, err)
	_, err = s.media.Save(context.Background(), "posts/", "fake.gif", strings.NewReader("<html><script>alert(1)</script>"))
	require.NoError(t, err)
	_, err = s.media.Save(context.Background(), "posts/", "real.html", strings.NewReader(string(smallGIF)))
	require.NoError(t, err)

	rec = s.get("/media/posts/real.html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))

	for _, target := range []string{"/media/posts/page.html", "/media/posts/fake.gif", "/media/posts/missing.gif", "/media/posts/", "/media/../go.mod"} {
		assert.Equal(t, http.StatusNotFound, s.get(target, nil).Code, target)
	}
}
