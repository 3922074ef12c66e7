package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func readAll(t *testing.T, s MediaStorage, name string) string {
	t.Helper()
	rc, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func exerciseStorage(t *testing.T, s MediaStorage) {
	ctx := context.Background()

	first, err := s.Save(ctx, "posts", "small.gif", strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", first)

	second, err := s.Save(ctx, "posts", "small.gif", strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "posts/small_"))
	assert.True(t, strings.HasSuffix(second, ".gif"))

	assert.Equal(t, "one", readAll(t, s, first))
	assert.Equal(t, "two", readAll(t, s, second))

	require.NoError(t, s.Delete(ctx, first))
	_, err = s.Open(ctx, first)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, first), ErrNotFound)
}

func TestFileSystemStorage(t *testing.T) {
	s, err := NewFileSystemStorage(t.TempDir())
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestFileSystemStorage_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStorage(root + "/media")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(root+"/secret.txt", []byte("x"), 0o644))

	for _, name := range []string{"../secret.txt", "posts/../../secret.txt", "", "posts"} {
		_, err := s.Open(context.Background(), name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestFileSystemStorage_SanitizesUploadName(t *testing.T) {
	s, err := NewFileSystemStorage(t.TempDir())
	require.NoError(t, err)

	name, err := s.Save(context.Background(), "posts", `..\..\my cat!.png`, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "posts/my_cat_.png", name)
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"cat.gif":          "cat.gif",
		"/etc/passwd":      "passwd",
		"C:\\dir\\a b.jpg": "a_b.jpg",
		".hidden":          "hidden",
		"":                 "upload",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanFilename(in), in)
	}
}

func TestGridFSStorage(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	db := client.Database("yatube_test_" + strings.ReplaceAll(t.Name(), "/", "_"))
	t.Cleanup(func() { db.Drop(context.Background()) })

	s, err := NewGridFSStorage(db)
	require.NoError(t, err)
	exerciseStorage(t, s)
}
