// Package storage keeps uploaded media files, either on the local disk or
// in MongoDB GridFS.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/rs/xid"
)

// ErrNotFound is returned when no file is stored under a name.
var ErrNotFound = errors.New("storage: file not found")

// MediaStorage stores files under slash-separated relative names such as
// "posts/cat.gif".
type MediaStorage interface {
	// Save stores r under dir/filename and returns the name actually used.
	// An existing file is never overwritten; a taken name gets a unique
	// suffix before its extension.
	Save(ctx context.Context, dir, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

var unsafeChars = regexp.MustCompile(`[^\w.-]`)

// cleanFilename strips directories and anything but word characters, dots
// and dashes from an uploaded file name.
func cleanFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeChars.ReplaceAllString(strings.TrimSpace(base), "_")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "_" {
		return "upload"
	}
	return base
}

// withSuffix turns "cat.gif" into "cat_<xid>.gif".
func withSuffix(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_" + xid.New().String() + ext
}

// cleanName validates a stored name taken from a URL.
func cleanName(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", false
	}
	cleaned := path.Clean(name)
	if cleaned != name || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", false
	}
	return cleaned, true
}
