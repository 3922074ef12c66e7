package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FileSystemStorage keeps media files below a root directory.
type FileSystemStorage struct {
	root string
}

// NewFileSystemStorage creates the root directory if needed.
func NewFileSystemStorage(root string) (*FileSystemStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating media root: %w", err)
	}
	return &FileSystemStorage{root: root}, nil
}

func (s *FileSystemStorage) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", dir, err)
	}

	filename = cleanFilename(filename)
	name := path.Join(dir, filename)
	f, err := s.create(name)
	for errors.Is(err, fs.ErrExist) {
		name = path.Join(dir, withSuffix(filename))
		f, err = s.create(name)
	}
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(s.abs(name))
		return "", fmt.Errorf("storage: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: closing %s: %w", name, err)
	}
	return name, nil
}

// create opens name exclusively so a concurrent upload cannot clobber it.
func (s *FileSystemStorage) create(name string) (*os.File, error) {
	return os.OpenFile(s.abs(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (s *FileSystemStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	f, err := os.Open(s.abs(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", name, err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *FileSystemStorage) Delete(ctx context.Context, name string) error {
	name, ok := cleanName(name)
	if !ok {
		return ErrNotFound
	}
	err := os.Remove(s.abs(name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *FileSystemStorage) abs(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}
