package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mediaBucket = "media"

// GridFSStorage keeps media files in a MongoDB GridFS bucket, one GridFS
// file per stored name.
type GridFSStorage struct {
	bucket *gridfs.Bucket
}

func NewGridFSStorage(db *mongo.Database) (*GridFSStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(mediaBucket))
	if err != nil {
		return nil, fmt.Errorf("storage: opening gridfs bucket: %w", err)
	}
	return &GridFSStorage{bucket: bucket}, nil
}

func (s *GridFSStorage) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	filename = cleanFilename(filename)
	name := path.Join(dir, filename)
	exists, err := s.exists(ctx, name)
	if err != nil {
		return "", err
	}
	for exists {
		name = path.Join(dir, withSuffix(filename))
		if exists, err = s.exists(ctx, name); err != nil {
			return "", err
		}
	}

	if _, err := s.bucket.UploadFromStream(name, r); err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", name, err)
	}
	return name, nil
}

func (s *GridFSStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStreamByName(name)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", name, err)
	}
	return stream, nil
}

func (s *GridFSStorage) Delete(ctx context.Context, name string) error {
	cursor, err := s.bucket.FindContext(ctx, bson.M{"filename": name})
	if err != nil {
		return fmt.Errorf("storage: finding %s: %w", name, err)
	}
	var files []gridfs.File
	if err := cursor.All(ctx, &files); err != nil {
		return fmt.Errorf("storage: reading %s: %w", name, err)
	}
	if len(files) == 0 {
		return ErrNotFound
	}
	for _, f := range files {
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil {
			return fmt.Errorf("storage: deleting %s: %w", name, err)
		}
	}
	return nil
}

func (s *GridFSStorage) exists(ctx context.Context, name string) (bool, error) {
	cursor, err := s.bucket.FindContext(ctx, bson.M{"filename": name}, options.GridFSFind().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("storage: finding %s: %w", name, err)
	}
	defer cursor.Close(ctx)
	return cursor.Next(ctx), cursor.Err()
}
