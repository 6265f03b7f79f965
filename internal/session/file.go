package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ocrweb/internal/storage"
)

// FileStore keeps one owner-only file per key under a directory.
type FileStore struct {
	files *storage.FileStore
}

func NewFileStore(dir string) (*FileStore, error) {
	files, err := storage.NewFileStore(dir, storage.WithFileMode(0o600))
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return &FileStore{files: files}, nil
}

func (f *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := f.files.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("session: get %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if _, err := f.files.Write(ctx, key, []byte(value)); err != nil {
		return fmt.Errorf("session: set %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	if err := f.files.Delete(ctx, key); err != nil {
		return fmt.Errorf("session: delete %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
