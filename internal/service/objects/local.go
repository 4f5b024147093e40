package objects

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"metaregistry/internal/domain"
)

// LocalStorage хранит объекты в каталоге <dataDir>/objects на локальном
// диске. Файл версии создается с O_EXCL: существующая версия никогда
// не перезаписывается.
type LocalStorage struct {
	root string
}

// NewLocalStorage создает хранилище в каталоге dataDir/objects
func NewLocalStorage(dataDir string) (*LocalStorage, error) {
	root := filepath.Join(dataDir, "objects")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create objects directory %s: %w", root, err)
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	// Ключ приходит из URL, не выпускаем его за пределы корня
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: invalid object key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.root, clean), nil
}

// PutObject записывает объект по ключу, создавая родительские каталоги
func (s *LocalStorage) PutObject(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}

// GetObject открывает объект по ключу
func (s *LocalStorage) GetObject(_ context.Context, key string) (Object, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("cannot open object %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot stat object %s: %w", key, err)
	}

	return &object{
		ReadCloser:    f,
		contentLength: info.Size(),
		contentType:   "application/json",
	}, nil
}
