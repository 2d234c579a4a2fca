// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotExist - файла нет.
var ErrNotExist = os.ErrNotExist

type FileStorageInterface interface {
	Read(name string) ([]byte, error)
	// Write атомарно заменяет файл, директория создаётся при необходимости.
	Write(name string, data []byte) error
	Delete(name string) error
}

type LocalFileStorage struct {
	basePath string
}

func NewLocalFileStorage(basePath string) FileStorageInterface {
	return &LocalFileStorage{basePath: basePath}
}

func (s *LocalFileStorage) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("недопустимое имя файла: %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}

func (s *LocalFileStorage) Read(name string) ([]byte, error) {
	full, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (s *LocalFileStorage) Write(name string, data []byte) error {
	full, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("не удалось создать директорию: %w", err)
	}

	// пишем во временный файл рядом и переименовываем
	tmp := filepath.Join(s.basePath, "."+name+"-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("не удалось записать файл %s: %w", name, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("не удалось заменить файл %s: %w", name, err)
	}
	return nil
}

func (s *LocalFileStorage) Delete(name string) error {
	full, err := s.path(name)
	if err != nil {
		return err
	}
	// Если файла и так нет, считаем операцию успешной.
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
