package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// KeyValueStore хранит пары ключ-значение в одном JSON-файле, аналог localStorage браузера.
// Запись атомарная: новый файл пишется рядом и переименовывается поверх старого.
// Нечитаемый JSON откладывается в <path>.corrupt, хранилище продолжает работу пустым.
type KeyValueStore struct {
	mu     sync.Mutex
	path   string
	logger *log.Entry
}

// NewKeyValueStore создаёт хранилище поверх файла path. Каталог создаётся при первой записи.
func NewKeyValueStore(path string, logger *log.Entry) (*KeyValueStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if logger == nil {
		logger = log.New().WithField("component", "file-store")
	}
	return &KeyValueStore{path: path, logger: logger}, nil
}

// CorruptPath возвращает путь, куда откладывается повреждённый файл.
func (s *KeyValueStore) CorruptPath() string {
	return s.path + ".corrupt"
}

// Path возвращает путь к файлу хранилища.
func (s *KeyValueStore) Path() string {
	return s.path
}

func (s *KeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	value, ok := items[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return []byte(value), nil
}

func (s *KeyValueStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	items[key] = string(value)
	return s.save(items)
}

// Ping проверяет, что файл читается (или ещё не создан).
func (s *KeyValueStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.load()
	return err
}

func (s *KeyValueStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	items := make(map[string]string)
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		entry := s.logger.WithError(err).WithField("path", s.path)
		if renameErr := os.Rename(s.path, s.CorruptPath()); renameErr != nil {
			entry.WithField("rename_error", renameErr).Warn("store file is corrupted, starting empty")
		} else {
			entry.WithField("moved_to", s.CorruptPath()).Warn("store file is corrupted, moved aside and starting empty")
		}
		return make(map[string]string), nil
	}
	return items, nil
}

func (s *KeyValueStore) save(items map[string]string) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

var _ domain.KeyValueStore = (*KeyValueStore)(nil)
