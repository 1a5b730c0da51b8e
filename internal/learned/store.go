// Package learned persists question→answer pairs taught by users or
// produced by the external model, and logs questions nobody could answer.
package learned

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/storage"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a question→answer map keyed by raw question text.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, question, answer string) error
}

// FileStore keeps the map in a pretty-printed JSON object.
type FileStore struct {
	path string
	log  *logger.Logger
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file need not exist.
func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, log: log.WithModule("learned")}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing or corrupt file is an empty map; corruption
// is logged.
func (s *FileStore) Load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *FileStore) read(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learned: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.WithError(err).WithField("path", s.path).Warn("Learned knowledge file is corrupt, starting empty")
		return map[string]string{}, nil
	}
	return m, nil
}

// Save inserts or overwrites one pair and rewrites the whole file.
func (s *FileStore) Save(ctx context.Context, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read(ctx)
	if err != nil {
		return err
	}
	m[question] = answer
	return s.write(m)
}

// SaveAll merges pairs into the file in one rewrite.
func (s *FileStore) SaveAll(ctx context.Context, pairs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read(ctx)
	if err != nil {
		return err
	}
	maps.Copy(m, pairs)
	return s.write(m)
}

// write replaces the file through a temp file and rename.
func (s *FileStore) write(m map[string]string) error {
	data, err := encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("learned: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".learned-*.json")
	if err != nil {
		return fmt.Errorf("learned: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("learned: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("learned: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("learned: replace %s: %w", s.path, err)
	}
	return nil
}

// encode renders m as indented JSON without HTML escaping.
func encode(m map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("learned: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// SQLStore keeps the map in the learned_knowledge table.
type SQLStore struct {
	db *storage.DB
	mu sync.Mutex
}

// NewSQLStore returns a store over db.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Load returns every stored pair.
func (s *SQLStore) Load(ctx context.Context) (map[string]string, error) {
	entries, err := s.db.LearnedEntries(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Question] = e.Answer
	}
	return m, nil
}

// Save upserts one pair.
func (s *SQLStore) Save(ctx context.Context, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.UpsertLearned(ctx, question, answer)
}
