package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store resolves model identifiers to artifacts under a directory and
// caches every model it loads. It is safe for concurrent use: concurrent
// first loads of one id share a single read, and loads of different ids
// do not block each other.
type Store struct {
	dir    string
	logger *slog.Logger

	read  func(id, path string) (*Model, error)
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*Model
}

// NewStore creates a store over dir. A nil logger discards log output.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		read:   loadFile,
		cache:  make(map[string]*Model),
	}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load returns the model named id, reading <dir>/<id>.dgw or
// <dir>/<id>.json on first use. Later calls return the same *Model.
// Failed loads are not cached. A canceled ctx stops the wait, not a read
// already shared with other callers.
func (s *Store) Load(ctx context.Context, id string) (*Model, error) {
	if err := validID(id); err != nil {
		return nil, &LoadError{ID: id, Err: err}
	}
	if m, ok := s.cached(id); ok {
		return m, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{ID: id, Err: err}
	}

	ch := s.group.DoChan(id, func() (any, error) {
		if m, ok := s.cached(id); ok {
			return m, nil
		}
		m, err := s.load(id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[id] = m
		s.mu.Unlock()
		return m, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Model), nil
	case <-ctx.Done():
		return nil, &LoadError{ID: id, Err: ctx.Err()}
	}
}

// load reads the artifact for id without touching the cache.
func (s *Store) load(id string) (*Model, error) {
	path, err := s.resolve(id)
	if err != nil {
		return nil, &LoadError{ID: id, Err: err}
	}

	start := time.Now()
	m, err := s.read(id, path)
	if err != nil {
		s.logger.Error("model load failed", "model", id, "path", path, "error", err)
		return nil, &LoadError{ID: id, Path: path, Err: err}
	}

	s.logger.Info("model loaded",
		"model", id,
		"path", path,
		"format", m.Format,
		"architecture", fmt.Sprint(m.Architecture()),
		"duration", time.Since(start),
	)
	return m, nil
}

func (s *Store) cached(id string) (*Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.cache[id]
	return m, ok
}

// Cached returns the ids of every loaded model.
func (s *Store) Cached() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.cache))
	for id := range s.cache {
		ids = append(ids, id)
	}
	return ids
}

// resolve finds the artifact for id, preferring the binary format.
func (s *Store) resolve(id string) (string, error) {
	for _, ext := range []string{FormatBinary, FormatJSON} {
		path := filepath.Join(s.dir, id+"."+ext)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no %s.%s or %s.%s in %s: %w", id, FormatBinary, id, FormatJSON, s.dir, fs.ErrNotExist)
}

func validID(id string) error {
	if id == "" {
		return errors.New("empty model id")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid model id %q", id)
	}
	return nil
}
