// Package lockstore keeps recorded historical solutions in a flat JSON file.
package lockstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.LockStore using a flat JSON file keyed by root.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.Lockfile
}

// NewStore creates a new LockStore backed by the file at the given path.
// A missing file is an empty store.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.Lockfile),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrLockStoreReadFailed, err.Error()), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockStoreReadFailed, err.Error()), "path", s.path)
	}

	for key, lock := range s.cache {
		root, err := domain.ParseRoot(key)
		if err != nil {
			return zerr.With(zerr.Wrap(domain.ErrLockStoreReadFailed, err.Error()), "path", s.path)
		}
		lock.Root = root
		s.cache[key] = lock
	}
	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.cache, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(domain.ErrLockStoreWriteFailed, err.Error())
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockStoreWriteFailed, err.Error()), "path", s.path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrLockStoreWriteFailed, err.Error()), "path", s.path)
	}
	return nil
}

// Get retrieves the recorded lock for a root. Returns nil, nil if not found.
func (s *Store) Get(root domain.Root) (*domain.Lockfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.cache[root.String()]
	if !ok {
		return nil, nil
	}
	return &lock, nil
}

// Put records a lock, replacing any earlier one for the same root.
func (s *Store) Put(lock domain.Lockfile) error {
	lock.Packages = slices.Clone(lock.Packages)
	lock.Normalize()
	if lock.Version == 0 {
		lock.Version = domain.LockfileVersion
	}

	s.mu.Lock()
	s.cache[lock.Root.String()] = lock
	s.mu.Unlock()

	return s.save()
}
