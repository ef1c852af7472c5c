package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"twix/internal/fileutil"
)

// Store is the set/get/clear contract for the persisted API key.
type Store interface {
	Get() string
	Set(key string) error
	Clear() error
}

type keyState struct {
	APIKey    string    `json:"api_key"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore persists the API key to a JSON file on disk. The flock excludes
// other processes; mu excludes goroutines sharing the flock handle.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore builds a FileStore rooted at the provided path. The lock file
// sits next to it.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the key file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the stored key, or "" when none is saved or the file cannot be
// read.
func (s *FileStore) Get() string {
	key, _ := s.Load()
	return key
}

// Load reads the key from disk. A missing file resolves to an empty key.
func (s *FileStore) Load() (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.RLock(); err != nil {
		return "", fmt.Errorf("lock api key file: %w", err)
	}
	defer s.lock.Unlock() //nolint:errcheck

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read api key: %w", err)
	}
	var state keyState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("decode api key: %w", err)
	}
	return strings.TrimSpace(state.APIKey), nil
}

// Set persists key with restricted permissions. Last writer wins.
func (s *FileStore) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key must not be empty")
	}
	data, err := json.MarshalIndent(keyState{APIKey: key, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode api key: %w", err)
	}
	return s.withWriteLock(func() error {
		if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
			return fmt.Errorf("write api key: %w", err)
		}
		return nil
	})
}

// Clear removes the stored key. Clearing an absent key is not an error.
func (s *FileStore) Clear() error {
	return s.withWriteLock(func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove api key: %w", err)
		}
		return nil
	})
}

func (s *FileStore) withWriteLock(fn func() error) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock api key file: %w", err)
	}
	defer s.lock.Unlock() //nolint:errcheck
	return fn()
}

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure api key directory: %w", err)
	}
	return nil
}

// MemoryStore keeps the API key in process.
type MemoryStore struct {
	mu  sync.RWMutex
	key string
}

// NewMemoryStore returns a MemoryStore seeded with key.
func NewMemoryStore(key string) *MemoryStore {
	return &MemoryStore{key: strings.TrimSpace(key)}
}

func (s *MemoryStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

func (s *MemoryStore) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key must not be empty")
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.key = ""
	s.mu.Unlock()
	return nil
}

// Override layers a fixed key over a backing store. Get prefers the override;
// Clear drops both so a rejected key is never retried.
type Override struct {
	mu      sync.RWMutex
	key     string
	backing Store
}

// NewOverride wraps backing with key. An empty key makes the override
// transparent.
func NewOverride(key string, backing Store) *Override {
	return &Override{key: strings.TrimSpace(key), backing: backing}
}

func (o *Override) Get() string {
	o.mu.RLock()
	key := o.key
	o.mu.RUnlock()
	if key != "" {
		return key
	}
	if o.backing == nil {
		return ""
	}
	return o.backing.Get()
}

func (o *Override) Set(key string) error {
	o.mu.Lock()
	o.key = ""
	o.mu.Unlock()
	if o.backing == nil {
		return errors.New("no backing key store")
	}
	return o.backing.Set(key)
}

func (o *Override) Clear() error {
	o.mu.Lock()
	o.key = ""
	o.mu.Unlock()
	if o.backing == nil {
		return nil
	}
	return o.backing.Clear()
}
