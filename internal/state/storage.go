package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"premium-homes/internal/models"
)

// ErrNoSession is returned by SessionStorage.Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// SessionRecord is what survives between runs.
type SessionRecord struct {
	IsAuthenticated bool             `json:"isAuthenticated"`
	User            *models.UserInfo `json:"user"`
	Token           string           `json:"token"`
}

// Valid reports whether the record is complete enough to restore a session from.
func (r *SessionRecord) Valid() bool {
	return r != nil && r.IsAuthenticated && r.Token != "" && r.User != nil
}

// SessionStorage persists a single SessionRecord.
type SessionStorage interface {
	Load() (*SessionRecord, error)
	Save(rec SessionRecord) error
	Clear() error
}

// ConfigDir is $XDG_CONFIG_HOME/premium-homes, or ~/.config/premium-homes.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "premium-homes")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "premium-homes")
}

// FileStorage keeps the record as JSON in one file, readable by the owner only.
type FileStorage struct {
	path string
}

// NewFileStorage stores the record at path, or at ConfigDir()/session.json when path is empty.
func NewFileStorage(path string) *FileStorage {
	if path == "" {
		path = filepath.Join(ConfigDir(), "session.json")
	}
	return &FileStorage{path: path}
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) Load() (*SessionRecord, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}
	return &rec, nil
}

func (s *FileStorage) Save(rec SessionRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStorage keeps the record in process memory. Raw, when set, is
// decoded on Load instead of the saved record.
type MemoryStorage struct {
	mu  sync.Mutex
	rec *SessionRecord
	raw []byte
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

// SetRaw stores undecoded bytes, as if a file had been written by hand.
func (m *MemoryStorage) SetRaw(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	m.raw = append([]byte(nil), b...)
}

func (m *MemoryStorage) Load() (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw != nil {
		var rec SessionRecord
		if err := json.Unmarshal(m.raw, &rec); err != nil {
			return nil, fmt.Errorf("corrupt session record: %w", err)
		}
		return &rec, nil
	}
	if m.rec == nil {
		return nil, ErrNoSession
	}
	rec := *m.rec
	return &rec, nil
}

func (m *MemoryStorage) Save(rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = nil
	m.rec = &rec
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = nil
	m.rec = nil
	return nil
}
