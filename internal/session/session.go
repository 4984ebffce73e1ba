// Package session holds the admin CLI's time-bounded login state: one
// JSON blob in client-local storage, valid only while its absolute
// expiry deadline is in the future.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session is the ephemeral admin login record.
type Session struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	ExpiryTime int64  `json:"expiryTime"` // epoch milliseconds
	Token      string `json:"token,omitempty"`
}

// Valid reports whether the session may be used at now: logged in and
// strictly before the expiry deadline.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.IsLoggedIn && now.UnixMilli() < s.ExpiryTime
}

// Storage persists the session blob.
type Storage interface {
	Get() (*Session, bool, error)
	Set(*Session) error
	Clear() error
}

// FileStorage keeps the session as one JSON blob at a fixed path.
type FileStorage struct {
	Path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) Get() (*Session, bool, error) {
	raw, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read session blob: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("decode session blob: %w", err)
	}
	return &s, true, nil
}

func (f *FileStorage) Set(s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session blob: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, raw, 0o600); err != nil {
		return fmt.Errorf("write session blob: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session blob: %w", err)
	}
	return nil
}

// MemStorage is the in-memory Storage used by tests.
type MemStorage struct {
	Session *Session
}

func (m *MemStorage) Get() (*Session, bool, error) {
	if m.Session == nil {
		return nil, false, nil
	}
	cp := *m.Session
	return &cp, true, nil
}

func (m *MemStorage) Set(s *Session) error {
	cp := *s
	m.Session = &cp
	return nil
}

func (m *MemStorage) Clear() error {
	m.Session = nil
	return nil
}
