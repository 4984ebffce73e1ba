package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists the single daily quota record (use interfaces to
// allow swapping the blob for an in-memory fake in tests).
type Storage interface {
	// Get returns the stored record, or ok=false when nothing is stored.
	// Malformed stored data is an error, not an absent record.
	Get() (*Record, bool, error)
	Set(*Record) error
}

// FileStorage keeps the record as one JSON blob at a fixed path, the
// client-local storage of the device. Reads and writes take no lock
// against other processes; concurrent devices sharing a path race.
type FileStorage struct {
	Path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) Get() (*Record, bool, error) {
	raw, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read quota blob: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode quota blob: %w", err)
	}
	return &rec, true, nil
}

func (f *FileStorage) Set(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode quota blob: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, raw, 0o644); err != nil {
		return fmt.Errorf("write quota blob: %w", err)
	}
	return nil
}

// MemStorage is the in-memory Storage used by tests.
type MemStorage struct {
	mu  sync.Mutex
	rec *Record
	// Err, when set, is returned by every call; simulates a corrupt or
	// unreadable blob.
	Err error
}

func (m *MemStorage) Get() (*Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	if m.rec == nil {
		return nil, false, nil
	}
	cp := *m.rec
	if m.rec.Coupons != nil {
		cp.Coupons = append([]Coupon{}, m.rec.Coupons...)
	}
	return &cp, true, nil
}

func (m *MemStorage) Set(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := *rec
	if rec.Coupons != nil {
		cp.Coupons = append([]Coupon{}, rec.Coupons...)
	}
	m.rec = &cp
	return nil
}
