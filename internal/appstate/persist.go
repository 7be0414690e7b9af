package appstate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Persister mirrors the client state between runs.
type Persister interface {
	Load() (Snapshot, error)
	Save(s Snapshot) error
}

// FilePersister keeps the snapshot as JSON in one file. A missing or
// unreadable file loads as an empty state.
type FilePersister struct {
	Path string
}

func (p FilePersister) Load() (Snapshot, error) {
	raw, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		slog.Warn("discarding unreadable client state", "path", p.Path, "error", err)
		return Snapshot{}, nil
	}
	return s, nil
}

// Save writes through a temp file and rename so a crash never leaves half a file.
func (p FilePersister) Save(s Snapshot) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.Path)
}

type MemoryPersister struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
}

func (m *MemoryPersister) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.clone(), nil
}

func (m *MemoryPersister) Save(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s.clone()
	m.saves++
	return nil
}

// Saves counts Save calls.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
