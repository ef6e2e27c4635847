package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"ciphermarket/storage"
)

// Manager mediates all reads and writes between the engines and the backing
// database. Writes land in an overlay journal first; Commit flushes the
// journal to the database and Discard drops it. One overlay spans one public
// operation, which is what makes every operation all-or-nothing: a failed
// operation discards the journal and the database never sees partial state.
type Manager struct {
	db      storage.Database
	overlay map[string][]byte
}

// NewManager creates a state manager over the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string][]byte),
	}
}

// Commit flushes the overlay to the database in deterministic key order.
func (m *Manager) Commit() error {
	keys := make([]string, 0, len(m.overlay))
	for key := range m.overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := m.db.Put([]byte(key), m.overlay[key]); err != nil {
			return fmt.Errorf("state: commit %q: %w", key, err)
		}
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Discard drops all journaled writes since the last Commit.
func (m *Manager) Discard() {
	m.overlay = make(map[string][]byte)
}

// Dirty reports whether the overlay holds uncommitted writes.
func (m *Manager) Dirty() bool {
	return len(m.overlay) > 0
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if value, ok := m.overlay[string(key)]; ok {
		return value, true, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) put(key, value []byte) {
	m.overlay[string(key)] = append([]byte(nil), value...)
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	m.put(key, raw)
	return nil
}

func (m *Manager) getUint64(key []byte) (uint64, error) {
	raw, ok, err := m.get(key)
	if err != nil || !ok {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: counter %q has unexpected length %d", key, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (m *Manager) putUint64(key []byte, value uint64) {
	m.put(key, u64Bytes(value))
}
