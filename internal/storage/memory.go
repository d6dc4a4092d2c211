package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps the document in process memory. Failure hooks let tests
// simulate a storage outage.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	SaveErr  error
	LoadErr  error
	ClearErr error
	Saves    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Backend.
func (m *MemoryStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return nil, ErrNoData
	}
	return append([]byte(nil), m.data...), nil
}

// Save implements Backend.
func (m *MemoryStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

// Clear implements Backend.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.data = nil
	return nil
}

// Raw returns a copy of the stored bytes, or nil.
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}

// SetRaw replaces the stored bytes.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}
