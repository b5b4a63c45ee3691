// Package session holds session-scoped values, such as the access token,
// behind a storage capability that handlers receive explicitly.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session has no value for a key.
var ErrNotFound = errors.New("session value not found")

// Store persists values keyed by session id and key. Writes are
// last-writer-wins.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string) error
	// Touch marks every value of the session as used now.
	Touch(ctx context.Context, sessionID string) error
	// Purge removes every value last written or touched before the cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]map[string]memoryValue
}

type memoryValue struct {
	value   string
	updated time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string]memoryValue)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[sessionID][key]
	if !ok {
		return "", ErrNotFound
	}
	return v.value, nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.values[sessionID]
	if !ok {
		vals = make(map[string]memoryValue)
		m.values[sessionID] = vals
	}
	vals[key] = memoryValue{value: value, updated: time.Now()}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, sessionID)
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, v := range m.values[sessionID] {
		v.updated = now
		m.values[sessionID][k] = v
	}
	return nil
}

func (m *MemoryStore) Purge(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, vals := range m.values {
		for k, v := range vals {
			if v.updated.Before(before) {
				delete(vals, k)
				n++
			}
		}
		if len(vals) == 0 {
			delete(m.values, id)
		}
	}
	return n, nil
}
