// Package persist moves store snapshots in and out of the key-value store.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/kai/pkg/db"
	"go.uber.org/zap"
)

// Durable keys.
const (
	KeyDailyNotes    = "dailyNotes"
	KeyNotesTemplate = "notesTemplate"
	KeyChatThreads   = "chatThreads"
	KeyAuth          = "kai_auth"
	KeyGoals         = "goalsState"
	KeyNotes         = "notesState"
	KeyComments      = "comments"
	KeyFeed          = "feedState"
)

// KV is the subset of db.Repository the stores persist through.
type KV interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
}

// LoadJSON decodes the value under key into v and reports whether it did.
// A missing key is silent; a corrupt value is logged and ignored so callers
// start from empty state.
func LoadJSON(kv KV, key string, v any, logger *zap.Logger) bool {
	raw, err := kv.Get(key)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			logger.Warn("failed to read persisted state", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logger.Warn("discarding undecodable persisted state", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SaveJSON encodes v and writes it under key.
func SaveJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Put(key, string(data))
}

// MemoryKV is an in-process KV, used when no database is configured and in tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, db.ErrNotFound)
	}
	return v, nil
}

func (m *MemoryKV) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
