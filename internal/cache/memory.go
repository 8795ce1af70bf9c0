package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory потокобезопасный кеш процесса. Просроченная запись удаляется
// при чтении, остальные убирает Cleanup по расписанию.
type Memory struct {
	mu         sync.Mutex
	data       map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
}

// MemoryOption настраивает Memory.
type MemoryOption func(*Memory)

// WithClock подменяет часы (в тестах).
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory создаёт пустой кеш. ttl <= 0 в Set заменяется на defaultTTL.
func NewMemory(defaultTTL time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		data:       make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get возвращает значение, если оно есть и не истекло.
// Запись считается истёкшей начиная с момента expiresAt.
func (m *Memory) Get(_ context.Context, key string, result any) (bool, error) {
	const op = "cache.Memory.Get"
	m.mu.Lock()
	entry, ok := m.data[key]
	if ok && !m.now().Before(entry.expiresAt) {
		delete(m.data, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.value, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение с абсолютным временем истечения now+ttl.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	const op = "cache.Memory.Set"
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	m.data[key] = memoryEntry{value: raw, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.data = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Cleanup удаляет все истёкшие записи и возвращает их количество.
func (m *Memory) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.data {
		if !now.Before(entry.expiresAt) {
			delete(m.data, key)
			removed++
		}
	}
	return removed
}

// Len число записей, включая ещё не вычищенные истёкшие.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
