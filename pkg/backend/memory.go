package backend

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryBackend is an in-memory backend implementation. It is intended for
// tests and single-process deployments; expiry is enforced on read and by a
// background cleanup goroutine, mirroring how a remote backend would enforce
// TTLs on its own.
type MemoryBackend struct {
	mu              sync.RWMutex
	data            map[string]*Entry
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// MemoryConfig holds configuration for the in-memory backend
type MemoryConfig struct {
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // How often to clean expired entries
}

// DefaultMemoryConfig returns default in-memory backend configuration
func DefaultMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		MaxSize:         10000,
		CleanupInterval: 1 * time.Minute,
	}
}

// NewMemoryBackend creates a new in-memory backend
func NewMemoryBackend(config *MemoryConfig) *MemoryBackend {
	if config == nil {
		config = DefaultMemoryConfig()
	}

	mb := &MemoryBackend{
		data:            make(map[string]*Entry),
		maxSize:         config.MaxSize,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	// Start background cleanup goroutine
	go mb.startCleanup()

	return mb
}

// Get retrieves a value from the backend
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.data[key]
	if !exists || entry.IsExpired() {
		// Expired entries are removed by the cleanup goroutine
		return nil, false, nil
	}

	return entry.Value, true, nil
}

// Set stores a value in the backend with a TTL
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSize > 0 && len(m.data) >= m.maxSize {
		if _, exists := m.data[key]; !exists {
			m.evictOldest()
		}
	}

	now := time.Now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	m.data[key] = &Entry{
		Value:     value,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	return nil
}

// Delete removes a value from the backend
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Exists reports whether a key is present and not expired
func (m *MemoryBackend) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.data[key]
	return exists && !entry.IsExpired(), nil
}

// Increment atomically increments the counter stored at key.
// A missing or expired key starts from zero. An existing non-numeric value
// resets to 1, matching the forgiving behavior of counter-style backends.
func (m *MemoryBackend) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	var expiresAt time.Time

	if entry, exists := m.data[key]; exists && !entry.IsExpired() {
		if n, err := strconv.ParseInt(string(entry.Value), 10, 64); err == nil {
			current = n
		}
		expiresAt = entry.ExpiresAt
	}

	current++
	now := time.Now()
	m.data[key] = &Entry{
		Value:     []byte(strconv.FormatInt(current, 10)),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	return current, nil
}

// Expire refreshes the TTL on an existing key
func (m *MemoryBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.data[key]; exists && !entry.IsExpired() {
		if ttl > 0 {
			entry.ExpiresAt = time.Now().Add(ttl)
		} else {
			entry.ExpiresAt = time.Time{}
		}
	}
	return nil
}

// Ping always succeeds for the in-memory backend
func (m *MemoryBackend) Ping(ctx context.Context) error {
	return nil
}

// Len returns the current number of entries, expired included
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close stops the cleanup goroutine
func (m *MemoryBackend) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCleanup)
	})
	return nil
}

// evictOldest removes the oldest created entry. Callers must hold the lock.
func (m *MemoryBackend) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range m.data {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(m.data, oldestKey)
	}
}

// startCleanup runs a background goroutine to clean expired entries
func (m *MemoryBackend) startCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

// cleanup removes expired entries
func (m *MemoryBackend) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, entry := range m.data {
		if !entry.ExpiresAt.IsZero() && now.After(entry.ExpiresAt) {
			delete(m.data, key)
		}
	}
}
