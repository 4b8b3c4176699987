package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/savegame"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	saves     map[uuid.UUID][]byte
	catalog   *catalog.Catalog
	pingError error
	saveError error
	saveCount int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		saves:   make(map[uuid.UUID][]byte),
		catalog: catalog.Empty(),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every SaveGame fail with err until cleared with nil
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetCatalog sets the catalog returned by LoadCatalog
func (m *MockStorage) SetCatalog(c *catalog.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = c
}

// SaveCount is the number of successful saves
func (m *MockStorage) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGame stores the encoded document so later loads see a copy, as a real
// backend would.
func (m *MockStorage) SaveGame(ctx context.Context, id uuid.UUID, doc *savegame.Document) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}
	data, err := savegame.Marshal(*doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.saves[id] = data
	m.saveCount++
	return nil
}

// LoadGame mocks loading a save slot
func (m *MockStorage) LoadGame(ctx context.Context, id uuid.UUID) (*savegame.Document, error) {
	m.mu.RLock()
	data, exists := m.saves[id]
	m.mu.RUnlock()
	if !exists {
		return nil, ErrNotFound
	}
	doc, err := savegame.Decode(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteGame mocks deleting a save slot
func (m *MockStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.saves[id]; !exists {
		return ErrNotFound
	}
	delete(m.saves, id)
	return nil
}

// GameExists mocks checking a save slot
func (m *MockStorage) GameExists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.saves[id]
	return exists, nil
}

// PutRaw stores raw bytes in a slot (for testing malformed saves)
func (m *MockStorage) PutRaw(id uuid.UUID, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[id] = data
}

// LoadCatalog returns the configured catalog
func (m *MockStorage) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog, nil
}
