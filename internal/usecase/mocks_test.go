package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/aimeal/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockFoodDatabase is a mock implementation of domain.FoodDatabase
type MockFoodDatabase struct {
	mu           sync.Mutex
	searchResult []domain.FoodItem
	searchError  error
	searchCalls  int
	lastQuery    string
	product      *domain.FoodItem
	productError error
}

func NewMockFoodDatabase() *MockFoodDatabase {
	return &MockFoodDatabase{}
}

func (m *MockFoodDatabase) SearchByName(ctx context.Context, query string) ([]domain.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = query
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockFoodDatabase) GetByBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	if m.productError != nil {
		return nil, m.productError
	}
	if m.product == nil {
		return nil, domain.ErrProductNotFound
	}
	return m.product, nil
}

func (m *MockFoodDatabase) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

// MockBlobStore is a mock implementation of domain.BlobStore
type MockBlobStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	loadError error
	saveError error
	saves     int
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{data: make(map[string][]byte)}
}

func (m *MockBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	data, ok := m.data[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return data, nil
}

func (m *MockBlobStore) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MockBlobStore) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

// testClock is a manually advanced time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
