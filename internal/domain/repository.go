package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are stored as serialized bytes, the way a Redis-backed cache would hold them.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// FoodDatabase defines the interface for the remote nutrition database
type FoodDatabase interface {
	SearchByName(ctx context.Context, query string) ([]FoodItem, error)
	GetByBarcode(ctx context.Context, barcode string) (*FoodItem, error)
}

// BlobStore holds whole serialized documents under a single key.
// Load returns ErrBlobNotFound when the key was never written.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
