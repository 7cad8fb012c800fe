package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// blobRecord is one row per key
type blobRecord struct {
	Key       string `gorm:"primaryKey;size:255"`
	Data      []byte
	UpdatedAt time.Time
}

func (blobRecord) TableName() string {
	return "blobs"
}

// PostgresStore keeps blobs in a single key/value table
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects and migrates the blobs table
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPostgresStoreFromDB(db)
}

// NewPostgresStoreFromDB wraps an open connection
func NewPostgresStoreFromDB(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&blobRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Load reads the row for key
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var rec blobRecord
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %q: %w", key, err)
	}
	return rec.Data, nil
}

// Save upserts the row for key
func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	rec := blobRecord{Key: key, Data: data, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save blob %q: %w", key, err)
	}
	return nil
}
