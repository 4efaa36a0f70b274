// Package kvstore provides the persistent key-value store backing local
// storage.
//
// # Usage
//
//	kv, err := kvstore.Open("./clipshelf.db")
//	value, ok, err := kv.Get("books")
package kvstore

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is a single key-value row.
type Entry struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

// Store is a flat string-keyed store over a single sqlite table. There are
// no transactions across keys except RemoveMany, which deletes its keys in
// one statement.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the store at the given sqlite path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate key-value store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing gorm connection. Used by tests and by callers
// that share one database file across stores.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate key-value store: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value for key. The second return value is false when the
// key is absent; absence is not an error.
func (s *Store) Get(key string) (string, bool, error) {
	var entry Entry
	err := s.db.Where("key = ?", key).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	var entry Entry
	result := s.db.Where("key = ?", key).First(&entry)

	if result.Error == gorm.ErrRecordNotFound {
		entry = Entry{Key: key, Value: value}
		return s.db.Create(&entry).Error
	} else if result.Error != nil {
		return result.Error
	}

	entry.Value = value
	return s.db.Save(&entry).Error
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) error {
	return s.db.Where("key = ?", key).Delete(&Entry{}).Error
}

// RemoveMany deletes all given keys in a single statement.
func (s *Store) RemoveMany(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Where("key IN ?", keys).Delete(&Entry{}).Error
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
