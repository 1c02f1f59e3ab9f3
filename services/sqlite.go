package services

import (
	"errors"
	"os"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/starks-ai/motion_api/model"
)

// SqliteService owns the workspace database: a single documents table with one
// whole JSON blob per key.
type SqliteService struct {
	appContext.DefaultService
	db *gorm.DB

	database string
}

const SQLITE_SVC = "sqlite_svc"

func (ds SqliteService) Id() string {
	return SQLITE_SVC
}

func (ds *SqliteService) Db() *gorm.DB {
	return ds.db
}

func (ds *SqliteService) Configure(ctx *appContext.Context) error {
	ds.database = os.Getenv("DB_DATABASE")
	if ds.database == "" {
		ds.database = "starks.db"
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *SqliteService) Start() (err error) {
	ds.db, err = gorm.Open(sqlite.Open(ds.database), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return err
	}

	if err = ds.db.AutoMigrate(&model.Document{}); err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *SqliteService) Shutdown() {
}

// Documents exposes the workspace document store.
func (ds *SqliteService) Documents() *SqliteDocumentStore {
	return &SqliteDocumentStore{db: ds.db}
}

// SqliteDocumentStore implements shared.DocumentStore on the documents table.
type SqliteDocumentStore struct {
	db *gorm.DB
}

func (s *SqliteDocumentStore) Get(key string) ([]byte, error) {
	var doc model.Document
	err := s.db.First(&doc, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

func (s *SqliteDocumentStore) Put(key string, value []byte) error {
	doc := model.Document{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Save(&doc).Error
}

func (s *SqliteDocumentStore) Delete(key string) error {
	return s.db.Delete(&model.Document{}, "key = ?", key).Error
}

// MemoryDocumentStore is the test double: same whole-blob semantics, no disk.
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string][]byte)}
}

func (s *MemoryDocumentStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (s *MemoryDocumentStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	s.docs[key] = copied
	return nil
}

func (s *MemoryDocumentStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
	return nil
}
