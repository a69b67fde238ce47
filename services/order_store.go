package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/kendall-kelly/order-analytics-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultInsertBatchSize keeps each INSERT well under the bind parameter
// limits of sqlite and postgres
const defaultInsertBatchSize = 500

// OrderReader is the read surface available inside OrderStore.Read
type OrderReader interface {
	Scan(ctx context.Context, q *OrderQuery) ([]models.Order, error)
	Count(ctx context.Context, q *OrderQuery) (int64, error)
	LatestDatasetID(ctx context.Context) (string, error)
}

// OrderStore persists orders and upload history. ReplaceAll and Read are
// mutually exclusive, so readers never see a cleared but unloaded table.
type OrderStore struct {
	db        *gorm.DB
	mu        sync.RWMutex
	batchSize int
	logger    *zap.Logger
}

// NewOrderStore wraps an open database handle
func NewOrderStore(db *gorm.DB, logger *zap.Logger) *OrderStore {
	return &OrderStore{
		db:        db,
		batchSize: defaultInsertBatchSize,
		logger:    logger.Named("store"),
	}
}

// AutoMigrate creates or updates the orders and uploads tables
func (s *OrderStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&models.Order{}, &models.UploadRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable
func (s *OrderStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Tables lists the tables of the connected database
func (s *OrderStore) Tables(ctx context.Context) ([]string, error) {
	return s.db.WithContext(ctx).Migrator().GetTables()
}

// ReplaceAll swaps the whole dataset for orders and records upload, in one
// transaction
func (s *OrderStore) ReplaceAll(ctx context.Context, orders []models.Order, upload *models.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("failed to clear orders: %w", err)
		}

		if len(orders) > 0 {
			if err := tx.Select(models.OrderColumns).CreateInBatches(&orders, s.batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert orders: %w", err)
			}
		}

		if upload != nil {
			if err := tx.Create(upload).Error; err != nil {
				return fmt.Errorf("failed to record upload: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("dataset replaced", zap.Int("orders", len(orders)))
	return nil
}

// RecordUpload stores an upload attempt that did not replace the dataset
func (s *OrderStore) RecordUpload(ctx context.Context, upload *models.UploadRecord) error {
	if err := s.db.WithContext(ctx).Create(upload).Error; err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// ListUploads returns the most recent upload attempts, newest first
func (s *OrderStore) ListUploads(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	var uploads []models.UploadRecord
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&uploads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}

// GetUpload returns one upload record. The boolean is false when no upload
// has that id.
func (s *OrderStore) GetUpload(ctx context.Context, id string) (models.UploadRecord, bool, error) {
	var uploads []models.UploadRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&uploads).Error; err != nil {
		return models.UploadRecord{}, false, fmt.Errorf("failed to load upload: %w", err)
	}
	if len(uploads) == 0 {
		return models.UploadRecord{}, false, nil
	}
	return uploads[0], true, nil
}

// Read runs fn while holding the read lock. All reads inside fn observe
// the same dataset.
func (s *OrderStore) Read(ctx context.Context, fn func(OrderReader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(storeView{db: s.db})
}

// Scan returns the orders matching q
func (s *OrderStore) Scan(ctx context.Context, q *OrderQuery) ([]models.Order, error) {
	var orders []models.Order
	err := s.Read(ctx, func(r OrderReader) error {
		var err error
		orders, err = r.Scan(ctx, q)
		return err
	})
	return orders, err
}

// OrderListing is one page of a filtered scan
type OrderListing struct {
	Orders        []models.Order `json:"orders"`
	TotalCount    int64          `json:"total_count"`
	FilteredCount int64          `json:"filtered_count"`
}

// List returns one page of q together with the dataset size and the
// number of orders matching q's filters
func (s *OrderStore) List(ctx context.Context, q *OrderQuery) (OrderListing, error) {
	var listing OrderListing
	err := s.Read(ctx, func(r OrderReader) error {
		var err error
		if listing.TotalCount, err = r.Count(ctx, NewOrderQuery()); err != nil {
			return err
		}
		if listing.FilteredCount, err = r.Count(ctx, q); err != nil {
			return err
		}
		listing.Orders, err = r.Scan(ctx, q)
		return err
	})
	if listing.Orders == nil {
		listing.Orders = []models.Order{}
	}
	return listing, err
}

// storeView performs reads without locking; it is only handed out by Read
type storeView struct {
	db *gorm.DB
}

func (v storeView) Scan(ctx context.Context, q *OrderQuery) ([]models.Order, error) {
	var orders []models.Order
	if err := q.apply(v.db.WithContext(ctx).Model(&models.Order{})).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}
	return orders, nil
}

func (v storeView) Count(ctx context.Context, q *OrderQuery) (int64, error) {
	var count int64
	if err := q.filter(v.db.WithContext(ctx).Model(&models.Order{})).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// LatestDatasetID returns the id of the upload that produced the current
// dataset, or "" when nothing has been loaded
func (v storeView) LatestDatasetID(ctx context.Context) (string, error) {
	var uploads []models.UploadRecord
	err := v.db.WithContext(ctx).
		Where("status = ?", models.UploadSucceeded).
		Order("finished_at DESC").
		Limit(1).
		Find(&uploads).Error
	if err != nil {
		return "", fmt.Errorf("failed to look up current dataset: %w", err)
	}
	if len(uploads) == 0 {
		return "", nil
	}
	return uploads[0].ID, nil
}
