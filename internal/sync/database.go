package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ksred/flex-sync/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateSyncJob(job *SyncJob) error {
	return d.db.Create(job).Error
}

func (d *Database) UpdateSyncJob(job *SyncJob) error {
	return d.db.Save(job).Error
}

func (d *Database) GetSyncJob(syncID string) (*SyncJob, error) {
	var job SyncJob
	if err := d.db.Where("sync_id = ?", syncID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetLastCompletedSync returns the most recent successful sync, or nil
// when no sync has ever completed
func (d *Database) GetLastCompletedSync() (*SyncJob, error) {
	var job SyncJob
	err := d.db.Where("status = ?", StatusCompleted).Order("finished_at DESC").First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// UpsertTrades stores canonical records in a single transaction,
// skipping records whose trade id is already present. Returns how many
// new records were stored.
func (d *Database) UpsertTrades(records []types.TradeRecord) (int, error) {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	stored := 0
	for i := range records {
		var existing types.TradeRecord
		err := tx.Where("trade_id = ?", records[i].TradeID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return 0, err
		}

		records[i].CreatedAt = time.Now()
		records[i].UpdatedAt = time.Now()
		if err := tx.Create(&records[i]).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
		stored++
	}

	return stored, tx.Commit().Error
}

// ListTrades returns stored trades, newest first, optionally filtered
// by symbol
func (d *Database) ListTrades(symbol string, limit int) ([]types.TradeRecord, error) {
	query := d.db.Order("date DESC, time DESC")
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var trades []types.TradeRecord
	if err := query.Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}
