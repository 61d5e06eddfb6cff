package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ksred/flex-sync/internal/sync"
	"github.com/ksred/flex-sync/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&types.TradeRecord{},
		&sync.SyncJob{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
