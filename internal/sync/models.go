package sync

import (
	"time"

	"gorm.io/gorm"
)

// SyncJob records one fetch-and-parse run, whether triggered over the
// API, by the scheduler or by a local file import
type SyncJob struct {
	gorm.Model   `json:"-"`
	SyncID       string    `gorm:"uniqueIndex" json:"sync_id"`
	Source       string    `json:"source"` // flex or file
	QueryID      int       `json:"query_id,omitempty"`
	Status       string    `json:"status"` // RUNNING, COMPLETED, NOT_READY, FAILED
	Format       string    `json:"format,omitempty"`
	Attempts     int       `json:"attempts"`
	TradesParsed int       `json:"trades_parsed"`
	TradesStored int       `json:"trades_stored"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sync job statuses
const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusNotReady  = "NOT_READY"
	StatusFailed    = "FAILED"
)
