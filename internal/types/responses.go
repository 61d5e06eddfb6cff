package types

import "time"

// SyncResponse represents the outcome of a fetch-and-parse run
type SyncResponse struct {
	SyncID       string    `json:"sync_id"`
	Status       string    `json:"status"`
	Format       string    `json:"format,omitempty"`
	Attempts     int       `json:"attempts"`
	TradesParsed int       `json:"trades_parsed"`
	TradesStored int       `json:"trades_stored"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// QuoteResponse represents a single market quote from the quote proxy
type QuoteResponse struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
