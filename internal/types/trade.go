package types

import (
	"time"

	"gorm.io/gorm"
)

// TradeRecord is the canonical trade schema every report format is
// normalized into. Records are immutable once produced by a parser:
// quantity, commission and price carry magnitudes only, direction lives
// in Side, and Expiry is either empty or a dashed YYYY-MM-DD date.
type TradeRecord struct {
	gorm.Model  `json:"-"`
	AccountID   string    `json:"account_id"`
	TradeID     string    `gorm:"uniqueIndex" json:"trade_id"`
	Symbol      string    `json:"symbol"`
	AssetClass  string    `json:"asset_class"`
	Side        string    `json:"side"` // BUY or SELL
	Quantity    float64   `json:"quantity"`
	Multiplier  float64   `json:"multiplier"`
	Price       float64   `json:"price"`
	Commission  float64   `json:"commission"`
	RealizedPnL float64   `json:"realized_pnl"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Expiry      string    `json:"expiry"`
	Strike      float64   `json:"strike"`
	PutCall     string    `json:"put_call"`   // "P", "C" or ""
	OpenClose   string    `json:"open_close"` // "O", "C" or ""
	Exchange    string    `json:"exchange"`
	Proceeds    float64   `json:"proceeds"`
	CostBasis   float64   `json:"cost_basis"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RawReport is the raw statement body returned by the report service,
// before format sniffing. ContentType is the content-type header as
// received; it is advisory only and must not be trusted on its own.
type RawReport struct {
	ContentType string
	Body        string
}
