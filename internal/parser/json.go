package parser

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/types"
)

// The JSON export wraps trades in a fixed envelope:
// FlexQueryResult → FlexStatements → FlexStatement[] → Trades → Trade[].
// Every level is optional; a missing level means an empty report, not an
// error. Individual trade entries are decoded separately so one entry
// with a wrong field type is skipped without aborting the batch.
type jsonEnvelope struct {
	FlexQueryResult *struct {
		FlexStatements *struct {
			FlexStatement []struct {
				Trades *struct {
					Trade []json.RawMessage `json:"Trade"`
				} `json:"Trades"`
			} `json:"FlexStatement"`
		} `json:"FlexStatements"`
	} `json:"FlexQueryResult"`
}

type jsonTrade struct {
	AccountID   string  `json:"accountId"`
	TradeID     string  `json:"tradeID"`
	Symbol      string  `json:"symbol"`
	AssetClass  string  `json:"assetCategory"`
	BuySell     string  `json:"buySell"`
	Side        string  `json:"side"`
	Quantity    float64 `json:"quantity"`
	Multiplier  float64 `json:"multiplier"`
	Price       float64 `json:"price"`
	Commission  float64 `json:"ibCommission"`
	RealizedPnL float64 `json:"realizedPnL"`
	DateTime    string  `json:"dateTime"`
	TradeDate   string  `json:"tradeDate"`
	TradeTime   string  `json:"tradeTime"`
	Expiry      string  `json:"expiry"`
	Strike      float64 `json:"strike"`
	PutCall     string  `json:"putCall"`
	OpenClose   string  `json:"openCloseIndicator"`
	Exchange    string  `json:"exchange"`
	Proceeds    float64 `json:"proceeds"`
	CostBasis   float64 `json:"costBasis"`
	Notes       string  `json:"notes"`
}

// ParseJSON walks the fixed statement envelope and converts each trade
// entry into a canonical record
func ParseJSON(body string) ([]types.TradeRecord, error) {
	var envelope jsonEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, &FormatError{Format: FormatJSON, Err: err}
	}

	var records []types.TradeRecord
	if envelope.FlexQueryResult == nil || envelope.FlexQueryResult.FlexStatements == nil {
		return records, nil
	}

	logger := log.With().Str("component", "json_parser").Logger()

	for _, statement := range envelope.FlexQueryResult.FlexStatements.FlexStatement {
		if statement.Trades == nil {
			continue
		}
		for _, raw := range statement.Trades.Trade {
			var t jsonTrade
			if err := json.Unmarshal(raw, &t); err != nil {
				logger.Debug().Err(err).Msg("skipping undecodable trade entry")
				continue
			}
			if t.Symbol == "" {
				logger.Debug().Str("trade_id", t.TradeID).Msg("skipping trade with empty symbol")
				continue
			}
			records = append(records, recordFromJSON(t))
		}
	}

	return records, nil
}

func recordFromJSON(t jsonTrade) types.TradeRecord {
	date, tm := splitDateTime(t.DateTime)
	if date == "" {
		date = t.TradeDate
	}
	if tm == "" {
		tm = t.TradeTime
	}

	side := t.BuySell
	if side == "" {
		side = t.Side
	}

	multiplier := t.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}

	return types.TradeRecord{
		AccountID:   t.AccountID,
		TradeID:     t.TradeID,
		Symbol:      t.Symbol,
		AssetClass:  t.AssetClass,
		Side:        side,
		Quantity:    t.Quantity,
		Multiplier:  multiplier,
		Price:       t.Price,
		Commission:  t.Commission,
		RealizedPnL: t.RealizedPnL,
		Date:        date,
		Time:        tm,
		Expiry:      normalizeExpiry(t.Expiry),
		Strike:      t.Strike,
		PutCall:     t.PutCall,
		OpenClose:   t.OpenClose,
		Exchange:    t.Exchange,
		Proceeds:    t.Proceeds,
		CostBasis:   t.CostBasis,
		Notes:       t.Notes,
	}
}
