package parser

import (
	"errors"
	"testing"
)

const jsonReport = `{
  "FlexQueryResult": {
    "FlexStatements": {
      "FlexStatement": [
        {
          "Trades": {
            "Trade": [
              {
                "accountId": "U1234567",
                "tradeID": "100001",
                "symbol": "AAPL",
                "assetCategory": "STK",
                "buySell": "BUY",
                "quantity": 100,
                "price": 185.5,
                "ibCommission": -1.05,
                "realizedPnL": 0,
                "dateTime": "20250110;093015",
                "openCloseIndicator": "C",
                "exchange": "NASDAQ"
              },
              {
                "accountId": "U1234567",
                "tradeID": "100002",
                "symbol": "SPY 250221P00480000",
                "assetCategory": "OPT",
                "side": "SELL",
                "quantity": -2,
                "multiplier": 100,
                "price": 3.15,
                "tradeDate": "2025-01-10",
                "tradeTime": "104500",
                "expiry": "20250221",
                "strike": 480,
                "putCall": "P",
                "openCloseIndicator": "C"
              }
            ]
          }
        }
      ]
    }
  }
}`

func TestParseJSON(t *testing.T) {
	records, err := ParseJSON(jsonReport)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	stock := records[0]
	if stock.TradeID != "100001" || stock.Symbol != "AAPL" || stock.Side != "BUY" {
		t.Errorf("unexpected stock record: %+v", stock)
	}
	if stock.Date != "20250110" || stock.Time != "093015" {
		t.Errorf("combined dateTime not split: date=%q time=%q", stock.Date, stock.Time)
	}
	if stock.Multiplier != 1 {
		t.Errorf("missing multiplier should default to 1, got %g", stock.Multiplier)
	}

	option := records[1]
	if option.Side != "SELL" {
		t.Errorf("side fallback failed: %q", option.Side)
	}
	if option.Date != "2025-01-10" || option.Time != "104500" {
		t.Errorf("separate date/time fields not used: date=%q time=%q", option.Date, option.Time)
	}
	if option.Expiry != "2025-02-21" {
		t.Errorf("expiry not reformatted: %q", option.Expiry)
	}
	if option.Multiplier != 100 || option.Strike != 480 || option.PutCall != "P" {
		t.Errorf("unexpected option record: %+v", option)
	}
}

func TestParseJSONMissingLevels(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"FlexQueryResult": {}}`,
		`{"FlexQueryResult": {"FlexStatements": {}}}`,
		`{"FlexQueryResult": {"FlexStatements": {"FlexStatement": [{}]}}}`,
		`{"FlexQueryResult": {"FlexStatements": {"FlexStatement": [{"Trades": {}}]}}}`,
	}
	for _, body := range bodies {
		records, err := ParseJSON(body)
		if err != nil {
			t.Errorf("ParseJSON(%q) returned error: %v", body, err)
		}
		if len(records) != 0 {
			t.Errorf("ParseJSON(%q) returned %d records, want 0", body, len(records))
		}
	}
}

func TestParseJSONMalformedBody(t *testing.T) {
	_, err := ParseJSON(`{"FlexQueryResult": `)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Format != FormatJSON {
		t.Errorf("expected json format in error, got %v", formatErr.Format)
	}
}

func TestParseJSONSkipsBadEntries(t *testing.T) {
	body := `{"FlexQueryResult": {"FlexStatements": {"FlexStatement": [{"Trades": {"Trade": [
		{"symbol": "AAPL", "tradeID": "1", "quantity": 10},
		{"symbol": "MSFT", "quantity": "not a number"},
		{"tradeID": "3", "quantity": 5},
		{"symbol": "TSLA", "tradeID": "4", "quantity": 20}
	]}}]}}}`

	records, err := ParseJSON(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(records))
	}
	if records[0].Symbol != "AAPL" || records[1].Symbol != "TSLA" {
		t.Errorf("wrong records survived: %+v", records)
	}
}
