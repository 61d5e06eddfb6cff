package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func quoteBody(symbol string, price float64) string {
	return fmt.Sprintf(`{"chart": {"result": [{"meta": {"symbol": %q, "currency": "USD", "regularMarketPrice": %g}}]}}`, symbol, price)
}

func TestFormatForexSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"EURUSD", "EURUSD=X"},
		{"GBPJPY", "GBPJPY=X"},
		{"EURUSD=X", "EURUSD=X"},
		{"AAPL", "AAPL"},
		{"SPY", "SPY"},
		{"BRK.B", "BRK.B"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FormatForexSymbol(tc.in); got != tc.want {
			t.Errorf("FormatForexSymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetQuotes(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		if symbol == "FAIL" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, quoteBody(symbol, 185.5))
	}))
	defer server.Close()

	service := NewService()
	service.BaseURL = server.URL

	quotes, err := service.GetQuotes(context.Background(), []string{"AAPL", "AAPL", "FAIL", "MSFT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// duplicate collapsed, failing symbol skipped
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes[0].Symbol != "AAPL" || quotes[0].Price != 185.5 || quotes[0].Currency != "USD" {
		t.Errorf("unexpected quote: %+v", quotes[0])
	}
	if requests != 3 {
		t.Errorf("expected 3 upstream requests, got %d", requests)
	}
}

func TestGetQuotesServesRepeatsFromCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, quoteBody("AAPL", 185.5))
	}))
	defer server.Close()

	service := NewService()
	service.BaseURL = server.URL

	for i := 0; i < 3; i++ {
		if _, err := service.GetQuotes(context.Background(), []string{"AAPL"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if requests != 1 {
		t.Errorf("expected 1 upstream request, got %d", requests)
	}
}
