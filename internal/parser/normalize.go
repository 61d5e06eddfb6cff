package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/ksred/flex-sync/internal/types"
)

// Normalize enforces the canonical-record invariants and applies the
// closed-trade filter. This is the single place "closed trades only" is
// decided; individual parsers must not duplicate it. A row survives only
// when its open/close indicator is "C" (any case) or empty — dialects
// that omit the field report closed trades by definition.
func Normalize(records []types.TradeRecord) []types.TradeRecord {
	out := make([]types.TradeRecord, 0, len(records))
	for _, r := range records {
		oc := strings.ToUpper(strings.TrimSpace(r.OpenClose))
		if oc != "" && oc != "C" {
			continue
		}
		r.OpenClose = oc
		r.Quantity = math.Abs(r.Quantity)
		r.Commission = math.Abs(r.Commission)
		r.Price = math.Abs(r.Price)
		if r.Multiplier < 1 {
			r.Multiplier = 1
		}
		out = append(out, r)
	}
	return out
}

// splitDateTime splits a combined "<date>;<time>" value on the first
// semicolon. Without a semicolon the whole string is the date.
func splitDateTime(s string) (date, tm string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ';'); i != -1 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// normalizeExpiry reformats an 8-digit numeric expiry to YYYY-MM-DD.
// Anything else, including the empty string, passes through unchanged.
func normalizeExpiry(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return s
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return s
		}
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:8]
}

// parseFloat reads a numeric field, defaulting to zero on anything it
// cannot parse. Missing or garbled numeric columns are never an error.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
