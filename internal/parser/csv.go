package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/types"
)

// The CSV export arrives in two sub-dialects. The plain dialect has one
// header row followed by data rows. The multi-section dialect is a
// stream of opcode lines: a HEADER,TRNT line announces a column layout
// (columns start at field offset 2, after the two opcode fields) that
// applies to every DATA,TRNT line until the next HEADER,TRNT. Both
// dialects resolve columns through the ranked substring alias table.

const (
	opcodeHeader = "HEADER"
	opcodeData   = "DATA"
	sectionTrade = "TRNT"

	// cancelMarker flags cancelled executions in the notes/codes column
	cancelMarker = "Ca"
)

// columnLayout is the active mapping from canonical field to column
// index. Multi-section files replace it at every HEADER,TRNT line; it is
// scoped to a single parse call and never shared.
type columnLayout map[field]int

// resolveColumns builds a layout from a header list. For each canonical
// field the ranked aliases are tried in order and the first header
// containing the alias wins; unmatched fields stay absent and later
// resolve to empty/zero.
func resolveColumns(headers []string) columnLayout {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	layout := make(columnLayout)
	for f, aliases := range csvAliases {
		for _, alias := range aliases {
			idx := -1
			for i, h := range lowered {
				if strings.Contains(h, alias) {
					idx = i
					break
				}
			}
			if idx != -1 {
				layout[f] = idx
				break
			}
		}
	}
	return layout
}

// get reads the field's column from a data row, returning "" for absent
// columns and short rows
func (l columnLayout) get(f field, row []string) string {
	idx, ok := l[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ParseCSV parses either CSV dialect into canonical records. Synthetic
// trade ids and their dedup counters are scoped to this one call.
func ParseCSV(body string) ([]types.TradeRecord, error) {
	lines := splitLines(body)
	if len(lines) == 0 {
		return nil, nil
	}

	if isMultiSection(lines) {
		return parseMultiSection(lines), nil
	}
	return parsePlain(lines), nil
}

// isMultiSection reports whether any line's first two fields are the
// literal HEADER and TRNT opcode tokens
func isMultiSection(lines []string) bool {
	for _, line := range lines {
		fields := splitFields(line)
		if len(fields) >= 2 && fields[0] == opcodeHeader && fields[1] == sectionTrade {
			return true
		}
	}
	return false
}

// parsePlain treats the first row as the header and maps every
// following row through the alias layout
func parsePlain(lines []string) []types.TradeRecord {
	layout := resolveColumns(splitFields(lines[0]))
	counts := make(map[string]int)

	var records []types.TradeRecord
	for _, line := range lines[1:] {
		row := splitFields(line)
		if len(row) < 2 {
			continue
		}
		rec, err := recordFromRow(layout, row, counts)
		if err != nil {
			log.Debug().Str("component", "csv_parser").Err(err).Msg("skipping row")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// parseMultiSection decodes the opcode stream, re-resolving the column
// layout at every HEADER,TRNT line
func parseMultiSection(lines []string) []types.TradeRecord {
	logger := log.With().Str("component", "csv_parser").Logger()

	var (
		layout  columnLayout
		records []types.TradeRecord
	)
	counts := make(map[string]int)

	for _, line := range lines {
		fields := splitFields(line)
		if len(fields) < 2 || fields[1] != sectionTrade {
			continue
		}

		switch fields[0] {
		case opcodeHeader:
			layout = resolveColumns(fields[2:])
		case opcodeData:
			if layout == nil {
				logger.Debug().Msg("data row before any header line, skipping")
				continue
			}
			rec, err := recordFromRow(layout, fields[2:], counts)
			if err != nil {
				logger.Debug().Err(err).Msg("skipping row")
				continue
			}
			records = append(records, rec)
		}
	}
	return records
}

// recordFromRow maps one data row to a canonical record under the
// active layout
func recordFromRow(layout columnLayout, row []string, counts map[string]int) (types.TradeRecord, error) {
	symbol := strings.TrimSpace(layout.get(fieldSymbol, row))
	if symbol == "" {
		return types.TradeRecord{}, &ValidationError{Reason: "empty symbol"}
	}

	notes := layout.get(fieldNotes, row)
	if strings.Contains(notes, cancelMarker) {
		return types.TradeRecord{}, &ValidationError{Reason: "cancelled execution"}
	}

	quantity := parseFloat(layout.get(fieldQuantity, row))

	// An explicit BUY/SELL column wins; otherwise direction comes from
	// the quantity's sign
	side := layout.get(fieldSide, row)
	if side != "BUY" && side != "SELL" {
		if quantity < 0 {
			side = "SELL"
		} else {
			side = "BUY"
		}
	}
	if quantity < 0 {
		quantity = -quantity
	}

	multiplier := parseFloat(layout.get(fieldMultiplier, row))
	if multiplier == 0 {
		multiplier = 1
	}

	date, tm := splitDateTime(layout.get(fieldDateTime, row))
	expiry := normalizeExpiry(layout.get(fieldExpiry, row))
	price := parseFloat(layout.get(fieldPrice, row))
	strike := parseFloat(layout.get(fieldStrike, row))
	putCall := strings.TrimSpace(layout.get(fieldPutCall, row))

	tradeID := strings.TrimSpace(layout.get(fieldTradeID, row))
	if tradeID == "" {
		tradeID = synthesizeTradeID(symbol, date, side, quantity, price, strike, putCall, expiry, counts)
	}

	return types.TradeRecord{
		AccountID:   layout.get(fieldAccount, row),
		TradeID:     tradeID,
		Symbol:      symbol,
		AssetClass:  layout.get(fieldAssetClass, row),
		Side:        side,
		Quantity:    quantity,
		Multiplier:  multiplier,
		Price:       price,
		Commission:  parseFloat(layout.get(fieldCommission, row)),
		RealizedPnL: parseFloat(layout.get(fieldPnL, row)),
		Date:        date,
		Time:        tm,
		Expiry:      expiry,
		Strike:      strike,
		PutCall:     putCall,
		OpenClose:   layout.get(fieldOpenClose, row),
		Exchange:    layout.get(fieldExchange, row),
		Proceeds:    parseFloat(layout.get(fieldProceeds, row)),
		CostBasis:   parseFloat(layout.get(fieldCostBasis, row)),
		Notes:       notes,
	}, nil
}

// synthesizeTradeID builds a deterministic fingerprint for rows without
// an explicit trade id. Price and strike are rounded to absorb
// floating-point formatting noise; time-of-day is excluded because it is
// frequently missing, so identical partial fills collide on purpose and
// are disambiguated by the per-call occurrence counter: every repeat
// beyond the first gets an ordinal suffix so no row is ever silently
// collapsed.
func synthesizeTradeID(symbol, date, side string, quantity, price, strike float64, putCall, expiry string, counts map[string]int) string {
	if quantity < 0 {
		quantity = -quantity
	}
	fingerprint := fmt.Sprintf("%s|%s|%s|%g|%.4f|%.2f|%s|%s",
		symbol, date, side, quantity, price, strike, putCall, expiry)

	counts[fingerprint]++
	if n := counts[fingerprint]; n > 1 {
		return fmt.Sprintf("%s|%d", fingerprint, n-1)
	}
	return fingerprint
}

// splitLines drops blank lines, carriage returns and a leading BOM
func splitLines(body string) []string {
	body = strings.TrimPrefix(body, "\uFEFF")
	raw := strings.Split(body, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitFields splits one CSV line honoring double-quote-enclosed fields:
// a quote toggles the in-quotes state and commas inside it do not split.
// Surrounding quotes and whitespace are stripped from each field.
func splitFields(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}
