package parser

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/types"
)

// The XML export is not a nested document: trades arrive as flat
// self-closing tags (<Trade .../> or <TradeConfirm .../>) whose payload
// lives entirely in attributes. Each tag occurrence is reduced to a bag
// of name="value" pairs and resolved through the alias table — this is
// deliberately not a general XML parser and cannot handle nested
// elements inside a trade tag, which the broker's flat export format
// never produces.
var (
	xmlTagPattern  = regexp.MustCompile(`<(?:Trade|TradeConfirm)\s+([^>]*?)/?>`)
	xmlAttrPattern = regexp.MustCompile(`([A-Za-z][\w./]*)\s*=\s*"([^"]*)"`)
)

// ParseXML scans the body for flat trade tags and converts each
// attribute bag into a canonical record. Rows with an empty resolved
// symbol are dropped.
func ParseXML(body string) ([]types.TradeRecord, error) {
	logger := log.With().Str("component", "xml_parser").Logger()

	matches := xmlTagPattern.FindAllStringSubmatch(body, -1)

	var records []types.TradeRecord
	for _, m := range matches {
		attrs := parseAttributes(m[1])
		rec, err := recordFromAttributes(attrs)
		if err != nil {
			logger.Debug().Err(err).Msg("skipping row")
			continue
		}
		records = append(records, rec)
	}

	logger.Debug().Int("tags", len(matches)).Int("records", len(records)).Msg("scanned trade tags")
	return records, nil
}

// parseAttributes reduces one tag's attribute text to a name/value map
func parseAttributes(attrText string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range xmlAttrPattern.FindAllStringSubmatch(attrText, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// resolveAttr returns the first non-empty value among the field's
// aliased attribute names
func resolveAttr(attrs map[string]string, f field) string {
	for _, name := range xmlAliases[f] {
		if v, ok := attrs[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

func recordFromAttributes(attrs map[string]string) (types.TradeRecord, error) {
	symbol := strings.TrimSpace(resolveAttr(attrs, fieldSymbol))
	if symbol == "" {
		return types.TradeRecord{}, &ValidationError{Reason: "empty symbol"}
	}

	date, tm := splitDateTime(resolveAttr(attrs, fieldDateTime))
	if tm == "" {
		tm = resolveAttr(attrs, fieldTime)
	}

	multiplier := parseFloat(resolveAttr(attrs, fieldMultiplier))
	if multiplier == 0 {
		multiplier = 1
	}

	return types.TradeRecord{
		AccountID:   resolveAttr(attrs, fieldAccount),
		TradeID:     resolveAttr(attrs, fieldTradeID),
		Symbol:      symbol,
		AssetClass:  resolveAttr(attrs, fieldAssetClass),
		Side:        strings.ToUpper(resolveAttr(attrs, fieldSide)),
		Quantity:    parseFloat(resolveAttr(attrs, fieldQuantity)),
		Multiplier:  multiplier,
		Price:       parseFloat(resolveAttr(attrs, fieldPrice)),
		Commission:  parseFloat(resolveAttr(attrs, fieldCommission)),
		RealizedPnL: parseFloat(resolveAttr(attrs, fieldPnL)),
		Date:        date,
		Time:        tm,
		Expiry:      normalizeExpiry(resolveAttr(attrs, fieldExpiry)),
		Strike:      parseFloat(resolveAttr(attrs, fieldStrike)),
		PutCall:     resolveAttr(attrs, fieldPutCall),
		OpenClose:   resolveAttr(attrs, fieldOpenClose),
		Exchange:    resolveAttr(attrs, fieldExchange),
		Proceeds:    parseFloat(resolveAttr(attrs, fieldProceeds)),
		CostBasis:   parseFloat(resolveAttr(attrs, fieldCostBasis)),
		Notes:       resolveAttr(attrs, fieldNotes),
	}, nil
}
