package parser

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/types"
)

// Format identifies the wire format of a report body
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

// Classify decides which parser handles a raw report body. The service
// sets content-type unreliably, so the header is only a hint and the
// body always gets a say. The order matters: CSV detection is gated on
// the body not looking like XML, because broker CSV never starts a line
// with '<' while malformed XML can contain commas in text content.
func Classify(contentType, body string) Format {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return FormatJSON
	}

	trimmed := strings.TrimLeft(body, " \t\r\n\uFEFF")
	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	firstLine := trimmed
	if i := strings.IndexByte(firstLine, '\n'); i != -1 {
		firstLine = firstLine[:i]
	}
	if strings.Contains(firstLine, ",") && !strings.HasPrefix(trimmed, "<") {
		return FormatCSV
	}

	return FormatXML
}

// Parse classifies the report, runs the matching parser and applies the
// post-parse normalization pass, returning closed trades only.
func Parse(report *types.RawReport) ([]types.TradeRecord, Format, error) {
	format := Classify(report.ContentType, report.Body)

	var (
		records []types.TradeRecord
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = ParseJSON(report.Body)
	case FormatXML:
		records, err = ParseXML(report.Body)
	case FormatCSV:
		records, err = ParseCSV(report.Body)
	}
	if err != nil {
		return nil, format, err
	}

	normalized := Normalize(records)
	log.Debug().
		Str("component", "parser").
		Str("format", string(format)).
		Int("parsed", len(records)).
		Int("closed", len(normalized)).
		Msg("report parsed")

	return normalized, format, nil
}
