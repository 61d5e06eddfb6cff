package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/database"
	"github.com/ksred/flex-sync/internal/parser"
	"github.com/ksred/flex-sync/internal/sync"
	"github.com/ksred/flex-sync/internal/types"
)

// cmd/import parses a locally exported statement file into canonical
// trade records, bypassing the report service entirely. With -db the
// records are stored; otherwise a summary is printed.
func main() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	zlog.Logger = zerolog.New(output).With().Timestamp().Logger()

	var (
		filePath = flag.String("file", "", "path to the statement file to import")
		dbPath   = flag.String("db", "", "sqlite database to store records in (optional)")
	)
	flag.Parse()

	if *filePath == "" {
		zlog.Fatal().Msg("-file is required")
	}

	body, err := os.ReadFile(*filePath)
	if err != nil {
		zlog.Fatal().Err(err).Str("file", *filePath).Msg("failed to read statement file")
	}

	// The sniffer handles exports in any of the wire formats; local
	// files carry no content-type header
	report := &types.RawReport{Body: string(body)}
	records, format, err := parser.Parse(report)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to parse statement")
	}

	zlog.Info().
		Str("format", string(format)).
		Int("closed_trades", len(records)).
		Msg("statement parsed")

	for _, r := range records {
		zlog.Info().
			Str("trade_id", r.TradeID).
			Str("symbol", r.Symbol).
			Str("side", r.Side).
			Float64("quantity", r.Quantity).
			Float64("price", r.Price).
			Float64("realized_pnl", r.RealizedPnL).
			Str("date", r.Date).
			Msg("trade")
	}

	if *dbPath == "" {
		return
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open database")
	}

	stored, err := sync.NewDatabase(db).UpsertTrades(records)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to store records")
	}

	zlog.Info().Int("stored", stored).Int("skipped", len(records)-stored).Msg("import complete")
}
