package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ksred/flex-sync/internal/flex"
	"github.com/ksred/flex-sync/internal/types"
)

const csvStatement = `TradeID,Symbol,Buy/Sell,Quantity,TradePrice,Date/Time,Open/CloseIndicator
100001,AAPL,BUY,100,185.5,"20250110;093015",C
100002,MSFT,SELL,-50,410.1,"20250110;101500",O
100003,TSLA,BUY,10,244.0,"20250110;113000",C
`

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&types.TradeRecord{}, &SyncJob{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testService(t *testing.T, serverURL string) *Service {
	t.Helper()
	client := flex.NewClient(flex.StrategyDirect)
	client.BaseURL = serverURL
	client.RetryDelay = time.Millisecond
	client.SettleDelay = time.Millisecond
	return NewService(setupTestDB(t), client, "test-token", 123)
}

func TestSyncStoresClosedTrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, csvStatement)
	}))
	defer server.Close()

	service := testService(t, server.URL)

	resp, err := service.Sync(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, resp.Status)
	}
	if resp.Format != "csv" {
		t.Errorf("expected csv format, got %q", resp.Format)
	}
	if resp.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", resp.Attempts)
	}
	// the open MSFT trade is filtered, two closed trades remain
	if resp.TradesParsed != 2 || resp.TradesStored != 2 {
		t.Errorf("expected 2 parsed and 2 stored, got %d/%d", resp.TradesParsed, resp.TradesStored)
	}

	job, err := service.GetSyncJob(resp.SyncID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job == nil || job.Status != StatusCompleted {
		t.Errorf("job not persisted as completed: %+v", job)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, csvStatement)
	}))
	defer server.Close()

	service := testService(t, server.URL)

	if _, err := service.Sync(context.Background(), "", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := service.Sync(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TradesParsed != 2 {
		t.Errorf("expected 2 parsed on re-sync, got %d", resp.TradesParsed)
	}
	if resp.TradesStored != 0 {
		t.Errorf("re-syncing the same statement should store nothing, got %d", resp.TradesStored)
	}
}

func TestSyncRecordsNotReadyOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `error 1019: statement generation in progress`)
	}))
	defer server.Close()

	service := testService(t, server.URL)

	_, err := service.Sync(context.Background(), "", 0)
	var exhausted *flex.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %v", err)
	}

	var job SyncJob
	if err := service.db.db.Order("id DESC").First(&job).Error; err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if job.Status != StatusNotReady {
		t.Errorf("expected status %s, got %s", StatusNotReady, job.Status)
	}
	if job.ErrorKind != "retries_exhausted" {
		t.Errorf("expected error kind retries_exhausted, got %q", job.ErrorKind)
	}
	if job.Attempts != 5 {
		t.Errorf("expected 5 recorded attempts, got %d", job.Attempts)
	}
}

func TestSyncRecordsProtocolFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	service := testService(t, server.URL)

	_, err := service.Sync(context.Background(), "", 0)
	if err == nil {
		t.Fatal("expected an error")
	}

	var job SyncJob
	if err := service.db.db.Order("id DESC").First(&job).Error; err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.ErrorKind != "protocol" {
		t.Errorf("expected error kind protocol, got %q", job.ErrorKind)
	}
}

func TestImportCSV(t *testing.T) {
	service := testService(t, "http://unused.invalid")

	resp, err := service.ImportCSV(csvStatement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, resp.Status)
	}
	if resp.TradesParsed != 2 || resp.TradesStored != 2 {
		t.Errorf("expected 2 parsed and 2 stored, got %d/%d", resp.TradesParsed, resp.TradesStored)
	}

	job, err := service.GetSyncJob(resp.SyncID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job == nil || job.Source != "file" {
		t.Errorf("expected a file-sourced job, got %+v", job)
	}
}

func TestListTrades(t *testing.T) {
	service := testService(t, "http://unused.invalid")

	if _, err := service.ImportCSV(csvStatement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := service.ListTrades("", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(all))
	}

	filtered, err := service.ListTrades("AAPL", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Symbol != "AAPL" {
		t.Errorf("symbol filter failed: %+v", filtered)
	}

	limited, err := service.ListTrades("", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit not applied, got %d trades", len(limited))
	}
}

func TestUpsertTradesSkipsExisting(t *testing.T) {
	db := NewDatabase(setupTestDB(t))

	records := []types.TradeRecord{
		{TradeID: "1", Symbol: "AAPL", Side: "BUY", Quantity: 100},
		{TradeID: "2", Symbol: "MSFT", Side: "SELL", Quantity: 50},
	}
	stored, err := db.UpsertTrades(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != 2 {
		t.Fatalf("expected 2 stored, got %d", stored)
	}

	again := []types.TradeRecord{
		{TradeID: "2", Symbol: "MSFT", Side: "SELL", Quantity: 50},
		{TradeID: "3", Symbol: "TSLA", Side: "BUY", Quantity: 10},
	}
	stored, err = db.UpsertTrades(again)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != 1 {
		t.Errorf("expected only the new record stored, got %d", stored)
	}
}
