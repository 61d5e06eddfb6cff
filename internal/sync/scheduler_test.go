package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSyncIfDueSkipsFreshSync(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, csvStatement)
	}))
	defer server.Close()

	service := testService(t, server.URL)
	scheduler := NewScheduler(service)

	job := &SyncJob{
		SyncID:     "fresh",
		Source:     "flex",
		Status:     StatusCompleted,
		StartedAt:  time.Now().Add(-time.Hour),
		FinishedAt: time.Now().Add(-time.Hour),
	}
	if err := service.db.CreateSyncJob(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := scheduler.syncIfDue(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests != 0 {
		t.Errorf("fresh sync should not trigger a fetch, got %d requests", requests)
	}
}

func TestSyncIfDueRunsStaleSync(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, csvStatement)
	}))
	defer server.Close()

	service := testService(t, server.URL)
	scheduler := NewScheduler(service)

	job := &SyncJob{
		SyncID:     "stale",
		Source:     "flex",
		Status:     StatusCompleted,
		StartedAt:  time.Now().Add(-25 * time.Hour),
		FinishedAt: time.Now().Add(-25 * time.Hour),
	}
	if err := service.db.CreateSyncJob(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := scheduler.syncIfDue(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests == 0 {
		t.Error("stale sync should trigger a fetch")
	}
}

func TestSyncIfDueRunsWhenNoSyncEverCompleted(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, csvStatement)
	}))
	defer server.Close()

	service := testService(t, server.URL)
	scheduler := NewScheduler(service)

	if err := scheduler.syncIfDue(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests == 0 {
		t.Error("first ever check should trigger a fetch")
	}
}

func TestSyncIfDueToleratesStatementStillGenerating(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `error 1019`)
	}))
	defer server.Close()

	service := testService(t, server.URL)
	scheduler := NewScheduler(service)

	if err := scheduler.syncIfDue(context.Background()); err != nil {
		t.Errorf("exhausted retries should not surface as a scheduler error, got %v", err)
	}
}
