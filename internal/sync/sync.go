package sync

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/flex-sync/internal/flex"
	"github.com/ksred/flex-sync/internal/parser"
	"github.com/ksred/flex-sync/internal/types"
	"github.com/ksred/flex-sync/pkg/response"
)

// Service orchestrates one fetch-and-parse unit of work: fetch the raw
// report, sniff and parse it, apply the closed-trade filter, store the
// canonical records. Concurrent syncs share only the client's pooled
// HTTP transport; everything else is scoped to the call.
type Service struct {
	db             *Database
	client         *flex.Client
	defaultToken   string
	defaultQueryID int
}

// NewService creates a sync service. token and queryID are the
// configured defaults used when a request does not override them.
func NewService(gormDB *gorm.DB, client *flex.Client, token string, queryID int) *Service {
	return &Service{
		db:             NewDatabase(gormDB),
		client:         client,
		defaultToken:   token,
		defaultQueryID: queryID,
	}
}

// Sync fetches the report for the given token and query id, parses it
// and stores the resulting closed trades. A SyncJob row tracks the run;
// fetch attempt notifications are consumed best-effort to report the
// attempt count.
func (s *Service) Sync(ctx context.Context, token string, queryID int) (*types.SyncResponse, error) {
	if token == "" {
		token = s.defaultToken
	}
	if queryID == 0 {
		queryID = s.defaultQueryID
	}

	logger := log.With().Str("component", "sync_service").Int("query_id", queryID).Logger()

	job := &SyncJob{
		SyncID:    uuid.New().String(),
		Source:    "flex",
		QueryID:   queryID,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.CreateSyncJob(job); err != nil {
		return nil, err
	}

	// A per-call client copy gets its own progress channel; the shallow
	// copy still shares the pooled transport
	client := *s.client
	progress := make(chan flex.Attempt, client.MaxAttempts+1)
	client.Progress = progress

	report, err := client.Fetch(ctx, token, queryID)
	close(progress)
	for range progress {
		job.Attempts++
	}

	if err != nil {
		return nil, s.failJob(job, err)
	}

	records, format, err := parser.Parse(report)
	if err != nil {
		return nil, s.failJob(job, err)
	}
	job.Format = string(format)
	job.TradesParsed = len(records)

	stored, err := s.db.UpsertTrades(records)
	if err != nil {
		return nil, s.failJob(job, err)
	}

	job.Status = StatusCompleted
	job.TradesStored = stored
	job.FinishedAt = time.Now()
	if err := s.db.UpdateSyncJob(job); err != nil {
		return nil, err
	}

	logger.Info().
		Str("sync_id", job.SyncID).
		Str("format", job.Format).
		Int("attempts", job.Attempts).
		Int("parsed", job.TradesParsed).
		Int("stored", job.TradesStored).
		Msg("sync completed")

	return syncResponse(job), nil
}

// ImportCSV ingests raw CSV statement text from a local file, bypassing
// the network phases and going straight to the CSV parser
func (s *Service) ImportCSV(body string) (*types.SyncResponse, error) {
	job := &SyncJob{
		SyncID:    uuid.New().String(),
		Source:    "file",
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.CreateSyncJob(job); err != nil {
		return nil, err
	}

	records, err := parser.ParseCSV(body)
	if err != nil {
		return nil, s.failJob(job, err)
	}
	records = parser.Normalize(records)
	job.Format = string(parser.FormatCSV)
	job.TradesParsed = len(records)

	stored, err := s.db.UpsertTrades(records)
	if err != nil {
		return nil, s.failJob(job, err)
	}

	job.Status = StatusCompleted
	job.TradesStored = stored
	job.FinishedAt = time.Now()
	if err := s.db.UpdateSyncJob(job); err != nil {
		return nil, err
	}

	log.Info().
		Str("component", "sync_service").
		Str("sync_id", job.SyncID).
		Int("parsed", job.TradesParsed).
		Int("stored", job.TradesStored).
		Msg("file import completed")

	return syncResponse(job), nil
}

// GetSyncJob retrieves a sync job by its ID
func (s *Service) GetSyncJob(syncID string) (*SyncJob, error) {
	return s.db.GetSyncJob(syncID)
}

// ListTrades returns stored canonical trades
func (s *Service) ListTrades(symbol string, limit int) ([]types.TradeRecord, error) {
	return s.db.ListTrades(symbol, limit)
}

// failJob marks the job with the error's kind, persists it and passes
// the original error through
func (s *Service) failJob(job *SyncJob, cause error) error {
	job.Status = StatusFailed
	job.ErrorKind = errorKind(cause)
	job.ErrorMessage = cause.Error()
	job.FinishedAt = time.Now()

	var exhausted *flex.RetriesExhaustedError
	if errors.As(cause, &exhausted) {
		// Not a terminal failure: the statement is still generating and
		// a later sync will likely succeed
		job.Status = StatusNotReady
	}

	if err := s.db.UpdateSyncJob(job); err != nil {
		log.Error().Err(err).Str("sync_id", job.SyncID).Msg("failed to persist sync job failure")
	}
	return cause
}

// errorKind maps an error to its taxonomy name for the job record
func errorKind(err error) string {
	var (
		network    *flex.NetworkError
		protocol   *flex.ProtocolError
		notReady   *flex.NotReadyError
		exhausted  *flex.RetriesExhaustedError
		badFormat  *parser.FormatError
		validation *parser.ValidationError
	)
	switch {
	case errors.As(err, &network):
		return "network"
	case errors.As(err, &protocol):
		return "protocol"
	case errors.As(err, &exhausted):
		return "retries_exhausted"
	case errors.As(err, &notReady):
		return "not_ready"
	case errors.As(err, &badFormat):
		return "format"
	case errors.As(err, &validation):
		return "validation"
	default:
		return "internal"
	}
}

func syncResponse(job *SyncJob) *types.SyncResponse {
	return &types.SyncResponse{
		SyncID:       job.SyncID,
		Status:       job.Status,
		Format:       job.Format,
		Attempts:     job.Attempts,
		TradesParsed: job.TradesParsed,
		TradesStored: job.TradesStored,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
	}
}

// GinHandlers contains HTTP handlers for sync and trade endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for sync endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type syncRequest struct {
	Token   string `json:"token"`
	QueryID int    `json:"query_id"`
}

// TriggerSyncHandler handles POST requests to run a fetch-and-parse
// cycle. The body may override the configured token and query id.
func (h *GinHandlers) TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req syncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BadRequest(c, err.Error())
				return
			}
		}

		result, err := h.service.Sync(c.Request.Context(), req.Token, req.QueryID)
		response.Handle(c, result, err)
	}
}

// GetSyncStatusHandler handles GET requests for a sync job's status
// URL parameter: sync_id
func (h *GinHandlers) GetSyncStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		syncID := c.Param("sync_id")
		if syncID == "" {
			response.BadRequest(c, "Sync ID is required")
			return
		}

		job, err := h.service.GetSyncJob(syncID)
		if err != nil || job == nil {
			response.NotFound(c, "Sync job not found")
			return
		}

		response.Success(c, job)
	}
}

// ListTradesHandler handles GET requests for stored canonical trades
// Query parameters: symbol (optional), limit (optional, default 100)
func (h *GinHandlers) ListTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				response.BadRequest(c, "limit must be a non-negative integer")
				return
			}
			limit = parsed
		}

		trades, err := h.service.ListTrades(c.Query("symbol"), limit)
		response.Handle(c, trades, err)
	}
}

// ImportHandler handles POST requests carrying raw CSV statement text
// in the request body
func (h *GinHandlers) ImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil || len(body) == 0 {
			response.BadRequest(c, "Request body must contain CSV statement text")
			return
		}

		result, importErr := h.service.ImportCSV(string(body))
		response.Handle(c, result, importErr)
	}
}
