package flex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/types"
)

const (
	// DefaultBaseURL is the production Flex Web Service endpoint
	DefaultBaseURL = "https://ndcdyn.interactivebrokers.com/AccountManagement/FlexWebService"

	// notReadyMarker is embedded in the response body while the statement
	// is still generating server-side
	notReadyMarker = "1019"

	defaultMaxAttempts = 5
	defaultRetryDelay  = 3 * time.Second
	defaultSettleDelay = 10 * time.Second
	requestTimeout     = 30 * time.Second
)

// Strategy selects how a report is retrieved. Two incompatible handshake
// variants exist in the wild; which one a given server expects is a
// configuration choice, not something the client can detect.
type Strategy string

const (
	// StrategyTwoPhase requests generation via SendRequest, waits for the
	// statement to settle, then retrieves it by reference code.
	StrategyTwoPhase Strategy = "two_phase"

	// StrategyDirect retrieves a pre-generated statement directly by
	// query id, skipping the SendRequest handshake.
	StrategyDirect Strategy = "direct"
)

// Attempt is a progress notification emitted before each retrieval
// attempt. Delivery is best-effort: a slow or absent consumer never
// blocks the fetch.
type Attempt struct {
	Phase       string `json:"phase"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}

// Client fetches raw statement reports from the Flex Web Service.
// The zero delays/attempts are replaced with production defaults by
// NewClient; tests shorten them. The embedded http.Client pools
// connections and is safe for concurrent use, so one Client can serve
// concurrent fetches for different tokens.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Strategy    Strategy
	MaxAttempts int
	RetryDelay  time.Duration
	SettleDelay time.Duration
	Progress    chan<- Attempt
}

// NewClient creates a report-fetch client using the given retrieval strategy
func NewClient(strategy Strategy) *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		HTTPClient:  &http.Client{Timeout: requestTimeout},
		Strategy:    strategy,
		MaxAttempts: defaultMaxAttempts,
		RetryDelay:  defaultRetryDelay,
		SettleDelay: defaultSettleDelay,
	}
}

// Fetch retrieves the raw report for the given token and query id.
// Only the not-ready condition is retried: up to MaxAttempts attempts
// with a fixed delay in between. Any other failure aborts immediately.
// The inter-attempt and settle delays honor ctx cancellation so shutdown
// is never blocked on a sleeping fetch.
func (c *Client) Fetch(ctx context.Context, token string, queryID int) (*types.RawReport, error) {
	logger := log.With().
		Str("component", "flex_client").
		Str("strategy", string(c.Strategy)).
		Int("query_id", queryID).
		Logger()

	if token == "" || queryID == 0 {
		return nil, &ProtocolError{Phase: "fetch", Message: "token and query id are required"}
	}

	reference := strconv.Itoa(queryID)

	if c.Strategy == StrategyTwoPhase {
		code, err := c.sendRequest(ctx, token, queryID)
		if err != nil {
			return nil, err
		}
		reference = code
		logger.Info().
			Dur("settle_delay", c.SettleDelay).
			Msg("generation requested, waiting for statement to settle")

		// Generation is asynchronous server-side; polling sooner is pointless
		if err := sleep(ctx, c.SettleDelay); err != nil {
			return nil, err
		}
	}

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		c.notify(Attempt{Phase: "get_statement", Attempt: attempt, MaxAttempts: c.MaxAttempts})
		logger.Debug().Int("attempt", attempt).Msg("requesting statement")

		report, err := c.getStatement(ctx, token, reference, attempt)
		if err == nil {
			logger.Info().Int("attempt", attempt).Msg("statement retrieved")
			return report, nil
		}

		var notReady *NotReadyError
		if !errors.As(err, &notReady) {
			logger.Error().Err(err).Int("attempt", attempt).Msg("statement retrieval failed")
			return nil, err
		}

		logger.Info().
			Int("attempt", attempt).
			Int("max_attempts", c.MaxAttempts).
			Msg("statement still generating")

		if attempt < c.MaxAttempts {
			if err := sleep(ctx, c.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	logger.Warn().Int("attempts", c.MaxAttempts).Msg("statement never became ready")
	return nil, &RetriesExhaustedError{Attempts: c.MaxAttempts}
}

// sendRequest performs the phase 1 handshake and returns the reference
// code the generated statement must be retrieved under
func (c *Client) sendRequest(ctx context.Context, token string, queryID int) (string, error) {
	url := fmt.Sprintf("%s/SendRequest?t=%s&q=%d&v=3", c.BaseURL, token, queryID)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return "", &NetworkError{Op: "SendRequest", Err: err}
	}
	if status < 200 || status >= 300 {
		return "", &ProtocolError{Phase: "SendRequest", Status: status, Message: truncate(body)}
	}

	code := extractReferenceCode(body)
	if code == "" {
		return "", &ProtocolError{Phase: "SendRequest", Message: "reference code not found in response"}
	}
	return code, nil
}

// getStatement performs a single phase 2 retrieval attempt
func (c *Client) getStatement(ctx context.Context, token, reference string, attempt int) (*types.RawReport, error) {
	url := fmt.Sprintf("%s/GetStatement?t=%s&q=%s&v=3", c.BaseURL, token, reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "GetStatement", Err: err}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "GetStatement", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "GetStatement", Err: err}
	}
	body := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProtocolError{Phase: "GetStatement", Status: resp.StatusCode, Message: truncate(body)}
	}

	// The marker must be checked before any parsing: a not-ready body is
	// well-formed XML and would otherwise sniff as an empty report
	if strings.Contains(body, notReadyMarker) {
		return nil, &NotReadyError{Attempt: attempt}
	}

	return &types.RawReport{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) get(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	return string(body), resp.StatusCode, nil
}

// notify emits a progress notification without ever blocking the fetch
func (c *Client) notify(a Attempt) {
	if c.Progress == nil {
		return
	}
	select {
	case c.Progress <- a:
	default:
	}
}

// extractReferenceCode pulls the reference code out of a SendRequest
// response body. Returns "" when the element is absent.
func extractReferenceCode(body string) string {
	const openTag, closeTag = "<ReferenceCode>", "</ReferenceCode>"
	start := strings.Index(body, openTag)
	if start == -1 {
		return ""
	}
	end := strings.Index(body[start:], closeTag)
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(body[start+len(openTag) : start+end])
}

// sleep waits for d or until ctx is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(body string) string {
	const max = 200
	if len(body) > max {
		return body[:max]
	}
	return body
}
