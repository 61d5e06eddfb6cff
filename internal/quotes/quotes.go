package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/ksred/flex-sync/internal/types"
	"github.com/ksred/flex-sync/pkg/response"
)

// Thin pass-through to the upstream quote endpoint with short-lived
// caching. No retry or format gymnastics here; a symbol that fails to
// resolve is simply absent from the result.

const (
	defaultQuoteURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	cacheTTL        = 5 * time.Minute
	requestTimeout  = 10 * time.Second
)

var forexPairPattern = regexp.MustCompile(`^[A-Z]{6}$`)

type Service struct {
	BaseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewService() *Service {
	return &Service{
		BaseURL:    defaultQuoteURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache.New(cacheTTL, 2*cacheTTL),
	}
}

// chartResponse is the minimal slice of the upstream payload we need
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// GetQuotes fetches current prices for the given symbols, deduplicated,
// serving repeats from the cache
func (s *Service) GetQuotes(ctx context.Context, symbols []string) ([]types.QuoteResponse, error) {
	logger := log.With().Str("component", "quote_service").Logger()

	seen := make(map[string]bool)
	var quotes []types.QuoteResponse

	for _, raw := range symbols {
		symbol := FormatForexSymbol(strings.TrimSpace(raw))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		if cached, ok := s.cache.Get(symbol); ok {
			quotes = append(quotes, cached.(types.QuoteResponse))
			continue
		}

		quote, err := s.fetchQuote(ctx, symbol)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("quote fetch failed")
			continue
		}

		s.cache.Set(symbol, quote, cache.DefaultExpiration)
		quotes = append(quotes, quote)
	}

	return quotes, nil
}

func (s *Service) fetchQuote(ctx context.Context, symbol string) (types.QuoteResponse, error) {
	url := fmt.Sprintf("%s/%s", s.BaseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.QuoteResponse{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.QuoteResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.QuoteResponse{}, fmt.Errorf("quote endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.QuoteResponse{}, err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return types.QuoteResponse{}, err
	}
	if len(chart.Chart.Result) == 0 {
		return types.QuoteResponse{}, fmt.Errorf("no result for symbol %s", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	return types.QuoteResponse{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		Currency:  meta.Currency,
		FetchedAt: time.Now(),
	}, nil
}

// FormatForexSymbol appends the upstream's forex suffix to bare
// six-letter currency pairs (EURUSD -> EURUSD=X); anything already
// suffixed or not pair-shaped passes through unchanged
func FormatForexSymbol(symbol string) string {
	if strings.Contains(symbol, "=") {
		return symbol
	}
	if forexPairPattern.MatchString(symbol) {
		return symbol + "=X"
	}
	return symbol
}

// GinHandlers contains HTTP handlers for quote endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetQuotesHandler handles GET requests for market quotes
// Query parameter: symbols (comma-separated)
func (h *GinHandlers) GetQuotesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("symbols")
		if raw == "" {
			response.BadRequest(c, "symbols query parameter is required")
			return
		}

		quotes, err := h.service.GetQuotes(c.Request.Context(), strings.Split(raw, ","))
		response.Handle(c, quotes, err)
	}
}
