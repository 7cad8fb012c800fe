package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 4 << 20

// Client handles communication with the Open Food Facts API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
	logger      zerolog.Logger
}

// NewClient creates a new Open Food Facts client.
// requestsPerMinute <= 0 disables client-side rate limiting.
func NewClient(baseURL string, timeout time.Duration, requestsPerMinute int) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
		burst = max(requestsPerMinute/10, 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      log.With().Str("component", "openfoodfacts").Logger(),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		c.logger.Debug().Msgf(format, args...)
	}
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "AIMeal/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogAPIFailure, err)
	}

	return resp, nil
}

// SearchByName searches products by free text. The query is sent as is.
func (c *Client) SearchByName(ctx context.Context, query string) ([]domain.FoodItem, error) {
	c.debugLog("SearchByName called with query: %q", query)

	params := url.Values{}
	params.Add("search_terms", query)
	params.Add("json", "true")
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrCatalogAPIFailure, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("search request failed")
		return nil, fmt.Errorf("%w: status %d", domain.ErrCatalogAPIFailure, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(searchResp.Products) == 0 {
		c.debugLog("No products found for query: %q", query)
		return nil, domain.ErrProductNotFound
	}

	items := make([]domain.FoodItem, 0, len(searchResp.Products))
	for _, p := range searchResp.Products {
		items = append(items, mapToFoodItem(p))
	}

	c.debugLog("Found %d products for query: %q", len(items), query)
	return items, nil
}

// GetByBarcode retrieves a single product by its barcode
func (c *Client) GetByBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}
	c.debugLog("GetByBarcode called with code: %q", barcode)

	reqURL := fmt.Sprintf("%s/product/%s.json", c.baseURL, url.PathEscape(barcode))

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, 1024)
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrCatalogAPIFailure, resp.StatusCode, string(body))
	}

	var productResp productResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&productResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if productResp.Product == nil {
		return nil, domain.ErrProductNotFound
	}

	item := mapToFoodItem(*productResp.Product)
	if item.Barcode == "" {
		item.Barcode = barcode
	}
	return &item, nil
}

// errBodyTooLarge reports a response body longer than the read limit
var errBodyTooLarge = errors.New("response too large")

// readLimitedBody reads at most limit bytes from r. A longer body returns
// its first limit bytes together with errBodyTooLarge.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return body[:limit], fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, limit)
	}
	return body, nil
}
