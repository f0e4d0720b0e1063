package photoslib

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"photoflow/internal/logging"
	"photoflow/internal/metrics"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://photoslibrary.googleapis.com/v1"
	defaultTimeout = 30 * time.Second

	// searchPageSize is the API's hard cap on mediaItems:search pages.
	searchPageSize = 100
	// albumsPageSize is the fixed page size used for album listings.
	albumsPageSize = 50

	// defaultPageDelay is the fixed inter-page delay. The API's rate
	// limits are undocumented; one page per second has proven safe.
	defaultPageDelay = time.Second

	quotaHeader = "X-Goog-Quota-User-Info"
)

// Progress counter names used by the pagination loops.
const (
	CounterLoadImages = "load_images"
	CounterListAlbums = "list_albums"
)

// ErrUnauthorized indicates the bearer token was missing, expired or
// rejected.
var ErrUnauthorized = errors.New("photos API: unauthorized")

// TokenSource supplies the bearer token for API requests. It is called
// once per request; implementations cache and refresh as needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token. Useful for
// tests and short-lived scripts.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", ErrUnauthorized
	}
	return string(t), nil
}

// Config carries optional client settings. The zero value selects the
// production endpoint, a pooled 30s-timeout HTTP client and the default
// inter-page delay.
type Config struct {
	BaseURL    string
	PageDelay  time.Duration
	HTTPClient *http.Client
}

// Client is a Google Photos Library API client. One Client owns a
// single connection-pooled HTTP session shared by all page fetches and
// content downloads of a batch.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewClient creates a Client using the given token source.
func NewClient(tokens TokenSource, cfg Config, logger logging.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	delay := cfg.PageDelay
	if delay <= 0 {
		delay = defaultPageDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: httpClient,
		// Burst 1: the first page goes out immediately, every following
		// page waits out the fixed delay.
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		logger:  logging.Or(logger),
	}
}

// CloseIdleConnections releases pooled connections. Called in the
// guaranteed-cleanup step at the end of a batch.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
	c.logger.Debug("photos API: idle connections closed")
}

// doJSON performs an authenticated API request and decodes the response
// into out. Non-2xx responses are returned as errors carrying the API's
// error message.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}, endpoint string) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain credentials: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		c.logger.Debug("photos API request: %s %s body=%s", method, path, encoded)
		reqBody = bytes.NewReader(encoded)
	} else {
		c.logger.Debug("photos API request: %s %s", method, path)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIPageDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIPagesTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIPagesTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logQuota(resp)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		metrics.APIPagesTotal.WithLabelValues(endpoint, "error").Inc()
		c.logger.Error("photos API error: status %d, body %s", resp.StatusCode, respBody)
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APIPagesTotal.WithLabelValues(endpoint, "error").Inc()
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			c.logger.Error("photos API error: code=%d status=%s message=%s",
				apiErr.Error.Code, apiErr.Error.Status, apiErr.Error.Message)
			return fmt.Errorf("photos API error: %s (status %d)", apiErr.Error.Message, resp.StatusCode)
		}
		c.logger.Error("photos API error: status %d, body %s", resp.StatusCode, respBody)
		return fmt.Errorf("photos API error: unexpected status %d", resp.StatusCode)
	}

	metrics.APIPagesTotal.WithLabelValues(endpoint, "ok").Inc()
	c.logger.Debug("photos API response: status %d, %d bytes", resp.StatusCode, len(respBody))

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) logQuota(resp *http.Response) {
	if quota := resp.Header.Get(quotaHeader); quota != "" {
		c.logger.Debug("photos API quota: %s", quota)
	}
}

// GetMediaItem fetches a single media item by id.
func (c *Client) GetMediaItem(ctx context.Context, mediaItemID string) (*MediaItem, error) {
	c.logger.Info("fetching media item %s", mediaItemID)

	var item MediaItem
	if err := c.doJSON(ctx, http.MethodGet, "/mediaItems/"+mediaItemID, nil, &item, "media_item"); err != nil {
		return nil, err
	}
	return &item, nil
}

// Download fetches raw content bytes from a signed content URL. The URL
// already carries its authorization; no bearer token is attached.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIPagesTotal.WithLabelValues("download", "error").Inc()
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.APIPagesTotal.WithLabelValues("download", "error").Inc()
		return nil, fmt.Errorf("download failed: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIPagesTotal.WithLabelValues("download", "error").Inc()
		return nil, fmt.Errorf("download read failed: %w", err)
	}

	metrics.APIPagesTotal.WithLabelValues("download", "ok").Inc()
	return data, nil
}
