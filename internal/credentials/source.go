package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"photoflow/internal/logging"
	"photoflow/internal/metrics"
)

// DefaultTokenEndpoint is Google's OAuth2 token exchange endpoint.
const DefaultTokenEndpoint = "https://oauth2.googleapis.com/token"

// expirySkew refreshes slightly early so a token never expires mid-page.
const expirySkew = time.Minute

// Source exchanges the stored refresh token for access tokens and
// caches them until close to expiry. It implements photoslib.TokenSource.
type Source struct {
	store      *Store
	endpoint   string
	httpClient *http.Client
	logger     logging.Logger

	mu     sync.Mutex
	cached Credentials
	loaded bool
}

// SourceConfig carries optional Source settings; the zero value selects
// the Google endpoint and a default HTTP client.
type SourceConfig struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewSource returns a token source backed by the given store.
func NewSource(store *Store, cfg SourceConfig, logger logging.Logger) *Source {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultTokenEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{
		store:      store,
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logging.Or(logger),
	}
}

// Token returns a valid access token, refreshing and persisting it when
// the cached one is absent or expiring.
func (s *Source) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		creds, err := s.store.Load()
		if err != nil {
			return "", err
		}
		s.cached = creds
		s.loaded = true
	}

	if s.cached.Valid(time.Now().Add(expirySkew)) {
		return s.cached.AccessToken, nil
	}

	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.cached.AccessToken, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Source) refreshLocked(ctx context.Context) error {
	form := url.Values{
		"client_id":     {s.cached.ClientID},
		"client_secret": {s.cached.ClientSecret},
		"refresh_token": {s.cached.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.logger.Debug("refreshing access token")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		s.logger.Error("token refresh rejected: status %d: %s", resp.StatusCode, body)
		return fmt.Errorf("token refresh failed with status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("malformed token response: %w", err)
	}

	s.cached.AccessToken = tok.AccessToken
	s.cached.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	s.logger.Info("access token refreshed, valid for %ds", tok.ExpiresIn)

	// Persist so the next process start skips the first refresh. A
	// failed write only costs that optimization.
	if err := s.store.Save(s.cached); err != nil {
		s.logger.Warn("could not persist refreshed token: %v", err)
	}
	return nil
}
