// Package provider is the optional side channel to the verification
// provider's API: an OAuth client-credentials token exchange and an "info"
// call that retrieves face/document images for a session. The pipeline must
// keep working (with reduced account enrichment) when either is unreachable.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"veriflow/internal/platform/config"
	"veriflow/pkg/platform/sentinel"
)

// tokenSafety is shaved off the provider-reported expiry before caching so a
// token is never used in its final moments.
const tokenSafety = 30 * time.Second

// TokenCache stores the provider access token with a TTL. The Redis
// implementation shares it across instances; losing it only costs an extra
// token exchange.
type TokenCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
}

// SessionInfo is the image enrichment for one verification session.
type SessionInfo struct {
	SessionID        string `json:"sessionId"`
	FaceImageRef     string `json:"faceImageRef,omitempty"`
	DocumentImageRef string `json:"documentImageRef,omitempty"`
}

// Client calls the provider API. A nil *Client is valid and reports itself
// unconfigured, which keeps main's wiring unconditional.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	tokens     TokenCache
	sf         singleflight.Group
	logger     *slog.Logger
}

// New constructs a provider client. Returns nil when no base URL is
// configured.
func New(cfg config.Provider, tokens TokenCache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		tokens:     tokens,
		logger:     logger,
	}
}

// Enabled reports whether the side channel is configured.
func (c *Client) Enabled() bool { return c != nil }

// Info retrieves session images. Callers treat any error as "no enrichment".
func (c *Client) Info(ctx context.Context, sessionID string) (*SessionInfo, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/info/%s", c.baseURL, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider info: unexpected status %d", resp.StatusCode)
	}

	var info SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("provider info: decode: %w", err)
	}
	return &info, nil
}

// accessToken returns a cached token or performs the exchange. Concurrent
// deliveries share one in-flight exchange via singleflight.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if token, err := c.tokens.Get(ctx); err == nil && token != "" {
		return token, nil
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		c.logger.WarnContext(ctx, "token cache read failed", "error", err)
	}

	v, err, _ := c.sf.Do("token", func() (any, error) {
		return c.exchangeWithRetry(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchangeWithRetry performs the client-credentials exchange, retrying once
// on transient network failure before surfacing a terminal error for this
// sub-step.
func (c *Client) exchangeWithRetry(ctx context.Context) (string, error) {
	token, ttl, err := c.exchange(ctx)
	if err != nil && transient(err) {
		c.logger.WarnContext(ctx, "token exchange transient failure, retrying", "error", err)
		token, ttl, err = c.exchange(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}

	if cacheErr := c.tokens.Set(ctx, token, ttl); cacheErr != nil {
		// Cache miss on the next delivery just costs another exchange.
		c.logger.WarnContext(ctx, "token cache write failed", "error", cacheErr)
	}
	return token, nil
}

func (c *Client) exchange(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, err
	}
	if out.AccessToken == "" {
		return "", 0, errors.New("empty access token")
	}

	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenSafety
	if ttl <= 0 {
		ttl = time.Minute
	}
	return out.AccessToken, ttl, nil
}

// transient reports whether err looks like a retryable network failure
// rather than a protocol-level rejection.
func transient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
