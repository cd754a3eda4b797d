package mpesa

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenCacheKey = "mpesa:access_token"

// TokenProvider exchanges the consumer key/secret for a short-lived bearer
// token and caches it until just before expiry. When a Redis client is
// supplied the cache is shared across instances; otherwise it is process-local.
type TokenProvider struct {
	cfg    Config
	client *http.Client
	rdb    *redis.Client // nil when Redis is not configured

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenProvider(cfg Config, rdb *redis.Client) *TokenProvider {
	return &TokenProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		rdb:    rdb,
	}
}

// AccessToken returns a valid bearer token, re-authenticating when the cached
// one is gone or about to expire. Placeholder credentials fail fast without a
// network call.
func (t *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	if err := t.cfg.checkCredentials(); err != nil {
		return "", err
	}

	t.mu.Lock()
	if t.token != "" && time.Now().Before(t.expiresAt) {
		token := t.token
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	if t.rdb != nil {
		if token, err := t.rdb.Get(ctx, tokenCacheKey).Result(); err == nil && token != "" {
			return token, nil
		}
	}

	token, ttl, err := t.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.token = token
	t.expiresAt = time.Now().Add(ttl)
	t.mu.Unlock()

	if t.rdb != nil {
		if err := t.rdb.Set(ctx, tokenCacheKey, token, ttl).Err(); err != nil {
			log.Printf("[mpesa] failed to cache access token in Redis: %v", err)
		}
	}

	return token, nil
}

func (t *TokenProvider) fetchToken(ctx context.Context) (string, time.Duration, error) {
	url := t.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, &AuthError{Message: "failed to build token request: " + err.Error()}
	}
	req.SetBasicAuth(t.cfg.ConsumerKey, t.cfg.ConsumerSecret)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", 0, &AuthError{Message: "token request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", 0, &AuthError{Message: "token request rejected", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"` // daraja sends seconds as a string
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, &AuthError{Message: "malformed token response: " + err.Error(), StatusCode: resp.StatusCode, Body: string(body)}
	}
	if result.AccessToken == "" {
		return "", 0, &AuthError{Message: "token response missing access_token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	// Cache for slightly less than the declared lifetime; 55 minutes when the
	// gateway does not say.
	ttl := 55 * time.Minute
	if secs, err := strconv.Atoi(result.ExpiresIn); err == nil && secs > 60 {
		ttl = time.Duration(secs-60) * time.Second
	}

	return result.AccessToken, ttl, nil
}
