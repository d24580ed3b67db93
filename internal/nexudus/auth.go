package nexudus

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

	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

// TokenCache is an optional shared cache for bearer tokens, so
// multiple instances don't each burn a password grant.
type TokenCache interface {
	GetToken(ctx context.Context, source string) (string, bool, error)
	SetToken(ctx context.Context, source, token string, ttl time.Duration) error
}

const tokenCacheKey = "nexudus"

// expiryBuffer refreshes tokens slightly early so in-flight requests
// never carry one that expires mid-call.
const expiryBuffer = 60 * time.Second

// TokenSource produces a valid bearer token. A static token wins;
// otherwise the password grant runs, cached in-struct and optionally
// in the shared cache.
type TokenSource struct {
	tokenURL string
	static   string
	username string
	password string
	http     *http.Client
	cache    TokenCache

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(baseURL, static, username, password string, httpClient *http.Client, cache TokenCache) *TokenSource {
	return &TokenSource{
		tokenURL: strings.TrimRight(baseURL, "/") + "/token",
		static:   static,
		username: username,
		password: password,
		http:     httpClient,
		cache:    cache,
	}
}

func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if ts.static != "" {
		return ts.static, nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiresAt.Add(-expiryBuffer)) {
		return ts.token, nil
	}

	if ts.cache != nil {
		if token, ok, err := ts.cache.GetToken(ctx, tokenCacheKey); err == nil && ok {
			ts.token = token
			// The cache TTL already accounts for expiry; assume the
			// buffer window locally.
			ts.expiresAt = time.Now().Add(2 * expiryBuffer)
			return token, nil
		}
	}

	if ts.username == "" || ts.password == "" {
		return "", fmt.Errorf("%w: no token or credentials configured", ErrAuth)
	}

	token, expiresIn, err := ts.passwordGrant(ctx)
	if err != nil {
		return "", err
	}

	ts.token = token
	ts.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	if ts.cache != nil {
		ttl := time.Duration(expiresIn)*time.Second - expiryBuffer
		if ttl > 0 {
			if err := ts.cache.SetToken(ctx, tokenCacheKey, token, ttl); err != nil {
				logger.Warn("Failed to cache bearer token", zap.Error(err))
			}
		}
	}

	return token, nil
}

func (ts *TokenSource) passwordGrant(ctx context.Context) (string, int, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {ts.username},
		"password":   {ts.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: token request failed: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to read token response: %v", ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: token endpoint returned %d", ErrAuth, resp.StatusCode)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", 0, fmt.Errorf("%w: malformed token response: %v", ErrAuth, err)
	}
	if grant.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token response has no access token", ErrAuth)
	}

	if grant.ExpiresIn == 0 {
		grant.ExpiresIn = 20159
	}

	logger.Info("Nexudus bearer token obtained", zap.Int("expires_in", grant.ExpiresIn))
	return grant.AccessToken, grant.ExpiresIn, nil
}
