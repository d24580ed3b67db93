package nexudus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/metrics"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/retry"
)

type Config struct {
	BaseURL         string
	PageSize        int
	Timeout         time.Duration
	MaxAttempts     int
	RequestInterval time.Duration
}

// Client is a thin wrapper around the Nexudus REST API: pagination,
// pacing and retries. All methods return raw JSON records; no
// transformation happens here.
type Client struct {
	baseURL  string
	pageSize int
	interval time.Duration
	http     *http.Client
	tokens   *TokenSource
	retryCfg retry.Config
}

func NewClient(cfg Config, tokens *TokenSource) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		interval: cfg.RequestInterval,
		http:     &http.Client{Timeout: cfg.Timeout},
		tokens:   tokens,
		retryCfg: retry.Config{
			MaxAttempts:     cfg.MaxAttempts,
			InitialDelay:    2 * time.Second,
			MaxDelay:        60 * time.Second,
			Multiplier:      2.0,
			JitterFraction:  0.1,
			RetryableErrors: RetryableErrors,
			Logger:          logger.Log,
		},
	}
}

// Businesses lists all Nexudus businesses (locations).
func (c *Client) Businesses(ctx context.Context) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, "sys/businesses")
}

// FloorPlanDesks lists all floor plan desks (products).
func (c *Client) FloorPlanDesks(ctx context.Context) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, "sys/floorplandesks")
}

// CoworkerContracts lists all coworker contracts.
func (c *Client) CoworkerContracts(ctx context.Context) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, "billing/coworkercontracts")
}

// ExtraServices lists all extra services.
func (c *Client) ExtraServices(ctx context.Context) ([]json.RawMessage, error) {
	return c.fetchAll(ctx, "billing/extraservices")
}

// Resource fetches one bookable resource by id. A missing resource
// returns ErrNotFound.
func (c *Client) Resource(ctx context.Context, id int64) (json.RawMessage, error) {
	return retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
		return c.get(ctx, fmt.Sprintf("spaces/resources/%d", id), nil)
	})
}

type pageEnvelope struct {
	Records     []json.RawMessage `json:"Records"`
	CurrentPage int               `json:"CurrentPage"`
	HasNextPage bool              `json:"HasNextPage"`
}

// fetchAll walks the paged endpoint until HasNextPage goes false or a
// page comes back empty. Pages are paced by the configured interval.
func (c *Client) fetchAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	var records []json.RawMessage

	for page := 1; ; page++ {
		if page > 1 && c.interval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.interval):
			}
		}

		params := url.Values{
			"page": {strconv.Itoa(page)},
			"size": {strconv.Itoa(c.pageSize)},
		}

		body, err := retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
			return c.get(ctx, path, params)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", path, page, err)
		}

		var envelope pageEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			// Some endpoints return a bare array.
			var list []json.RawMessage
			if err := json.Unmarshal(body, &list); err != nil {
				return nil, fmt.Errorf("failed to decode %s page %d: %w", path, page, err)
			}
			return append(records, list...), nil
		}

		if len(envelope.Records) == 0 {
			break
		}

		logger.Debug("Fetched Nexudus page",
			zap.String("path", path),
			zap.Int("page", page),
			zap.Int("records", len(envelope.Records)),
		)
		records = append(records, envelope.Records...)

		if !envelope.HasNextPage {
			break
		}
	}

	return records, nil
}

// get performs one GET and classifies the outcome into the error
// taxonomy. Callers wrap it in retry.Do.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("nexudus", "network_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues("nexudus", strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransient, err)
		}
		return body, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s returned %d", ErrAuth, path, resp.StatusCode)

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, path)

	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s returned %d", ErrTransient, path, resp.StatusCode)

	default:
		return nil, fmt.Errorf("nexudus: %s returned unexpected status %d", path, resp.StatusCode)
	}
}
