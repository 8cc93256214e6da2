package scraping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/sirupsen/logrus"
)

// PageFetcher retrieves raw pages and decoded JSON documents.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
	GetJSON(ctx context.Context, rawURL string, params url.Values) (any, error)
}

// Fetcher issues GET requests with a bounded number of attempts and a fixed
// pause between them.
type Fetcher struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	userAgent   string
	logger      *logrus.Logger
}

func NewFetcher(cfg *config.Config, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Fetcher{
		client:      &http.Client{Timeout: cfg.Fetch.Timeout},
		maxAttempts: cfg.Fetch.MaxAttempts,
		retryDelay:  cfg.Fetch.RetryDelay,
		userAgent:   cfg.Fetch.UserAgent,
		logger:      logger,
	}
}

// Get returns the body of the first 200 response. Transport errors and any
// other status are retried; an empty 200 body is a valid result.
func (f *Fetcher) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, status, err := f.do(ctx, target)
		if err == nil && status == http.StatusOK {
			f.logger.WithFields(logrus.Fields{
				"url":     target,
				"status":  status,
				"attempt": attempt,
			}).Debug("Fetched page")
			return body, nil
		}

		if err == nil {
			err = fmt.Errorf("unexpected status %d", status)
		}
		lastErr = err

		f.logger.WithFields(logrus.Fields{
			"url":     target,
			"status":  status,
			"attempt": attempt,
			"error":   err,
		}).Error("Fetch attempt failed")

		if ctx.Err() != nil {
			break
		}
		if attempt < f.maxAttempts {
			if err := sleepContext(ctx, f.retryDelay); err != nil {
				break
			}
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, target, lastErr)
}

// GetJSON fetches and decodes a JSON document. Numbers are kept as
// json.Number so large ids survive decoding. An empty body decodes to nil.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, params url.Values) (any, error) {
	body, err := f.Get(ctx, rawURL, params)
	if err != nil {
		return nil, err
	}
	return decodeJSON(body)
}

func (f *Fetcher) do(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func decodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return v, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
