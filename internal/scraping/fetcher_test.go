package scraping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkus007/FlatScrapper/config"
)

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Scraper.ProjectsURL = baseURL + "/projects"
	cfg.Scraper.APIURL = baseURL + "/v2/filter"
	cfg.Scraper.ProjectURLPrefix = "https://www.pik.ru/"
	cfg.Scraper.Locations = []int{2, 3}
	cfg.Scraper.PageSize = 50
	cfg.Fetch.MaxAttempts = 3
	cfg.Fetch.RetryDelay = time.Millisecond
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Fetch.UserAgent = "test-agent"
	return cfg
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestFetcher_RetriesUntilSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"count": 1}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL), testLogger())

	payload, err := fetcher.GetJSON(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, *Int(payload, "count"))
}

func TestFetcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL), testLogger())

	body, err := fetcher.Get(context.Background(), server.URL, url.Values{"block": {"1"}})
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Contains(t, err.Error(), "block=1")
	assert.Nil(t, body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetcher_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	fetcher := NewFetcher(testConfig(target), testLogger())

	_, err := fetcher.Get(context.Background(), target, nil)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}

func TestFetcher_EmptyBodyIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL), testLogger())

	payload, err := fetcher.GetJSON(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetcher_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":`))
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL), testLogger())

	_, err := fetcher.GetJSON(context.Background(), server.URL, nil)
	assert.ErrorContains(t, err, "failed to decode json")
}

func TestFetcher_CancelledContextStopsRetrying(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Fetch.RetryDelay = time.Hour
	fetcher := NewFetcher(cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fetcher.Get(ctx, server.URL, nil)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
