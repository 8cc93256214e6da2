package scraping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkus007/FlatScrapper/internal/models"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Persist(ctx context.Context, result *Collection) (int, error) {
	args := m.Called(ctx, result)
	return args.Int(0), args.Error(1)
}

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunStore) CompactPrices(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// newSiteServer serves the projects page and one listings page per block.
// Blocks listed in failing answer with an error.
func newSiteServer(t *testing.T, projectsHTML string, failing map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(projectsHTML))
	})
	mux.HandleFunc("/v2/filter", func(w http.ResponseWriter, r *http.Request) {
		block := r.URL.Query().Get("block")
		if failing[block] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		id, _ := strconv.ParseInt(block, 10, 64)
		w.Write([]byte(listingPage(id, 2, int(id)*100, 2)))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestManager(t *testing.T, server *httptest.Server, persister Persister, store RunStore) *Manager {
	t.Helper()
	cfg := testConfig(server.URL)
	logger := testLogger()

	manager := NewManager(cfg, NewFetcher(cfg, logger), persister, store, logger)
	manager.now = func() time.Time { return time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC) }
	return manager
}

func TestManagerRun_Completed(t *testing.T) {
	server := newSiteServer(t, projectsPage, nil)

	persister := new(MockPersister)
	persister.On("Persist", mock.Anything, mock.MatchedBy(func(c *Collection) bool {
		return len(c.Flats) == 2 && c.Flats[0].ObservedAt == "2024-03-01"
	})).Return(2, nil).Times(3)

	store := new(MockRunStore)
	store.On("CreateRun", mock.Anything, mock.AnythingOfType("*models.ScrapeRun")).Return(nil).Once()
	store.On("CompactPrices", mock.Anything).Return(int64(4), nil).Once()
	store.On("FinishRun", mock.Anything, mock.MatchedBy(func(r *models.ScrapeRun) bool {
		return r.Status == models.RunStatusCompleted && r.FinishedAt != nil
	})).Return(nil).Once()

	run, err := newTestManager(t, server, persister, store).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.ComplexesFound)
	assert.Equal(t, 3, run.ComplexesScraped)
	assert.Zero(t, run.ComplexesFailed)
	assert.Equal(t, 6, run.FlatsFound)
	assert.Equal(t, 6, run.PricesInserted)
	assert.Equal(t, int64(4), run.PricesCompacted)

	persister.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestManagerRun_FailedComplexDoesNotStopRun(t *testing.T) {
	server := newSiteServer(t, projectsPage, map[string]bool{"149": true})

	persister := new(MockPersister)
	persister.On("Persist", mock.Anything, mock.Anything).Return(2, nil).Twice()

	store := new(MockRunStore)
	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("CompactPrices", mock.Anything).Return(int64(0), nil).Once()
	store.On("FinishRun", mock.Anything, mock.Anything).Return(nil)

	run, err := newTestManager(t, server, persister, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartial, run.Status)
	assert.Equal(t, 2, run.ComplexesScraped)
	assert.Equal(t, 1, run.ComplexesFailed)
	persister.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestManagerRun_PersistFailureMarksComplexFailed(t *testing.T) {
	server := newSiteServer(t, projectsPage, nil)

	persister := new(MockPersister)
	persister.On("Persist", mock.Anything, mock.MatchedBy(func(c *Collection) bool {
		return c.Complex.ComplexID == 7
	})).Return(0, errors.New("disk full"))
	persister.On("Persist", mock.Anything, mock.Anything).Return(2, nil)

	store := new(MockRunStore)
	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("CompactPrices", mock.Anything).Return(int64(0), nil)
	store.On("FinishRun", mock.Anything, mock.Anything).Return(nil)

	run, err := newTestManager(t, server, persister, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartial, run.Status)
	assert.Equal(t, 1, run.ComplexesFailed)
	assert.Equal(t, 4, run.PricesInserted)
}

func TestManagerRun_DiscoveryFailure(t *testing.T) {
	server := newSiteServer(t, `<html><body>no data</body></html>`, nil)

	persister := new(MockPersister)
	store := new(MockRunStore)
	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("FinishRun", mock.Anything, mock.MatchedBy(func(r *models.ScrapeRun) bool {
		return r.Status == models.RunStatusFailed && r.Error != ""
	})).Return(nil).Once()

	run, err := newTestManager(t, server, persister, store).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoProjectData))
	assert.True(t, IsDiscoveryError(err))
	assert.Equal(t, models.RunStatusFailed, run.Status)

	persister.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "CompactPrices", mock.Anything)
	store.AssertExpectations(t)
}

func TestManagerRun_CreateRunFailure(t *testing.T) {
	server := newSiteServer(t, projectsPage, nil)

	store := new(MockRunStore)
	store.On("CreateRun", mock.Anything, mock.Anything).Return(errors.New("read-only database"))

	run, err := newTestManager(t, server, new(MockPersister), store).Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, run)
}

func TestManagerRun_CancelledBeforeComplexes(t *testing.T) {
	server := newSiteServer(t, projectsPage, nil)

	persister := new(MockPersister)
	store := new(MockRunStore)
	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("CompactPrices", mock.Anything).Return(int64(0), nil)
	store.On("FinishRun", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	manager := newTestManager(t, server, persister, store)

	// Cancel once discovery is done so the loop stops before the first complex
	manager.fetcher = cancelAfterGet{PageFetcher: manager.fetcher, cancel: cancel}

	run, err := manager.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, models.RunStatusPartial, run.Status)
	assert.Zero(t, run.ComplexesScraped)
	persister.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything)
	store.AssertCalled(t, "CompactPrices", mock.Anything)
}

type cancelAfterGet struct {
	PageFetcher
	cancel context.CancelFunc
}

func (c cancelAfterGet) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	body, err := c.PageFetcher.Get(ctx, rawURL, params)
	c.cancel()
	return body, err
}
