package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/models"
)

type fakeRunner struct {
	calls   int32
	release chan struct{}
	err     error
}

func (f *fakeRunner) Run(ctx context.Context) (*models.ScrapeRun, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.ScrapeRun{ID: "run", Status: models.RunStatusCompleted}, nil
}

func (f *fakeRunner) count() int {
	return int(atomic.LoadInt32(&f.calls))
}

func testConfig(cron string, onStartup bool) *config.Config {
	cfg := &config.Config{}
	cfg.Schedule.Cron = cron
	cfg.Schedule.OnStartup = onStartup
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, testConfig("not a cron", false), quietLogger())
	err := s.Start()
	assert.ErrorContains(t, err, "invalid cron expression")
}

func TestScheduler_StartupRun(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, testConfig("0 6 * * *", true), quietLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_NoStartupRun(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, testConfig("0 6 * * *", false), quietLogger())
	require.NoError(t, s.Start())
	s.Stop()

	assert.Zero(t, runner.count())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s := NewScheduler(runner, testConfig("0 6 * * *", false), quietLogger())

	started := make(chan bool)
	go func() { started <- s.RunNow() }()
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)

	// A second trigger while the first run holds the lock is skipped
	assert.False(t, s.RunNow())
	assert.Equal(t, 1, runner.count())

	close(runner.release)
	assert.True(t, <-started)

	runner.release = nil
	assert.True(t, s.RunNow())
	assert.Equal(t, 2, runner.count())
}

func TestScheduler_CronTriggers(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, testConfig("@every 1s", false), quietLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.count() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_StopCancelsRun(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s := NewScheduler(runner, testConfig("0 6 * * *", true), quietLogger())
	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	// No runs start after Stop
	assert.False(t, s.RunNow())
}

func TestScheduler_RunErrorIsLogged(t *testing.T) {
	runner := &fakeRunner{err: errors.New("discovery failed")}
	s := NewScheduler(runner, testConfig("0 6 * * *", false), quietLogger())

	assert.True(t, s.RunNow())
	assert.Equal(t, 1, runner.count())
}
