package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://www.pik.ru/projects", cfg.Scraper.ProjectsURL)
	assert.Equal(t, "https://api.pik.ru/v2/filter", cfg.Scraper.APIURL)
	assert.Equal(t, []int{2, 3}, cfg.Scraper.Locations)
	assert.Equal(t, 50, cfg.Scraper.PageSize)
	assert.Equal(t, time.Second, cfg.Scraper.PageDelayMin)
	assert.Equal(t, 3*time.Second, cfg.Scraper.PageDelayMax)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Fetch.RetryDelay)
	assert.Equal(t, "db/db.sqlite3", cfg.Database.Path)
	assert.Equal(t, "0 6 * * *", cfg.Schedule.Cron)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SCRAPE_PAGE_SIZE", "20")
	t.Setenv("PAGE_DELAY_MIN", "0s")
	t.Setenv("PAGE_DELAY_MAX", "500ms")
	t.Setenv("TELEGRAM_ACCESS_IDS", "101,202")
	t.Setenv("R2D2_BOT_TOKEN", "123:legacy")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Scraper.PageSize)
	assert.Equal(t, time.Duration(0), cfg.Scraper.PageDelayMin)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.PageDelayMax)
	assert.Equal(t, []int64{101, 202}, cfg.Telegram.AccessIDs)
	assert.Equal(t, "123:legacy", cfg.BotToken())

	t.Setenv("TELEGRAM_BOT_TOKEN", "456:primary")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "456:primary", cfg.BotToken())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "Valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "Zero page size",
			mutate:  func(c *Config) { c.Scraper.PageSize = 0 },
			wantErr: "invalid page size",
		},
		{
			name:    "No attempts",
			mutate:  func(c *Config) { c.Fetch.MaxAttempts = 0 },
			wantErr: "invalid fetch attempts",
		},
		{
			name: "Inverted delay range",
			mutate: func(c *Config) {
				c.Scraper.PageDelayMin = 3 * time.Second
				c.Scraper.PageDelayMax = time.Second
			},
			wantErr: "invalid page delay range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Scraper.PageSize = 50
			cfg.Fetch.MaxAttempts = 3
			cfg.Scraper.PageDelayMin = time.Second
			cfg.Scraper.PageDelayMax = 3 * time.Second
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
