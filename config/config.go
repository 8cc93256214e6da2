package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Scraper configuration
	Scraper struct {
		// Page listing every residential complex
		ProjectsURL string `env:"PIK_PROJECTS_URL" envDefault:"https://www.pik.ru/projects"`

		// Paginated flats API
		APIURL string `env:"PIK_API_URL" envDefault:"https://api.pik.ru/v2/filter"`

		// Prefix for the complex url returned by the API
		ProjectURLPrefix string `env:"PIK_PROJECT_URL_PREFIX" envDefault:"https://www.pik.ru/"`

		// Location codes passed to the API (2 - Moscow, 3 - Moscow region)
		Locations []int `env:"PIK_LOCATIONS" envDefault:"2,3" envSeparator:","`

		// Number of flats requested per page
		PageSize int `env:"SCRAPE_PAGE_SIZE" envDefault:"50"`

		// Bounds of the random pause between two page requests
		PageDelayMin time.Duration `env:"PAGE_DELAY_MIN" envDefault:"1s"`
		PageDelayMax time.Duration `env:"PAGE_DELAY_MAX" envDefault:"3s"`
	}

	// Fetch configuration
	Fetch struct {
		MaxAttempts int           `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`
		RetryDelay  time.Duration `env:"FETCH_RETRY_DELAY" envDefault:"3s"`
		Timeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
		UserAgent   string        `env:"FETCH_USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	}

	Database struct {
		Path string `env:"DB_PATH" envDefault:"db/db.sqlite3"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of retries for a batch the store refused as busy
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries
		RetryDelay time.Duration `env:"BATCH_RETRY_DELAY" envDefault:"2s"`
	}

	Schedule struct {
		Cron      string `env:"SCRAPE_CRON" envDefault:"0 6 * * *"`
		OnStartup bool   `env:"SCRAPE_ON_STARTUP" envDefault:"false"`
	}

	Telegram struct {
		BotToken    string        `env:"TELEGRAM_BOT_TOKEN"`
		LegacyToken string        `env:"R2D2_BOT_TOKEN"`
		AccessIDs   []int64       `env:"TELEGRAM_ACCESS_IDS" envSeparator:","`
		ExportDir   string        `env:"TELEGRAM_EXPORT_DIR" envDefault:"temp"`
		PollTimeout time.Duration `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"30s"`
	}

	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`
	}

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the scraper cannot work with.
func (c *Config) Validate() error {
	if c.Scraper.PageSize < 1 {
		return fmt.Errorf("invalid page size: %d", c.Scraper.PageSize)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("invalid fetch attempts: %d", c.Fetch.MaxAttempts)
	}
	if c.Scraper.PageDelayMin < 0 || c.Scraper.PageDelayMax < c.Scraper.PageDelayMin {
		return fmt.Errorf("invalid page delay range: %s..%s", c.Scraper.PageDelayMin, c.Scraper.PageDelayMax)
	}
	if c.BatchProcessing.MaxRetries < 0 {
		return fmt.Errorf("invalid batch retries: %d", c.BatchProcessing.MaxRetries)
	}
	return nil
}

// BotToken returns the configured Telegram token, preferring TELEGRAM_BOT_TOKEN.
func (c *Config) BotToken() string {
	if c.Telegram.BotToken != "" {
		return c.Telegram.BotToken
	}
	return c.Telegram.LegacyToken
}
