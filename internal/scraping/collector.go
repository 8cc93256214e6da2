package scraping

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/models"
	"github.com/sirupsen/logrus"
)

// Collection holds everything scraped for one complex.
type Collection struct {
	Complex models.Complex
	Flats   []models.Flat
	Prices  []models.Price
	Pages   int
}

// Collector walks the paginated listings API for one complex at a time.
type Collector struct {
	fetcher   PageFetcher
	apiURL    string
	urlPrefix string
	locations string
	pageSize  int
	delayMin  time.Duration
	delayMax  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *logrus.Logger
}

func NewCollector(fetcher PageFetcher, cfg *config.Config, logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	locations := make([]string, 0, len(cfg.Scraper.Locations))
	for _, loc := range cfg.Scraper.Locations {
		locations = append(locations, strconv.Itoa(loc))
	}

	return &Collector{
		fetcher:   fetcher,
		apiURL:    cfg.Scraper.APIURL,
		urlPrefix: cfg.Scraper.ProjectURLPrefix,
		locations: strings.Join(locations, ","),
		pageSize:  cfg.Scraper.PageSize,
		delayMin:  cfg.Scraper.PageDelayMin,
		delayMax:  cfg.Scraper.PageDelayMax,
		sleep:     sleepContext,
		logger:    logger,
	}
}

// TotalPages returns ceil(count / pageSize), never less than one.
func TotalPages(count int64, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 1
	}
	pages := int((count + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		return 1
	}
	return pages
}

// Collect fetches every page of the complex. If a later page fails, the
// records gathered so far are returned together with the error. A failure
// on the first page returns no collection.
func (c *Collector) Collect(ctx context.Context, project models.Project, observedAt string) (*Collection, error) {
	log := c.logger.WithFields(logrus.Fields{
		"complex_id": project.ID,
		"name":       project.Name,
	})

	first, err := c.fetcher.GetJSON(ctx, c.apiURL, c.pageParams(project.ID, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page 1 of complex %d: %w", project.ID, err)
	}

	count := int64(0)
	if n := Int64(first, "count"); n != nil {
		count = *n
	}
	totalPages := TotalPages(count, c.pageSize)

	log.WithFields(logrus.Fields{
		"flats": count,
		"pages": totalPages,
	}).Debug("Collecting complex")

	result := &Collection{
		Complex: NormalizeComplex(first, project, c.urlPrefix, observedAt),
		Flats:   []models.Flat{},
		Prices:  []models.Price{},
	}
	c.appendPage(result, first, observedAt)

	for page := 2; page <= totalPages; page++ {
		if err := c.sleep(ctx, c.pageDelay()); err != nil {
			return result, fmt.Errorf("collection of complex %d interrupted at page %d: %w", project.ID, page, err)
		}

		payload, err := c.fetcher.GetJSON(ctx, c.apiURL, c.pageParams(project.ID, page))
		if err != nil {
			return result, fmt.Errorf("failed to fetch page %d/%d of complex %d: %w", page, totalPages, project.ID, err)
		}

		log.WithFields(logrus.Fields{
			"page":  page,
			"pages": totalPages,
		}).Debug("Fetched listings page")

		c.appendPage(result, payload, observedAt)
	}

	log.WithField("flats", len(result.Flats)).Info("Complex collected")
	return result, nil
}

func (c *Collector) appendPage(result *Collection, payload any, observedAt string) {
	result.Pages++

	raw, ok := Lookup(payload, "blocks", 0, "flats")
	if !ok {
		return
	}
	flats, ok := raw.([]any)
	if !ok {
		return
	}

	for i, item := range flats {
		flat, price, ok := NormalizeFlat(item, result.Complex.ComplexID, observedAt)
		if !ok {
			c.logger.WithFields(logrus.Fields{
				"complex_id": result.Complex.ComplexID,
				"page":       result.Pages,
				"index":      i,
			}).Warn("Skipping flat without id")
			continue
		}
		result.Flats = append(result.Flats, flat)
		result.Prices = append(result.Prices, price)
	}
}

func (c *Collector) pageParams(complexID int64, page int) url.Values {
	params := url.Values{}
	params.Set("customSort", "1")
	params.Set("type", "1,2")
	params.Set("location", c.locations)
	params.Set("block", strconv.FormatInt(complexID, 10))
	params.Set("flatLimit", strconv.Itoa(c.pageSize))
	params.Set("onlyFlats", "1")
	params.Set("flatPage", strconv.Itoa(page))
	return params
}

func (c *Collector) pageDelay() time.Duration {
	if c.delayMax <= c.delayMin {
		return c.delayMin
	}
	return c.delayMin + rand.N(c.delayMax-c.delayMin+1)
}
