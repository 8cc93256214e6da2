package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/darkus007/FlatScrapper/internal/database"
	"github.com/darkus007/FlatScrapper/internal/geometry"
	"github.com/darkus007/FlatScrapper/internal/models"
)

// Store is the read side of the database served over HTTP.
type Store interface {
	GetFlat(ctx context.Context, flatID int64) ([]models.FlatRow, error)
	GetFlatsByFilter(ctx context.Context, filter models.FlatFilter) ([]models.FlatRow, error)
	GetDistinctValues(ctx context.Context, table, column string) ([]string, error)
	GetComplexes(ctx context.Context) ([]models.Complex, error)
	GetRecentRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error)
}

type Handler struct {
	store  Store
	logger *logrus.Logger
}

type NearestQuery struct {
	Lat   *float64 `form:"lat" binding:"required"`
	Lon   *float64 `form:"lon" binding:"required"`
	Limit int      `form:"limit"`
}

func NewHandler(store Store, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetFlat returns every stored price snapshot of one flat.
func (h *Handler) GetFlat(c *gin.Context) {
	flatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flat id"})
		return
	}

	rows, err := h.store.GetFlat(c.Request.Context(), flatID)
	if err != nil {
		h.logger.WithError(err).WithField("flat_id", flatID).Error("Failed to get flat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get flat"})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flat not found"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// SearchFlats returns flats with their latest price matching the query.
func (h *Handler) SearchFlats(c *gin.Context) {
	var filter models.FlatFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter: " + err.Error()})
		return
	}

	rows, err := h.store.GetFlatsByFilter(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).WithField("filter", filter).Error("Failed to search flats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search flats"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetDistinctValues(c *gin.Context) {
	table := c.Param("table")
	column := c.Param("column")

	values, err := h.store.GetDistinctValues(c.Request.Context(), table, column)
	if errors.Is(err, database.ErrUnknownColumn) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown table or column"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"table":  table,
			"column": column,
		}).Error("Failed to get distinct values")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get values"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"values": values,
		"total":  len(values),
	})
}

// GetNearestComplexes ranks complexes by distance from lat/lon in metres.
func (h *Handler) GetNearestComplexes(c *gin.Context) {
	var query NearestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}
	if *query.Lat < -90 || *query.Lat > 90 || *query.Lon < -180 || *query.Lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates out of range"})
		return
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	complexes, err := h.store.GetComplexes(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get complexes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get complexes"})
		return
	}

	c.JSON(http.StatusOK, geometry.Nearest(complexes, orb.Point{*query.Lon, *query.Lat}, query.Limit))
}

func (h *Handler) GetComplexesGeoJSON(c *gin.Context) {
	complexes, err := h.store.GetComplexes(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get complexes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get complexes"})
		return
	}

	c.JSON(http.StatusOK, geometry.FeatureCollection(complexes))
}

func (h *Handler) GetRecentRuns(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	}

	runs, err := h.store.GetRecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get scrape runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get scrape runs"})
		return
	}

	c.JSON(http.StatusOK, runs)
}
