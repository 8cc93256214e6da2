package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(router *gin.Engine, store Store, logger *logrus.Logger) {
	handler := NewHandler(store, logger)

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/flats", handler.SearchFlats)
		api.GET("/flats/:id", handler.GetFlat)
		api.GET("/values/:table/:column", handler.GetDistinctValues)
		api.GET("/complexes/nearest", handler.GetNearestComplexes)
		api.GET("/complexes/geojson", handler.GetComplexesGeoJSON)
		api.GET("/runs", handler.GetRecentRuns)
	}
}
