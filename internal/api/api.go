package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/api/handlers"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/api/middleware"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Forecasting    *service.ForecastingService
	Redistribution *service.RedistributionService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		var redistributionHandler *handlers.RedistributionHandler
		if services.Redistribution != nil {
			redistributionHandler = handlers.NewRedistributionHandler(services.Redistribution)
		}

		if services.Forecasting != nil {
			forecastingHandler := handlers.NewForecastingHandler(services.Forecasting)
			forecastingGroup := apiGroup.Group("/forecasting")
			{
				forecastingGroup.POST("/train", forecastingHandler.Train)
				forecastingGroup.GET("/training-status", forecastingHandler.TrainingStatus)
				forecastingGroup.POST("/generate", forecastingHandler.Generate)
				forecastingGroup.GET("/forecasts", forecastingHandler.GetForecasts)
				forecastingGroup.GET("/forecasts/summary", forecastingHandler.GetSummary)
				forecastingGroup.POST("/alerts/send", forecastingHandler.SendAlerts)

				// Inventory lives under /forecasting because forecasts
				// are assessed against it; the handlers belong to the
				// redistribution service.
				if redistributionHandler != nil {
					forecastingGroup.GET("/inventory", redistributionHandler.GetInventory)
					forecastingGroup.POST("/inventory/update", redistributionHandler.UpdateInventory)
				}
			}
		}

		if redistributionHandler != nil {
			redistributionGroup := apiGroup.Group("/redistribution")
			{
				redistributionGroup.GET("/opportunities", redistributionHandler.GetOpportunities)
				redistributionGroup.POST("/execute", redistributionHandler.Execute)
				redistributionGroup.GET("/summary", redistributionHandler.GetSummary)
				redistributionGroup.POST("/forecast-based", redistributionHandler.ForecastBased)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
