package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/alerts"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastingHandler struct {
	service *service.ForecastingService
}

func NewForecastingHandler(service *service.ForecastingService) *ForecastingHandler {
	return &ForecastingHandler{service: service}
}

// Train starts model training in the background. Clients poll
// /training-status to see when the model becomes ready.
func (h *ForecastingHandler) Train(c *gin.Context) {
	force := strings.EqualFold(strings.TrimSpace(c.DefaultQuery("force_retrain", "false")), "true")

	h.service.TrainAsync(force)

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Model training started",
		"status":  "processing",
	})
}

func (h *ForecastingHandler) TrainingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.TrainingStatus(c.Request.Context()))
}

type generateRequest struct {
	HoursAhead int      `json:"hours_ahead"`
	Regions    []string `json:"regions"`
}

func (h *ForecastingHandler) Generate(c *gin.Context) {
	var req generateRequest
	// An empty body means "defaults": 48h horizon, all regions.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	forecasts, err := h.service.Generate(c.Request.Context(), req.HoursAhead, req.Regions)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotReady) {
			c.JSON(http.StatusConflict, gin.H{"error": "model not trained", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate forecasts", "details": err.Error()})
		return
	}

	if forecasts == nil {
		forecasts = []domain.Forecast{}
	}

	c.JSON(http.StatusCreated, gin.H{
		"forecasts":           forecasts,
		"forecasts_generated": len(forecasts),
	})
}

func (h *ForecastingHandler) parseForecastFilter(c *gin.Context) domain.ForecastFilter {
	filter := domain.ForecastFilter{Limit: 50}

	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	if bloodType := strings.TrimSpace(c.Query("blood_type")); bloodType != "" {
		filter.BloodType = bloodType
	}

	if region := strings.TrimSpace(c.Query("region")); region != "" {
		filter.Region = region
	}

	// Unknown risk labels are ignored rather than rejected, so stale
	// clients degrade to an unfiltered listing.
	if raw := strings.TrimSpace(c.Query("min_risk")); raw != "" {
		if risk, ok := domain.ParseRiskLevel(raw); ok {
			filter.MinRisk = &risk
		}
	}

	return filter
}

func (h *ForecastingHandler) GetForecasts(c *gin.Context) {
	filter := h.parseForecastFilter(c)

	forecasts, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecasts", "details": err.Error()})
		return
	}

	if forecasts == nil {
		forecasts = []domain.Forecast{}
	}

	c.JSON(http.StatusOK, gin.H{
		"forecasts": forecasts,
		"total":     len(forecasts),
	})
}

func (h *ForecastingHandler) GetSummary(c *gin.Context) {
	hoursBack, _ := strconv.Atoi(c.DefaultQuery("hours_back", "24"))

	summary, err := h.service.Summary(c.Request.Context(), hoursBack)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

type alertRequest struct {
	ForecastID   *int64 `json:"forecast_id"`
	MinRiskLevel string `json:"min_risk_level"`
}

func (h *ForecastingHandler) SendAlerts(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	minRisk := domain.RiskHigh
	if raw := strings.TrimSpace(req.MinRiskLevel); raw != "" {
		risk, ok := domain.ParseRiskLevel(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown risk level", "details": raw})
			return
		}
		minRisk = risk
	}

	sent, err := h.service.SendAlerts(c.Request.Context(), req.ForecastID, minRisk)
	if err != nil {
		if errors.Is(err, domain.ErrForecastNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "forecast not found", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send alerts", "details": err.Error()})
		return
	}

	if sent == nil {
		sent = []alerts.Alert{}
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts_sent":  sent,
		"total_alerts": len(sent),
	})
}
