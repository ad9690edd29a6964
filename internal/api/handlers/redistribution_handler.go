package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/redistribution"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/service"
	"github.com/gin-gonic/gin"
)

type RedistributionHandler struct {
	service *service.RedistributionService
}

func NewRedistributionHandler(service *service.RedistributionService) *RedistributionHandler {
	return &RedistributionHandler{service: service}
}

// GetInventory returns raw inventory cells, optionally narrowed by
// blood type, hospital or location substring.
func (h *RedistributionHandler) GetInventory(c *gin.Context) {
	filter := domain.InventoryFilter{}

	if bloodType := strings.TrimSpace(c.Query("blood_type")); bloodType != "" {
		filter.BloodType = bloodType
	}

	if raw := strings.TrimSpace(c.Query("hospital_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hospital_id", "details": raw})
			return
		}
		filter.HospitalID = id
	}

	if location := strings.TrimSpace(c.Query("location")); location != "" {
		filter.Location = location
	}

	cells, err := h.service.Inventory(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inventory", "details": err.Error()})
		return
	}

	if cells == nil {
		cells = []domain.InventoryCell{}
	}

	c.JSON(http.StatusOK, gin.H{
		"inventory": cells,
		"total":     len(cells),
	})
}

type inventoryUpdateRequest struct {
	HospitalID   int64  `json:"hospital_id"`
	BloodType    string `json:"blood_type"`
	CurrentUnits *int   `json:"current_units"`
}

// UpdateInventory sets the stock level for a (hospital, blood type)
// cell, creating the cell with default bounds when it does not exist.
func (h *RedistributionHandler) UpdateInventory(c *gin.Context) {
	var req inventoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if req.HospitalID <= 0 || strings.TrimSpace(req.BloodType) == "" || req.CurrentUnits == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hospital_id, blood_type and current_units are required"})
		return
	}

	cell, err := h.service.UpdateInventory(c.Request.Context(), req.HospitalID, req.BloodType, *req.CurrentUnits)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrHospitalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "hospital not found", "details": err.Error()})
		case errors.Is(err, redistribution.ErrUnknownBloodType), errors.Is(err, service.ErrNegativeUnits):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inventory update", "details": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update inventory", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, cell)
}

func (h *RedistributionHandler) GetOpportunities(c *gin.Context) {
	bloodType := strings.TrimSpace(c.Query("blood_type"))

	opportunities, err := h.service.Opportunities(c.Request.Context(), bloodType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to identify opportunities", "details": err.Error()})
		return
	}

	if opportunities == nil {
		opportunities = []domain.RedistributionOpportunity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities":       opportunities,
		"total_opportunities": len(opportunities),
	})
}

type transferRequest struct {
	FromHospitalID int64  `json:"from_hospital_id"`
	ToHospitalID   int64  `json:"to_hospital_id"`
	BloodType      string `json:"blood_type"`
	Units          int    `json:"units"`
}

func (h *RedistributionHandler) Execute(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.Execute(c.Request.Context(), req.FromHospitalID, req.ToHospitalID, req.BloodType, req.Units)
	if err != nil {
		respondTransferError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondTransferError maps transfer failures onto HTTP statuses:
// inventory conflicts are 422 so clients can tell a rejected movement
// from a malformed request.
func respondTransferError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientInventoryError
	var capacity *domain.CapacityExceededError

	switch {
	case errors.As(err, &insufficient), errors.As(err, &capacity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "transfer rejected", "details": err.Error()})
	case errors.Is(err, domain.ErrHospitalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "hospital not found", "details": err.Error()})
	case errors.Is(err, redistribution.ErrSameHospital),
		errors.Is(err, redistribution.ErrInvalidUnits),
		errors.Is(err, redistribution.ErrUnknownBloodType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer request", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to execute transfer", "details": err.Error()})
	}
}

func (h *RedistributionHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch redistribution summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *RedistributionHandler) ForecastBased(c *gin.Context) {
	threshold := strings.TrimSpace(c.DefaultQuery("threshold_risk", "High"))
	minRisk, ok := domain.ParseRiskLevel(threshold)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown risk level", "details": threshold})
		return
	}

	plan, haveForecasts, err := h.service.PlanFromForecasts(c.Request.Context(), minRisk)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build redistribution plan", "details": err.Error()})
		return
	}

	if !haveForecasts {
		c.JSON(http.StatusOK, gin.H{
			"plan":    []domain.RedistributionOpportunity{},
			"message": "No forecasts available. Generate forecasts first.",
		})
		return
	}

	if plan == nil {
		plan = []domain.RedistributionOpportunity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":           plan,
		"total_actions":  len(plan),
		"threshold_risk": minRisk,
	})
}
