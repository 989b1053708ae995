package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
)

type openTruckRequest struct {
	TruckNumber string `json:"truck_number" binding:"required"`
	Carrier     string `json:"carrier"`
	Location    string `json:"location"`
	SecurityTag string `json:"security_tag"`
	OpenedBy    string `json:"opened_by" binding:"required"`
}

// OpenTruck handles POST /api/trucks.
func (h *Handler) OpenTruck(c *gin.Context) {
	var req openTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	truck := model.Truck{
		TruckNumber: req.TruckNumber,
		Carrier:     req.Carrier,
		Location:    req.Location,
		SecurityTag: req.SecurityTag,
		OpenedBy:    req.OpenedBy,
	}
	if err := h.store.CreateTruck(c.Request.Context(), &truck); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create truck"})
		return
	}

	c.JSON(http.StatusCreated, truck)
}

type closeTruckRequest struct {
	ClosedBy string `json:"closed_by" binding:"required"`
}

// CloseTruck handles POST /api/trucks/{truck_id}/close.
func (h *Handler) CloseTruck(c *gin.Context) {
	truckID, ok := truckIDParam(c)
	if !ok {
		return
	}

	var req closeTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CloseTruck(c.Request.Context(), truckID, req.ClosedBy); err != nil {
		if errors.Is(err, store.ErrTruckNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Truck not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close truck"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListTrucks handles GET /api/trucks.
func (h *Handler) ListTrucks(c *gin.Context) {
	trucks, err := h.store.ListTrucks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve trucks"})
		return
	}
	c.JSON(http.StatusOK, trucks)
}

// truckResponse is a truck together with its visible scans and derived count.
type truckResponse struct {
	model.Truck
	ScanCount int          `json:"scan_count"`
	Scans     []model.Scan `json:"scans"`
}

// GetTruck handles GET /api/trucks/{truck_id}. The scan count is derived
// from the non-duplicate scans, never read from a stored counter.
func (h *Handler) GetTruck(c *gin.Context) {
	truckID, ok := truckIDParam(c)
	if !ok {
		return
	}

	truck, scans, err := h.store.GetTruckWithScans(c.Request.Context(), truckID)
	if err != nil {
		if errors.Is(err, store.ErrTruckNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Truck not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve truck"})
		return
	}

	c.JSON(http.StatusOK, truckResponse{Truck: *truck, ScanCount: len(scans), Scans: scans})
}

func truckIDParam(c *gin.Context) (int64, bool) {
	truckID, err := strconv.ParseInt(c.Param("truck_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid truck ID"})
		return 0, false
	}
	return truckID, true
}
