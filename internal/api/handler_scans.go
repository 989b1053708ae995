package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
)

type createScanRequest struct {
	TrackingNumber string     `json:"tracking_number" binding:"required"`
	Carrier        string     `json:"carrier"`
	Destination    string     `json:"destination"`
	Recipient      string     `json:"recipient"`
	Address        string     `json:"address"`
	RawPayload     string     `json:"raw_payload"`
	ScannedBy      string     `json:"scanned_by"`
	ScannedAt      *time.Time `json:"scanned_at"`
	ScanType       string     `json:"scan_type"`
}

// CreateScan handles POST /api/trucks/{truck_id}/scans. Vendor attribution
// and the miscan flag are computed here, once, from the raw payload.
func (h *Handler) CreateScan(c *gin.Context) {
	truckID, ok := truckIDParam(c)
	if !ok {
		return
	}

	var req createScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scan := model.Scan{
		TruckID:        truckID,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Destination:    req.Destination,
		Recipient:      req.Recipient,
		Address:        req.Address,
		RawPayload:     req.RawPayload,
		ScannedBy:      req.ScannedBy,
		ScanType:       req.ScanType,
	}
	if req.ScannedAt != nil {
		scan.ScannedAt = *req.ScannedAt
	}

	if err := h.store.CreateScan(c.Request.Context(), &scan); err != nil {
		switch {
		case errors.Is(err, store.ErrTruckNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Truck not found"})
		case errors.Is(err, store.ErrTruckNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": "Truck is not open"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scan"})
		}
		return
	}

	if h.detect != nil {
		h.detect.Dispatch(truckID)
	}

	c.JSON(http.StatusCreated, scan)
}

// ListScans handles GET /api/trucks/{truck_id}/scans. Duplicates are hidden
// unless ?include_duplicates=true is given.
func (h *Handler) ListScans(c *gin.Context) {
	truckID, ok := truckIDParam(c)
	if !ok {
		return
	}

	includeDuplicates := c.Query("include_duplicates") == "true"
	scans, err := h.store.ListScans(c.Request.Context(), truckID, includeDuplicates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scans"})
		return
	}
	c.JSON(http.StatusOK, scans)
}

// ReclassifyScans handles POST /api/scans/reclassify, the explicit vendor
// backfill.
func (h *Handler) ReclassifyScans(c *gin.Context) {
	changed, err := h.store.ReclassifyScans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reclassify scans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reclassified": changed})
}
