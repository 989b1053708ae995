package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse-sync-backend/internal/classify"
	"warehouse-sync-backend/internal/model"
)

// unknownVendorReport buckets unattributed scans by probable origin. The
// categories are derived on the fly and never stored on the scans.
type unknownVendorReport struct {
	Total      int                     `json:"total"`
	Categories map[string]int          `json:"categories"`
	Scans      []unknownVendorScanItem `json:"scans"`
}

type unknownVendorScanItem struct {
	model.Scan
	Category string `json:"category"`
}

// UnknownVendors handles GET /api/reports/unknown-vendors.
func (h *Handler) UnknownVendors(c *gin.Context) {
	scans, err := h.store.UnknownVendorScans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve unknown vendor scans"})
		return
	}

	report := unknownVendorReport{
		Categories: map[string]int{
			classify.CategoryUPS:         0,
			classify.CategoryFedExUnmapd: 0,
			classify.CategoryOther:       0,
		},
		Scans: make([]unknownVendorScanItem, 0, len(scans)),
	}
	for _, scan := range scans {
		category := classify.UnknownCategory(scan.RawPayload, scan.TrackingNumber)
		report.Categories[category]++
		report.Total++
		report.Scans = append(report.Scans, unknownVendorScanItem{Scan: scan, Category: category})
	}

	c.JSON(http.StatusOK, report)
}
