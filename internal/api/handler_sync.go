package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncTruck handles POST /api/trucks/{truck_id}/sync, the single-truck
// trigger surface. Rate limiting surfaces as a normal partial result.
func (h *Handler) SyncTruck(c *gin.Context) {
	truckID, ok := truckIDParam(c)
	if !ok {
		return
	}

	res := h.syncer.SyncTruck(c.Request.Context(), truckID)
	if res.NotFound {
		c.JSON(http.StatusNotFound, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SweepNow handles POST /api/sync/sweep, the retry sweep trigger surface.
func (h *Handler) SweepNow(c *gin.Context) {
	res := h.syncer.SweepOnce(c.Request.Context())
	c.JSON(http.StatusOK, res)
}
