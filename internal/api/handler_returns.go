package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse-sync-backend/internal/model"
)

type createReturnRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
	Carrier        string `json:"carrier"`
	Reason         string `json:"reason"`
	ReceivedBy     string `json:"received_by"`
}

// CreateReturn handles POST /api/returns.
func (h *Handler) CreateReturn(c *gin.Context) {
	var req createReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ret := model.ReturnItem{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Reason:         req.Reason,
		ReceivedBy:     req.ReceivedBy,
	}
	if err := h.store.CreateReturn(c.Request.Context(), &ret); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create return"})
		return
	}

	c.JSON(http.StatusCreated, ret)
}

// ListReturns handles GET /api/returns.
func (h *Handler) ListReturns(c *gin.Context) {
	returns, err := h.store.ListReturns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve returns"})
		return
	}
	c.JSON(http.StatusOK, returns)
}
