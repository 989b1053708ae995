package api

import (
	"warehouse-sync-backend/internal/detect"
	"warehouse-sync-backend/internal/store"
	"warehouse-sync-backend/internal/sync"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store  store.Store
	syncer *sync.Service
	detect *detect.WorkerPool
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, syncer *sync.Service, detectPool *detect.WorkerPool) *Handler {
	return &Handler{
		store:  s,
		syncer: syncer,
		detect: detectPool,
	}
}
