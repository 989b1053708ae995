package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"warehouse-sync-backend/config"
	"warehouse-sync-backend/internal/detect"
	"warehouse-sync-backend/internal/mw"
	"warehouse-sync-backend/internal/store"
	"warehouse-sync-backend/internal/sync"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, syncer *sync.Service, detectPool *detect.WorkerPool) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, syncer, detectPool)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/trucks", handler.OpenTruck)
		api.GET("/trucks", handler.ListTrucks)
		api.GET("/trucks/:truck_id", handler.GetTruck)
		api.POST("/trucks/:truck_id/close", handler.CloseTruck)

		api.POST("/trucks/:truck_id/scans", handler.CreateScan)
		api.GET("/trucks/:truck_id/scans", handler.ListScans)

		api.POST("/trucks/:truck_id/sync", handler.SyncTruck)
		api.POST("/sync/sweep", handler.SweepNow)

		api.POST("/scans/reclassify", handler.ReclassifyScans)
		api.GET("/reports/unknown-vendors", caching, handler.UnknownVendors)

		api.POST("/returns", handler.CreateReturn)
		api.GET("/returns", handler.ListReturns)
	}

	return r
}
