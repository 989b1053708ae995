package sync

import (
	"context"
	"log"
	"time"

	"warehouse-sync-backend/config"
	"warehouse-sync-backend/internal/store"
)

// SweepResult aggregates one retry sweep over all closed, unsynced trucks.
// Partially synced trucks are neither successes nor failures; they are left
// for the next sweep, which resumes them cheaply via the manifest anchor and
// the remote existing-items check.
type SweepResult struct {
	Swept       int `json:"swept"`
	FullySynced int `json:"fully_synced"`
	Partial     int `json:"partial"`
	Failed      int `json:"failed"`
}

// Service periodically drives every closed-but-unsynced truck through the
// orchestrator.
type Service struct {
	cfg   *config.Config
	store store.Store
	orch  *Orchestrator
}

// NewService creates the sync service.
func NewService(cfg *config.Config, s store.Store, gw Gateway) *Service {
	return &Service{
		cfg:   cfg,
		store: s,
		orch:  NewOrchestrator(s, gw, &cfg.Sync),
	}
}

// SyncTruck runs a single-truck sync, the one-truck trigger surface.
func (s *Service) SyncTruck(ctx context.Context, truckID int64) Result {
	return s.orch.SyncTruck(ctx, truckID)
}

// Run starts the periodic retry sweep in a loop until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sync.Enabled {
		log.Println("Sync sweep is disabled. Not starting.")
		return
	}
	log.Println("Starting sync sweep service...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Sync.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync sweep service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sync.Interval)
		}
	}
}

// SweepOnce enumerates all closed trucks with absent or incomplete sync and
// runs each through the orchestrator, pacing between trucks.
func (s *Service) SweepOnce(ctx context.Context) SweepResult {
	log.Println("Executing sync sweep...")

	trucks, err := s.store.GetClosedUnsyncedTrucks(ctx)
	if err != nil {
		log.Printf("Error listing unsynced trucks: %v", err)
		return SweepResult{}
	}
	if len(trucks) == 0 {
		log.Println("Sync sweep finished: nothing to sync.")
		return SweepResult{}
	}

	var result SweepResult
	for i, truck := range trucks {
		if i > 0 {
			time.Sleep(s.cfg.Sync.TruckDelay)
		}

		res := s.orch.SyncTruck(ctx, truck.ID)
		result.Swept++
		switch {
		case res.Success:
			result.FullySynced++
			log.Printf("Truck %d fully synced (%d/%d scans)", res.TruckID, res.SyncedScans, res.TotalScans)
		case res.HardFailure:
			result.Failed++
			log.Printf("Truck %d sync failed: %s", res.TruckID, res.Message)
		default:
			result.Partial++
			log.Printf("Truck %d partially synced (%d/%d scans, %d failed): %s",
				res.TruckID, res.SyncedScans, res.TotalScans, res.FailedScans, res.Message)
		}
	}

	log.Printf("Sync sweep finished: %d swept, %d fully synced, %d partial, %d failed",
		result.Swept, result.FullySynced, result.Partial, result.Failed)
	return result
}
