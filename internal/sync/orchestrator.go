package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"warehouse-sync-backend/config"
	"warehouse-sync-backend/internal/base44"
	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
)

// Gateway is the remote inventory API surface the orchestrator drives.
type Gateway interface {
	CreateManifest(ctx context.Context, m base44.Manifest) (string, error)
	ListLineItems(ctx context.Context, manifestID string) ([]string, error)
	CreateLineItem(ctx context.Context, manifestID string, item base44.LineItem) error
}

// Result reports the outcome of one sync run for one truck. Rate limiting is
// expected steady-state behavior and surfaces here as a partial result, never
// as an error.
type Result struct {
	TruckID     int64  `json:"truck_id"`
	Success     bool   `json:"success"`
	SyncedScans int    `json:"synced_scans"`
	TotalScans  int    `json:"total_scans"`
	FailedScans int    `json:"failed_scans"`
	RateLimited bool   `json:"rate_limited"`
	HardFailure bool   `json:"hard_failure"`
	NotFound    bool   `json:"-"`
	Message     string `json:"message,omitempty"`
}

// Orchestrator mirrors closed trucks and their scans into the remote
// inventory system: one manifest per truck, one line item per non-duplicate
// scan, at-least-once.
type Orchestrator struct {
	store store.Store
	gw    Gateway
	cfg   *config.SyncConfig
}

// NewOrchestrator creates an orchestrator over the given store and gateway.
func NewOrchestrator(s store.Store, gw Gateway, cfg *config.SyncConfig) *Orchestrator {
	return &Orchestrator{store: s, gw: gw, cfg: cfg}
}

// SyncTruck runs one sync pass for one truck. It is safe to call repeatedly:
// the persisted remote manifest id makes manifest creation idempotent, and
// the delta is always re-derived from the remote line-item list, so a rerun
// after a crash or rate-limit stop resumes instead of restarting.
func (o *Orchestrator) SyncTruck(ctx context.Context, truckID int64) Result {
	truck, scans, err := o.store.GetTruckWithScans(ctx, truckID)
	if err != nil {
		if errors.Is(err, store.ErrTruckNotFound) {
			return Result{TruckID: truckID, HardFailure: true, NotFound: true, Message: "truck not found"}
		}
		return Result{TruckID: truckID, HardFailure: true, Message: fmt.Sprintf("failed to load truck: %v", err)}
	}

	total := len(scans)

	manifestID := truck.RemoteManifestID
	if manifestID == "" {
		id, err := o.gw.CreateManifest(ctx, manifestFor(truck, total))
		if err != nil {
			// No local state was touched, so the next run retries from
			// scratch for this truck.
			if errors.Is(err, base44.ErrRateLimited) {
				return Result{TruckID: truckID, TotalScans: total, RateLimited: true,
					Message: "rate limited before manifest creation"}
			}
			return Result{TruckID: truckID, TotalScans: total, HardFailure: true,
				Message: fmt.Sprintf("manifest creation failed: %v", err)}
		}
		// Idempotency anchor: persist the identifier before anything else.
		// A crash or rate limit after this point can no longer lead to a
		// second manifest for this truck.
		if err := o.store.SetRemoteManifestID(ctx, truckID, id); err != nil {
			return Result{TruckID: truckID, TotalScans: total, HardFailure: true,
				Message: fmt.Sprintf("failed to persist manifest id: %v", err)}
		}
		manifestID = id
		log.Printf("Truck %d anchored to remote manifest %s", truckID, manifestID)
	}

	// The remote system is the source of truth for what already landed; no
	// local per-scan flag substitutes for this read.
	existing, err := o.gw.ListLineItems(ctx, manifestID)
	if err != nil {
		if errors.Is(err, base44.ErrRateLimited) {
			return Result{TruckID: truckID, TotalScans: total, RateLimited: true,
				Message: "rate limited while listing existing line items"}
		}
		return Result{TruckID: truckID, TotalScans: total, HardFailure: true,
			Message: fmt.Sprintf("failed to list existing line items: %v", err)}
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, tn := range existing {
		existingSet[tn] = struct{}{}
	}

	var delta []model.Scan
	for _, scan := range scans {
		if _, ok := existingSet[scan.TrackingNumber]; !ok {
			delta = append(delta, scan)
		}
	}

	synced := total - len(delta)
	if len(delta) == 0 {
		if err := o.store.MarkTruckFullySynced(ctx, truckID); err != nil {
			log.Printf("Truck %d is fully synced but marking it failed: %v", truckID, err)
		}
		return Result{TruckID: truckID, Success: true, SyncedScans: synced, TotalScans: total}
	}

	failed := 0
	rateLimited := false

upload:
	for start := 0; start < len(delta); start += o.chunkSize() {
		end := start + o.chunkSize()
		if end > len(delta) {
			end = len(delta)
		}
		if start > 0 {
			// Longer pause between chunks, throttling only.
			time.Sleep(o.cfg.ChunkDelay)
		}

		for i, scan := range delta[start:end] {
			if i > 0 {
				time.Sleep(o.cfg.ItemDelay)
			}
			err := o.gw.CreateLineItem(ctx, manifestID, lineItemFor(scan))
			switch {
			case errors.Is(err, base44.ErrRateLimited):
				// Stop the entire run; the next sweep resumes from the
				// remote existing-items check.
				rateLimited = true
				break upload
			case err != nil:
				// One bad item must not abort the truck. It stays absent
				// from the remote set and is retried on the next sweep.
				log.Printf("Truck %d: failed to create line item for %s: %v", truckID, scan.TrackingNumber, err)
				failed++
			default:
				synced++
			}
		}
	}

	success := synced == total
	if success {
		if err := o.store.MarkTruckFullySynced(ctx, truckID); err != nil {
			log.Printf("Truck %d is fully synced but marking it failed: %v", truckID, err)
		}
	}

	res := Result{
		TruckID:     truckID,
		Success:     success,
		SyncedScans: synced,
		TotalScans:  total,
		FailedScans: failed,
		RateLimited: rateLimited,
	}
	if rateLimited {
		res.Message = fmt.Sprintf("rate limited after %d/%d scans", synced, total)
	}
	return res
}

func (o *Orchestrator) chunkSize() int {
	if o.cfg.ChunkSize <= 0 {
		return 25
	}
	return o.cfg.ChunkSize
}

func manifestFor(truck *model.Truck, scanCount int) base44.Manifest {
	return base44.Manifest{
		TruckNumber: truck.TruckNumber,
		Carrier:     truck.Carrier,
		Location:    truck.Location,
		SecurityTag: truck.SecurityTag,
		ClosedAt:    truck.ClosedAt,
		ScanCount:   scanCount,
	}
}

func lineItemFor(scan model.Scan) base44.LineItem {
	return base44.LineItem{
		TrackingNumber: scan.TrackingNumber,
		Carrier:        scan.Carrier,
		Destination:    scan.Destination,
		Vendor:         scan.Vendor,
		ScannedAt:      scan.ScannedAt,
	}
}
