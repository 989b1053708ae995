package detect

import (
	"context"
	"log"

	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
)

// WorkerPool manages a pool of workers that re-check trucks for duplicate
// reads. Scan ingestion flags the obvious same-truck repeat inline; this pool
// covers flags cleared by operators and scans imported out of order.
type WorkerPool struct {
	size  int
	jobs  chan int64
	store store.Store
}

// NewWorkerPool creates a new worker pool over the given store.
func NewWorkerPool(size int, s store.Store) *WorkerPool {
	return &WorkerPool{
		size:  size,
		jobs:  make(chan int64, size),
		store: s,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Dispatch queues a truck for duplicate detection.
func (wp *WorkerPool) Dispatch(truckID int64) {
	wp.jobs <- truckID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Detect worker %d started", id)
	for {
		select {
		case truckID := <-wp.jobs:
			wp.FlagDuplicates(ctx, truckID)
		case <-ctx.Done():
			log.Printf("Detect worker %d shutting down", id)
			return
		}
	}
}

// FlagDuplicates marks every repeat of a tracking number on one truck as a
// duplicate, keeping the earliest read unflagged.
func (wp *WorkerPool) FlagDuplicates(ctx context.Context, truckID int64) {
	scans, err := wp.store.ListScans(ctx, truckID, true)
	if err != nil {
		log.Printf("Error listing scans for truck %d: %v", truckID, err)
		return
	}

	seen := make(map[string]bool, len(scans))
	flagged := 0
	for _, scan := range scans {
		first := !seen[scan.TrackingNumber]
		seen[scan.TrackingNumber] = true
		if first || scan.IsDuplicate {
			continue
		}
		if err := wp.setDuplicate(ctx, scan); err != nil {
			log.Printf("Error flagging scan %d as duplicate: %v", scan.ID, err)
			continue
		}
		flagged++
	}

	if flagged > 0 {
		log.Printf("Truck %d: flagged %d duplicate scans", truckID, flagged)
	}
}

func (wp *WorkerPool) setDuplicate(ctx context.Context, scan model.Scan) error {
	dup := true
	return wp.store.SetScanFlags(ctx, scan.ID, nil, &dup)
}
