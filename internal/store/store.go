package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"warehouse-sync-backend/internal/classify"
	"warehouse-sync-backend/internal/model"
)

// ErrTruckNotFound is returned when an operation names a truck that does not
// exist locally.
var ErrTruckNotFound = errors.New("store: truck not found")

// ErrTruckNotOpen is returned when a scan is recorded against a truck that is
// not in the open state.
var ErrTruckNotOpen = errors.New("store: truck is not open")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateTruck(ctx context.Context, truck *model.Truck) error
	CloseTruck(ctx context.Context, truckID int64, closedBy string) error
	ListTrucks(ctx context.Context) ([]model.Truck, error)

	// GetTruckWithScans returns a truck together with its non-duplicate
	// scans in ingestion order.
	GetTruckWithScans(ctx context.Context, truckID int64) (*model.Truck, []model.Scan, error)

	// GetClosedUnsyncedTrucks returns every closed truck whose remote sync
	// is absent or incomplete.
	GetClosedUnsyncedTrucks(ctx context.Context) ([]model.Truck, error)

	// SetRemoteManifestID persists the remote manifest identifier for a
	// truck. The write happens at most once: a differing identifier that is
	// already present is never overwritten.
	SetRemoteManifestID(ctx context.Context, truckID int64, remoteID string) error
	MarkTruckFullySynced(ctx context.Context, truckID int64) error

	// CreateScan records one barcode read. The classifier runs here, once,
	// and a same-truck tracking number collision marks the new scan as a
	// duplicate.
	CreateScan(ctx context.Context, scan *model.Scan) error
	ListScans(ctx context.Context, truckID int64, includeDuplicates bool) ([]model.Scan, error)
	SetScanFlags(ctx context.Context, scanID int64, isMiscan, isDuplicate *bool) error

	// ReclassifyScans re-runs vendor attribution over every scan. This is
	// the only path that changes a scan's vendor after creation.
	ReclassifyScans(ctx context.Context) (int64, error)

	// UnknownVendorScans returns scans that no account code matched.
	UnknownVendorScans(ctx context.Context) ([]model.Scan, error)

	CreateReturn(ctx context.Context, ret *model.ReturnItem) error
	ListReturns(ctx context.Context) ([]model.ReturnItem, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db      *gorm.DB
	vendors []classify.Vendor
}

// NewGormStore creates a new GORM-backed store. The vendor table is the
// ordered attribution table used at scan ingestion; nil selects the built-in
// default table.
func NewGormStore(db *gorm.DB, vendors []classify.Vendor) Store {
	if len(vendors) == 0 {
		vendors = classify.DefaultVendors
	}
	return &gormStore{db: db, vendors: vendors}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateTruck(ctx context.Context, truck *model.Truck) error {
	if truck.Status == "" {
		truck.Status = model.TruckStatusOpen
	}
	if truck.OpenedAt.IsZero() {
		truck.OpenedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(truck).Error; err != nil {
		return fmt.Errorf("failed to create truck: %w", err)
	}
	return nil
}

func (s *gormStore) CloseTruck(ctx context.Context, truckID int64, closedBy string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&model.Truck{}).
		Where("id = ? AND status = ?", truckID, model.TruckStatusOpen).
		Updates(map[string]any{
			"status":    model.TruckStatusClosed,
			"closed_by": closedBy,
			"closed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to close truck %d: %w", truckID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the truck does not exist or it is already closed.
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Truck{}).Where("id = ?", truckID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up truck %d: %w", truckID, err)
		}
		if count == 0 {
			return ErrTruckNotFound
		}
	}
	return nil
}

func (s *gormStore) ListTrucks(ctx context.Context) ([]model.Truck, error) {
	var trucks []model.Truck
	if err := s.db.WithContext(ctx).Order("opened_at DESC").Find(&trucks).Error; err != nil {
		return nil, fmt.Errorf("failed to list trucks: %w", err)
	}
	return trucks, nil
}

func (s *gormStore) GetTruckWithScans(ctx context.Context, truckID int64) (*model.Truck, []model.Scan, error) {
	var truck model.Truck
	if err := s.db.WithContext(ctx).First(&truck, truckID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTruckNotFound
		}
		return nil, nil, fmt.Errorf("failed to load truck %d: %w", truckID, err)
	}

	scans, err := s.ListScans(ctx, truckID, false)
	if err != nil {
		return nil, nil, err
	}
	return &truck, scans, nil
}

func (s *gormStore) GetClosedUnsyncedTrucks(ctx context.Context) ([]model.Truck, error) {
	var trucks []model.Truck
	err := s.db.WithContext(ctx).
		Where("status = ? AND fully_synced = ?", model.TruckStatusClosed, false).
		Order("closed_at ASC").
		Find(&trucks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced trucks: %w", err)
	}
	return trucks, nil
}

func (s *gormStore) SetRemoteManifestID(ctx context.Context, truckID int64, remoteID string) error {
	// Write-once: only an empty identifier (or a repeat of the same value)
	// is patched. A truck that already carries a different identifier keeps
	// it, so a concurrent second run can never re-anchor a truck.
	res := s.db.WithContext(ctx).Model(&model.Truck{}).
		Where("id = ? AND (remote_manifest_id = '' OR remote_manifest_id = ?)", truckID, remoteID).
		Update("remote_manifest_id", remoteID)
	if res.Error != nil {
		return fmt.Errorf("failed to set remote manifest id for truck %d: %w", truckID, res.Error)
	}
	if res.RowsAffected == 0 {
		var truck model.Truck
		if err := s.db.WithContext(ctx).First(&truck, truckID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTruckNotFound
			}
			return fmt.Errorf("failed to look up truck %d: %w", truckID, err)
		}
		if truck.RemoteManifestID != remoteID {
			log.Printf("Truck %d already anchored to manifest %s; ignoring %s", truckID, truck.RemoteManifestID, remoteID)
		}
	}
	return nil
}

func (s *gormStore) MarkTruckFullySynced(ctx context.Context, truckID int64) error {
	res := s.db.WithContext(ctx).Model(&model.Truck{}).
		Where("id = ?", truckID).
		Update("fully_synced", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark truck %d fully synced: %w", truckID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTruckNotFound
	}
	return nil
}

func (s *gormStore) CreateScan(ctx context.Context, scan *model.Scan) error {
	var truck model.Truck
	if err := s.db.WithContext(ctx).First(&truck, scan.TruckID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTruckNotFound
		}
		return fmt.Errorf("failed to look up truck %d: %w", scan.TruckID, err)
	}
	if truck.Status != model.TruckStatusOpen {
		return ErrTruckNotOpen
	}

	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now().UTC()
	}
	if scan.ScanType == "" {
		scan.ScanType = model.ScanTypeAuto
	}

	res := classify.Classify(scan.RawPayload, scan.TrackingNumber, s.vendors)
	scan.Vendor = res.Vendor
	scan.VendorAccount = res.VendorAccount
	scan.IsMiscan = res.IsMiscan

	// A repeat of a tracking number already on this truck is a duplicate
	// read, retained for audit but excluded from counts and sync.
	var existing int64
	err := s.db.WithContext(ctx).Model(&model.Scan{}).
		Where("truck_id = ? AND tracking_number = ?", scan.TruckID, scan.TrackingNumber).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to check for duplicate tracking number: %w", err)
	}
	if existing > 0 {
		scan.IsDuplicate = true
	}

	if err := s.db.WithContext(ctx).Create(scan).Error; err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}
	return nil
}

func (s *gormStore) ListScans(ctx context.Context, truckID int64, includeDuplicates bool) ([]model.Scan, error) {
	q := s.db.WithContext(ctx).Where("truck_id = ?", truckID)
	if !includeDuplicates {
		q = q.Where("is_duplicate = ?", false)
	}
	var scans []model.Scan
	if err := q.Order("id ASC").Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to list scans for truck %d: %w", truckID, err)
	}
	return scans, nil
}

func (s *gormStore) SetScanFlags(ctx context.Context, scanID int64, isMiscan, isDuplicate *bool) error {
	updates := make(map[string]any)
	if isMiscan != nil {
		updates["is_miscan"] = *isMiscan
	}
	if isDuplicate != nil {
		updates["is_duplicate"] = *isDuplicate
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&model.Scan{}).Where("id = ?", scanID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update flags for scan %d: %w", scanID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore) ReclassifyScans(ctx context.Context) (int64, error) {
	var scans []model.Scan
	if err := s.db.WithContext(ctx).Find(&scans).Error; err != nil {
		return 0, fmt.Errorf("failed to load scans for reclassification: %w", err)
	}

	var changed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, scan := range scans {
			name, account := classify.Attribute(scan.RawPayload, s.vendors)
			if name == scan.Vendor && account == scan.VendorAccount {
				continue
			}
			err := tx.Model(&model.Scan{}).Where("id = ?", scan.ID).
				Updates(map[string]any{"vendor": name, "vendor_account": account}).Error
			if err != nil {
				return fmt.Errorf("failed to reclassify scan %d: %w", scan.ID, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *gormStore) UnknownVendorScans(ctx context.Context) ([]model.Scan, error) {
	var scans []model.Scan
	err := s.db.WithContext(ctx).
		Where("vendor = ?", classify.VendorUnknown).
		Order("scanned_at DESC").
		Find(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unknown vendor scans: %w", err)
	}
	return scans, nil
}

func (s *gormStore) CreateReturn(ctx context.Context, ret *model.ReturnItem) error {
	if err := s.db.WithContext(ctx).Create(ret).Error; err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}
	return nil
}

func (s *gormStore) ListReturns(ctx context.Context) ([]model.ReturnItem, error) {
	var returns []model.ReturnItem
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&returns).Error; err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	return returns, nil
}
