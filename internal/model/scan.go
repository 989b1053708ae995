package model

import "time"

// Scan types.
const (
	ScanTypeAuto   = "auto"
	ScanTypeManual = "manual"
)

// Scan represents one barcode read associated with exactly one truck.
// The tracking number is the natural key used for dedupe against the
// remote system.
type Scan struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	TruckID        int64  `gorm:"index;not null" json:"truck_id"`
	TrackingNumber string `gorm:"size:64;not null;index" json:"tracking_number"`
	Carrier        string `gorm:"size:64" json:"carrier"`
	Destination    string `gorm:"size:128" json:"destination"`
	Recipient      string `gorm:"size:128" json:"recipient"`
	Address        string `gorm:"size:256" json:"address"`

	// RawPayload is the opaque scanner output; it may contain control
	// characters from 2D label formats.
	RawPayload string `gorm:"type:text" json:"raw_payload"`

	ScannedBy string    `gorm:"size:64" json:"scanned_by"`
	ScannedAt time.Time `gorm:"not null;index" json:"scanned_at"`
	ScanType  string    `gorm:"size:16;not null" json:"scan_type"`

	// Vendor fields are derived from the raw payload at ingestion time and
	// only change via an explicit reclassification backfill.
	Vendor        string `gorm:"size:64;not null;default:Unknown" json:"vendor"`
	VendorAccount string `gorm:"size:32" json:"vendor_account"`

	IsMiscan    bool `gorm:"not null;default:false;index" json:"is_miscan"`
	IsDuplicate bool `gorm:"not null;default:false;index" json:"is_duplicate"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Truck Truck `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
