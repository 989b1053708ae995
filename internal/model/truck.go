package model

import "time"

// Truck statuses.
const (
	TruckStatusOpen   = "open"
	TruckStatusClosed = "closed"
)

// Truck represents a physical vehicle loading session.
type Truck struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	TruckNumber string     `gorm:"size:64;not null" json:"truck_number"`
	Carrier     string     `gorm:"size:64" json:"carrier"`
	Status      string     `gorm:"size:16;not null;index" json:"status"`
	Location    string     `gorm:"size:128" json:"location"`
	SecurityTag string     `gorm:"size:64" json:"security_tag"`
	OpenedBy    string     `gorm:"size:64" json:"opened_by"`
	ClosedBy    string     `gorm:"size:64" json:"closed_by"`
	OpenedAt    time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at"`

	// RemoteManifestID is set at most once, after the first successful
	// manifest creation in the remote system, and never changes afterward.
	RemoteManifestID string `gorm:"size:64;index" json:"remote_manifest_id"`
	FullySynced      bool   `gorm:"not null;default:false" json:"fully_synced"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Scans []Scan `gorm:"foreignKey:TruckID" json:"-"`
}
