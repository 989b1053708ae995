package model

import "time"

// ReturnItem represents a package received back into the warehouse.
type ReturnItem struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	TrackingNumber string    `gorm:"size:64;not null;index" json:"tracking_number"`
	Carrier        string    `gorm:"size:64" json:"carrier"`
	Reason         string    `gorm:"size:256" json:"reason"`
	ReceivedBy     string    `gorm:"size:64" json:"received_by"`
	Processed      bool      `gorm:"not null;default:false" json:"processed"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}
