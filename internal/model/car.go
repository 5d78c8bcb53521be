package model

import "time"

// Car lock states. A car is "out" iff its current booking is active.
const (
	CarStatusFree        = "free"
	CarStatusReserved    = "reserved"
	CarStatusOut         = "out"
	CarStatusMaintenance = "maintenance"
)

// CarType is the admin-managed master list of rentable categories.
type CarType struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Car represents a single vehicle assigned to a hub.
type Car struct {
	ID          int64  `gorm:"primaryKey"`
	HubID       int64  `gorm:"index;not null"`
	CarTypeID   int64  `gorm:"index;not null"`
	Name        string `gorm:"size:128;not null"`
	PlateNumber string `gorm:"uniqueIndex;size:32"`
	Status      string `gorm:"size:16;not null;default:free"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Hub     Hub     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CarType CarType `json:"-"`
}
