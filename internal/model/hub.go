package model

import "time"

// Hub represents a physical rental location that owns a fleet of cars.
type Hub struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	Address   string    `gorm:"size:256"`
	City      string    `gorm:"size:64"`
	State     string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Cars []Car `gorm:"foreignKey:HubID"`
}
