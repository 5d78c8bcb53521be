package model

import "time"

// Booking tracks a single rental from reservation through return or
// cancellation. Rows are never deleted, only moved to a terminal state.
type Booking struct {
	ID         string `gorm:"primaryKey;size:36"`
	CustomerID string `gorm:"index;size:128;not null"`
	CarID      int64  `gorm:"index;not null"`
	StartTime  time.Time `gorm:"not null"`
	EndTime    time.Time `gorm:"not null"`
	State      string    `gorm:"size:16;index;not null"`
	AddOns     string    `gorm:"size:512"` // comma-separated add-on codes
	QuotedRate int64     `gorm:"not null;default:0"`

	// Transition timestamps
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	ConfirmedAt *time.Time
	HandedAt    *time.Time
	ReturnedAt  *time.Time
	CancelledAt *time.Time

	// Handover record (captured when the car physically leaves the hub)
	OdometerOut   int64  `gorm:"not null;default:0"`
	FuelOut       int    `gorm:"not null;default:0"` // fuel level in percent
	HandoverNotes string `gorm:"size:1024"`

	// Return record
	OdometerIn       int64  `gorm:"not null;default:0"`
	FuelIn           int    `gorm:"not null;default:0"`
	ReturnNotes      string `gorm:"size:1024"`
	DamageFlagged    bool   `gorm:"not null;default:false"`
	IntegrityWarning string `gorm:"size:256"` // e.g. odometer-in below odometer-out

	// Associations
	Car Car `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
