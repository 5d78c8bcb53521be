package model

import "time"

// Slot kinds. Maintenance blackouts occupy the same index as bookings so
// that one overlap query answers both questions.
const (
	SlotKindBooking     = "booking"
	SlotKindMaintenance = "maintenance"
)

// ReservationSlot binds one car to one half-open interval [start, end).
// The no-double-booking invariant is: for a fixed car, active slots are
// pairwise non-overlapping.
type ReservationSlot struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CarID     int64     `gorm:"index;not null"`
	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`
	Kind      string    `gorm:"size:16;not null;default:booking"`
	BookingID string    `gorm:"index;size:36"` // empty for maintenance slots
	CreatedAt time.Time `gorm:"not null"`
}
