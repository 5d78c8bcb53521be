package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// A subscription belongs to one customer and receives that customer's
// booking state change notifications.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	CustomerID string    `gorm:"index;size:128;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
