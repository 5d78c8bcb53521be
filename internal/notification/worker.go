package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Event is one booking state change queued for fan-out.
type Event struct {
	BookingID  string
	CustomerID string
	State      string
}

// WorkerPool manages a pool of workers pushing booking state changes to the
// customer's subscribed browsers. It satisfies booking.Notifier.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			wp.sendNotificationsForEvent(ctx, ev)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// BookingChanged queues a booking state change. The engine calls this on
// every successful transition; a full queue drops the event rather than
// blocking a reservation on push delivery.
func (wp *WorkerPool) BookingChanged(b *model.Booking) {
	select {
	case wp.jobs <- Event{BookingID: b.ID, CustomerID: b.CustomerID, State: b.State}:
	default:
		log.Printf("Notification queue full, dropping event for booking %s", b.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

// messageFor renders the push payload for a state change.
func messageFor(ev Event) string {
	switch ev.State {
	case booking.StatePending:
		return fmt.Sprintf("Booking %s received, awaiting confirmation.", ev.BookingID)
	case booking.StateConfirmed:
		return fmt.Sprintf("Booking %s is confirmed. See you at the hub!", ev.BookingID)
	case booking.StateActive:
		return fmt.Sprintf("Booking %s: vehicle handed over. Enjoy the ride!", ev.BookingID)
	case booking.StateReturned:
		return fmt.Sprintf("Booking %s: return recorded. Thanks for riding with us.", ev.BookingID)
	case booking.StateCancelled:
		return fmt.Sprintf("Booking %s has been cancelled.", ev.BookingID)
	default:
		return fmt.Sprintf("Booking %s changed state to %s.", ev.BookingID, ev.State)
	}
}

// sendNotificationsForEvent fetches the customer's subscriptions and pushes
// the rendered message to each of them.
func (wp *WorkerPool) sendNotificationsForEvent(ctx context.Context, ev Event) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("customer_id = ?", ev.CustomerID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for customer %s: %v", ev.CustomerID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	payload := []byte(messageFor(ev))
	log.Printf("Sending %d notifications for booking %s (%s)", len(subscriptions), ev.BookingID, ev.State)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
