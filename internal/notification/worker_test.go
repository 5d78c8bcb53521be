package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/db"
	"fleet-rental-backend/internal/model"
)

// mockSender records sends and answers with a configurable status code.
type mockSender struct {
	mu         sync.Mutex
	sent       []string // endpoints, in send order
	payloads   []string
	statusCode int
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sub.Endpoint)
	m.payloads = append(m.payloads, string(payload))
	code := m.statusCode
	if code == 0 {
		code = http.StatusCreated
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newTestPool(t *testing.T, size int) (*WorkerPool, *mockSender, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	sender := &mockSender{}
	pool := NewWorkerPool(size, gdb, &webpush.Options{Subscriber: "mailto:ops@example.com"})
	pool.sender = sender
	return pool, sender, gdb
}

func TestSendNotificationsForEvent(t *testing.T) {
	pool, sender, gdb := newTestPool(t, 1)
	require.NoError(t, gdb.Create(&model.PushSubscription{
		Endpoint:   "https://push.example.com/sub-a",
		P256DH:     "key-a",
		Auth:       "auth-a",
		CustomerID: "erin@example.com",
	}).Error)
	require.NoError(t, gdb.Create(&model.PushSubscription{
		Endpoint:   "https://push.example.com/sub-b",
		P256DH:     "key-b",
		Auth:       "auth-b",
		CustomerID: "erin@example.com",
	}).Error)

	pool.sendNotificationsForEvent(context.Background(), Event{
		BookingID:  "b-1",
		CustomerID: "erin@example.com",
		State:      booking.StateConfirmed,
	})

	assert.ElementsMatch(t, []string{
		"https://push.example.com/sub-a",
		"https://push.example.com/sub-b",
	}, sender.sent)
	require.NotEmpty(t, sender.payloads)
	assert.Contains(t, sender.payloads[0], "confirmed")
}

func TestSendSkipsOtherCustomers(t *testing.T) {
	pool, sender, gdb := newTestPool(t, 1)
	require.NoError(t, gdb.Create(&model.PushSubscription{
		Endpoint:   "https://push.example.com/sub-x",
		P256DH:     "key-x",
		Auth:       "auth-x",
		CustomerID: "someone-else@example.com",
	}).Error)

	pool.sendNotificationsForEvent(context.Background(), Event{
		BookingID:  "b-1",
		CustomerID: "erin@example.com",
		State:      booking.StatePending,
	})

	assert.Empty(t, sender.sent)
}

func TestExpiredSubscriptionDeleted(t *testing.T) {
	pool, sender, gdb := newTestPool(t, 1)
	sender.statusCode = http.StatusGone
	require.NoError(t, gdb.Create(&model.PushSubscription{
		Endpoint:   "https://push.example.com/sub-gone",
		P256DH:     "key",
		Auth:       "auth",
		CustomerID: "erin@example.com",
	}).Error)

	pool.sendNotificationsForEvent(context.Background(), Event{
		BookingID:  "b-1",
		CustomerID: "erin@example.com",
		State:      booking.StateCancelled,
	})

	var count int64
	require.NoError(t, gdb.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBookingChangedDropsWhenFull(t *testing.T) {
	pool, _, _ := newTestPool(t, 1) // queue capacity 4, workers not started

	b := &model.Booking{ID: "b-1", CustomerID: "erin@example.com", State: booking.StatePending}
	for i := 0; i < 10; i++ {
		pool.BookingChanged(b) // must never block
	}
	assert.Len(t, pool.Jobs(), 4)
}

func TestMessageFor(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{booking.StatePending, "awaiting confirmation"},
		{booking.StateConfirmed, "confirmed"},
		{booking.StateActive, "handed over"},
		{booking.StateReturned, "return recorded"},
		{booking.StateCancelled, "cancelled"},
		{"UNKNOWN", "changed state"},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Contains(t, messageFor(Event{BookingID: "b-1", State: tt.state}), tt.want)
		})
	}
}
