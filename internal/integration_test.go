package internal

import (
	"context"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/db"
	"fleet-rental-backend/internal/model"
	"fleet-rental-backend/internal/notification"
	"fleet-rental-backend/internal/store"
)

// TestReservationLifecycle drives a booking from creation through return the
// way the wired application does: engine on top of the GORM store, with the
// notification worker pool attached as the state change notifier. Database
// state and the event queue are checked at each step.
func TestReservationLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	require.NoError(t, testDB.Create(&model.Hub{ID: 1, Name: "Downtown", City: "Austin", State: "TX"}).Error)
	require.NoError(t, testDB.Create(&model.CarType{ID: 1, Name: "economy"}).Error)
	require.NoError(t, testDB.Create(&model.Car{
		ID: 1, HubID: 1, CarTypeID: 1, Name: "Corolla",
		PlateNumber: "ATX-0001", Status: model.CarStatusFree,
	}).Error)

	// Workers stay unstarted so queued events can be inspected directly.
	pool := notification.NewWorkerPool(2, testDB, &webpush.Options{Subscriber: "mailto:ops@example.com"})

	gormStore := store.NewGormStore(testDB)
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	engine := booking.NewEngine(gormStore, time.Hour, time.Second,
		booking.WithNotifier(pool),
		booking.WithClock(func() time.Time { return clock }))

	ctx := context.Background()
	nextEvent := func() notification.Event {
		select {
		case ev := <-pool.Jobs():
			return ev
		default:
			t.Fatal("expected a queued notification event")
			return notification.Event{}
		}
	}

	var bookingID string
	t.Run("create reserves the car", func(t *testing.T) {
		b, err := engine.CreateBooking(ctx, booking.CreateBookingInput{
			CustomerID: "alice@example.com",
			CarID:      1,
			StartDate:  "2024-02-01",
			EndDate:    "2024-02-05",
			AddOns:     []string{"gps", "child-seat"},
			QuotedRate: 4500,
		})
		require.NoError(t, err)
		bookingID = b.ID

		var car model.Car
		require.NoError(t, testDB.First(&car, 1).Error)
		assert.Equal(t, model.CarStatusReserved, car.Status)

		var slotCount int64
		testDB.Model(&model.ReservationSlot{}).Where("booking_id = ?", b.ID).Count(&slotCount)
		assert.Equal(t, int64(1), slotCount)

		ev := nextEvent()
		assert.Equal(t, b.ID, ev.BookingID)
		assert.Equal(t, booking.StatePending, ev.State)
	})

	t.Run("confirm stamps the booking", func(t *testing.T) {
		b, err := engine.Confirm(ctx, bookingID)
		require.NoError(t, err)
		require.NotNil(t, b.ConfirmedAt)
		assert.Equal(t, booking.StateConfirmed, nextEvent().State)
	})

	t.Run("handover marks the car out", func(t *testing.T) {
		_, err := engine.Handover(ctx, bookingID, booking.HandoverInput{
			OdometerOut: 42000, FuelOut: 95,
		})
		require.NoError(t, err)

		var car model.Car
		require.NoError(t, testDB.First(&car, 1).Error)
		assert.Equal(t, model.CarStatusOut, car.Status)
		assert.Equal(t, booking.StateActive, nextEvent().State)
	})

	t.Run("return frees the car and the window", func(t *testing.T) {
		b, err := engine.Return(ctx, bookingID, booking.ReturnInput{
			OdometerIn: 42480, FuelIn: 55,
		})
		require.NoError(t, err)
		require.NotNil(t, b.ReturnedAt)
		assert.Empty(t, b.IntegrityWarning)

		var car model.Car
		require.NoError(t, testDB.First(&car, 1).Error)
		assert.Equal(t, model.CarStatusFree, car.Status)

		var slotCount int64
		testDB.Model(&model.ReservationSlot{}).Where("car_id = ?", 1).Count(&slotCount)
		assert.Equal(t, int64(0), slotCount)

		assert.Equal(t, booking.StateReturned, nextEvent().State)

		cars, err := engine.FindAvailableCars(ctx, 1, nil, "2024-02-01", "2024-02-05")
		require.NoError(t, err)
		assert.Len(t, cars, 1)
	})
}
