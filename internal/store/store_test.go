package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/db"
	"fleet-rental-backend/internal/model"
)

func newTestStore(t *testing.T) Store {
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

	require.NoError(t, gdb.Create(&model.Hub{ID: 1, Name: t.Name(), City: "Austin", State: "TX"}).Error)
	require.NoError(t, gdb.Create(&model.CarType{ID: 1, Name: "economy"}).Error)
	require.NoError(t, gdb.Create(&model.Car{
		ID: 1, HubID: 1, CarTypeID: 1, Name: "Corolla",
		PlateNumber: t.Name() + "-1", Status: model.CarStatusFree,
	}).Error)
	return NewGormStore(gdb)
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func seedSlot(t *testing.T, s Store, carID int64, start, end time.Time) string {
	t.Helper()
	slot := &model.ReservationSlot{
		ID:        fmt.Sprintf("slot-%d-%s", carID, start.Format("0102")),
		CarID:     carID,
		StartTime: start,
		EndTime:   end,
		Kind:      model.SlotKindBooking,
	}
	require.NoError(t, s.CreateSlot(context.Background(), slot))
	return slot.ID
}

func TestHasOverlapHalfOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedSlot(t, s, 1, day(10), day(15))

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical window", day(10), day(15), true},
		{"nested", day(11), day(12), true},
		{"partial front", day(8), day(11), true},
		{"partial back", day(14), day(20), true},
		{"touches at slot end", day(15), day(18), false},
		{"touches at slot start", day(5), day(10), false},
		{"disjoint before", day(1), day(4), false},
		{"disjoint after", day(20), day(25), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.HasOverlap(ctx, 1, booking.Interval{Start: tt.start, End: tt.end})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCarsWithOverlapGroupsFleet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.DB().Create(&model.Car{
		ID: 2, HubID: 1, CarTypeID: 1, Name: "Civic",
		PlateNumber: t.Name() + "-2", Status: model.CarStatusFree,
	}).Error)

	seedSlot(t, s, 1, day(10), day(15))
	seedSlot(t, s, 2, day(1), day(3))

	busy, err := s.CarsWithOverlap(ctx, []int64{1, 2}, booking.Interval{Start: day(12), End: day(14)})
	require.NoError(t, err)
	assert.Contains(t, busy, int64(1))
	assert.NotContains(t, busy, int64(2))

	busy, err = s.CarsWithOverlap(ctx, []int64{1, 2}, booking.Interval{Start: day(20), End: day(22)})
	require.NoError(t, err)
	assert.Empty(t, busy)
}

func TestReleaseSlotIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedSlot(t, s, 1, day(1), day(2))

	require.NoError(t, s.ReleaseSlot(ctx, id))
	// A second release of the same slot must not error.
	require.NoError(t, s.ReleaseSlot(ctx, id))

	got, err := s.HasOverlap(ctx, 1, booking.Interval{Start: day(1), End: day(2)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUpdateBookingReleasesSlotAndCar(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &model.Booking{
		ID: "b-1", CustomerID: "carol@example.com", CarID: 1,
		StartTime: day(10), EndTime: day(15),
		State: booking.StatePending, CreatedAt: day(1),
	}
	slot := &model.ReservationSlot{
		ID: "s-1", CarID: 1, StartTime: day(10), EndTime: day(15),
		Kind: model.SlotKindBooking, BookingID: b.ID,
	}
	require.NoError(t, s.CreateBookingWithSlot(ctx, b, slot))

	car, err := s.GetCar(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CarStatusReserved, car.Status)

	b.State = booking.StateCancelled
	require.NoError(t, s.UpdateBooking(ctx, b, true))

	car, err = s.GetCar(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CarStatusFree, car.Status)

	taken, err := s.HasOverlap(ctx, 1, booking.Interval{Start: day(10), End: day(15)})
	require.NoError(t, err)
	assert.False(t, taken)

	// The slot is already gone; a repeated release pass stays a no-op.
	require.NoError(t, s.UpdateBooking(ctx, b, true))
}

func TestUpdateBookingKeepsMaintenanceFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &model.Booking{
		ID: "b-m", CustomerID: "carol@example.com", CarID: 1,
		StartTime: day(10), EndTime: day(15),
		State: booking.StatePending, CreatedAt: day(1),
	}
	slot := &model.ReservationSlot{
		ID: "s-m", CarID: 1, StartTime: day(10), EndTime: day(15),
		Kind: model.SlotKindBooking, BookingID: b.ID,
	}
	require.NoError(t, s.CreateBookingWithSlot(ctx, b, slot))

	// An operator pulls the car while it still carries a booking; cancelling
	// that booking must not clear the flag.
	require.NoError(t, s.DB().Model(&model.Car{}).Where("id = ?", 1).
		Update("status", model.CarStatusMaintenance).Error)

	b.State = booking.StateCancelled
	require.NoError(t, s.UpdateBooking(ctx, b, true))

	car, err := s.GetCar(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CarStatusMaintenance, car.Status)
}

func TestGetNotFoundWrapsSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetCar(ctx, 99)
	assert.ErrorIs(t, err, booking.ErrNotFound)

	_, err = s.GetBooking(ctx, "no-such-booking")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestAvailableFleetSkipsMaintenance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.DB().Create(&model.Car{
		ID: 2, HubID: 1, CarTypeID: 1, Name: "Jetta",
		PlateNumber: t.Name() + "-2", Status: model.CarStatusMaintenance,
	}).Error)

	cars, err := s.AvailableFleet(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, int64(1), cars[0].ID)
}

func TestStalePendingBookings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &model.Booking{
		ID: "b-old", CustomerID: "dan@example.com", CarID: 1,
		StartTime: day(10), EndTime: day(11),
		State: booking.StatePending, CreatedAt: day(1),
	}
	fresh := &model.Booking{
		ID: "b-fresh", CustomerID: "dan@example.com", CarID: 1,
		StartTime: day(12), EndTime: day(13),
		State: booking.StatePending, CreatedAt: day(5),
	}
	confirmed := &model.Booking{
		ID: "b-confirmed", CustomerID: "dan@example.com", CarID: 1,
		StartTime: day(14), EndTime: day(15),
		State: booking.StateConfirmed, CreatedAt: day(1),
	}
	for _, b := range []*model.Booking{old, fresh, confirmed} {
		require.NoError(t, s.DB().Create(b).Error)
	}

	ids, err := s.StalePendingBookings(ctx, day(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"b-old"}, ids)
}
