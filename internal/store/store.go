package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/model"
)

// Store is the engine's persistence collaborator plus direct DB access for
// the read-only CRUD handlers.
type Store interface {
	booking.Store
	DB() *gorm.DB
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for read-only handler queries.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// AvailableFleet loads a hub's cars, optionally filtered by car type,
// skipping cars parked in maintenance status. Ordered by ID so paginated
// availability responses stay stable.
func (s *gormStore) AvailableFleet(ctx context.Context, hubID int64, carTypeID *int64) ([]model.Car, error) {
	q := s.db.WithContext(ctx).
		Where("hub_id = ? AND status <> ?", hubID, model.CarStatusMaintenance)
	if carTypeID != nil {
		q = q.Where("car_type_id = ?", *carTypeID)
	}
	var cars []model.Car
	if err := q.Order("id").Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

func (s *gormStore) GetCar(ctx context.Context, carID int64) (*model.Car, error) {
	var c model.Car
	if err := s.db.WithContext(ctx).First(&c, carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: car %d", booking.ErrNotFound, carID)
		}
		return nil, err
	}
	return &c, nil
}

// HasOverlap answers the single-car conflict question with half-open
// semantics: [a,b) and [c,d) intersect iff a < d and c < b.
func (s *gormStore) HasOverlap(ctx context.Context, carID int64, iv booking.Interval) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ReservationSlot{}).
		Where("car_id = ? AND start_time < ? AND ? < end_time", carID, iv.End, iv.Start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CarsWithOverlap resolves the busy subset of a fleet in one query.
func (s *gormStore) CarsWithOverlap(ctx context.Context, carIDs []int64, iv booking.Interval) (map[int64]struct{}, error) {
	var slots []model.ReservationSlot
	err := s.db.WithContext(ctx).
		Where("car_id IN ? AND start_time < ? AND ? < end_time", carIDs, iv.End, iv.Start).
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	busy := make(map[int64]struct{}, len(slots))
	for _, slot := range slots {
		busy[slot.CarID] = struct{}{}
	}
	return busy, nil
}

// CreateBookingWithSlot persists booking, slot and car status as one unit.
// If any write fails the transaction rolls back and no partial reservation
// is observable.
func (s *gormStore) CreateBookingWithSlot(ctx context.Context, b *model.Booking, slot *model.ReservationSlot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		if err := tx.Create(slot).Error; err != nil {
			return fmt.Errorf("failed to create reservation slot: %w", err)
		}
		return syncCarStatus(tx, b.CarID)
	})
}

func (s *gormStore) CreateSlot(ctx context.Context, slot *model.ReservationSlot) error {
	return s.db.WithContext(ctx).Create(slot).Error
}

// ReleaseSlot deletes a slot by ID. A missing row is not an error.
func (s *gormStore) ReleaseSlot(ctx context.Context, slotID string) error {
	return s.db.WithContext(ctx).Delete(&model.ReservationSlot{}, "id = ?", slotID).Error
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %s", booking.ErrNotFound, id)
		}
		return nil, err
	}
	return &b, nil
}

// UpdateBooking persists a transitioned booking, releasing the reservation
// slot when the transition terminalizes the booking and re-deriving the car
// status from what remains. Deleting an already-deleted slot is a no-op,
// which keeps retried cancellations safe.
func (s *gormStore) UpdateBooking(ctx context.Context, b *model.Booking, releaseSlot bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(b).Error; err != nil {
			return fmt.Errorf("failed to save booking %s: %w", b.ID, err)
		}
		if releaseSlot {
			if err := tx.Delete(&model.ReservationSlot{}, "booking_id = ?", b.ID).Error; err != nil {
				return fmt.Errorf("failed to release slot for booking %s: %w", b.ID, err)
			}
		}
		return syncCarStatus(tx, b.CarID)
	})
}

func (s *gormStore) BookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// StalePendingBookings lists PENDING bookings created before the deadline.
func (s *gormStore) StalePendingBookings(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("state = ? AND created_at < ?", booking.StatePending, before).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// syncCarStatus re-derives a car's status from its bookings inside the
// caller's transaction: out while any booking is ACTIVE, reserved while any
// booking slot is live, free otherwise. A car can carry an ACTIVE booking
// and future reservations at once; the ACTIVE one wins. Maintenance is an
// operator flag and is never touched here.
func syncCarStatus(tx *gorm.DB, carID int64) error {
	var car model.Car
	if err := tx.First(&car, carID).Error; err != nil {
		return fmt.Errorf("failed to load car %d: %w", carID, err)
	}
	if car.Status == model.CarStatusMaintenance {
		return nil
	}

	status := model.CarStatusFree
	var active int64
	if err := tx.Model(&model.Booking{}).
		Where("car_id = ? AND state = ?", carID, booking.StateActive).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to count active bookings for car %d: %w", carID, err)
	}
	if active > 0 {
		status = model.CarStatusOut
	} else {
		var slots int64
		if err := tx.Model(&model.ReservationSlot{}).
			Where("car_id = ? AND kind = ?", carID, model.SlotKindBooking).
			Count(&slots).Error; err != nil {
			return fmt.Errorf("failed to count slots for car %d: %w", carID, err)
		}
		if slots > 0 {
			status = model.CarStatusReserved
		}
	}

	if status == car.Status {
		return nil
	}
	if err := tx.Model(&model.Car{}).Where("id = ?", carID).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update car %d status: %w", carID, err)
	}
	return nil
}
