package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/model"
)

// Store is the persistence collaborator the engine drives. Implemented by
// the GORM store in internal/store; the engine only sees this interface.
type Store interface {
	// AvailableFleet returns a hub's cars, optionally filtered to one car
	// type, excluding cars whose status is maintenance. Ordered by car ID.
	AvailableFleet(ctx context.Context, hubID int64, carTypeID *int64) ([]model.Car, error)
	GetCar(ctx context.Context, carID int64) (*model.Car, error)

	// HasOverlap reports whether any slot for the car intersects iv.
	HasOverlap(ctx context.Context, carID int64, iv Interval) (bool, error)
	// CarsWithOverlap returns the subset of carIDs holding a slot that
	// intersects iv, in one grouped query.
	CarsWithOverlap(ctx context.Context, carIDs []int64, iv Interval) (map[int64]struct{}, error)

	// CreateBookingWithSlot persists the booking and its reservation slot in
	// a single transaction, re-deriving the car's status from its bookings.
	CreateBookingWithSlot(ctx context.Context, b *model.Booking, slot *model.ReservationSlot) error
	CreateSlot(ctx context.Context, slot *model.ReservationSlot) error
	// ReleaseSlot removes a slot by ID. Releasing an already-released slot
	// is a silent no-op so retried requests stay safe.
	ReleaseSlot(ctx context.Context, slotID string) error

	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	// UpdateBooking persists a transitioned booking and, when releaseSlot is
	// set, removes the booking's slot, then re-derives the car's status.
	// Removing an already-removed slot is a no-op.
	UpdateBooking(ctx context.Context, b *model.Booking, releaseSlot bool) error
	BookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error)
	StalePendingBookings(ctx context.Context, before time.Time) ([]string, error)
}

// Notifier receives booking state changes for asynchronous fan-out. The
// engine never blocks on it.
type Notifier interface {
	BookingChanged(b *model.Booking)
}

// Engine owns the booking lifecycle and the reservation index. All writes
// to a car's reservation state go through that car's lock, so concurrent
// requests for the same car serialize while different cars proceed
// independently.
type Engine struct {
	store    Store
	locks    *carLocks
	notifier Notifier

	grace    time.Duration // how far in the past a start date may lie
	lockWait time.Duration // bounded wait for a car lock
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier attaches a state change notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides the engine clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a booking engine on top of the given store.
func NewEngine(s Store, grace, lockWait time.Duration, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		locks:    newCarLocks(),
		grace:    grace,
		lockWait: lockWait,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindAvailableCars resolves which of a hub's cars are free for the window.
// The fleet snapshot is read before any lock is taken; an empty result is
// not an error.
func (e *Engine) FindAvailableCars(ctx context.Context, hubID int64, carTypeID *int64, startDate, endDate string) ([]model.Car, error) {
	iv, err := ParseInterval(startDate, endDate, e.now(), e.grace)
	if err != nil {
		return nil, err
	}

	fleet, err := e.store.AvailableFleet(ctx, hubID, carTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fleet for hub %d: %w", hubID, err)
	}
	if len(fleet) == 0 {
		return []model.Car{}, nil
	}

	carIDs := make([]int64, len(fleet))
	for i, c := range fleet {
		carIDs[i] = c.ID
	}
	busy, err := e.store.CarsWithOverlap(ctx, carIDs, iv)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservation index: %w", err)
	}

	available := make([]model.Car, 0, len(fleet))
	for _, c := range fleet {
		if _, taken := busy[c.ID]; !taken {
			available = append(available, c)
		}
	}
	return available, nil
}

// CreateBookingInput carries a booking request from the web layer.
type CreateBookingInput struct {
	CustomerID string
	CarID      int64
	StartDate  string
	EndDate    string
	AddOns     []string
	QuotedRate int64
}

// CreateBooking reserves the car for the window and creates a PENDING
// booking as one unit. On any failure nothing is persisted.
func (e *Engine) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, fmt.Errorf("%w: customer id required", ErrInvalidRange)
	}
	iv, err := ParseInterval(in.StartDate, in.EndDate, e.now(), e.grace)
	if err != nil {
		return nil, err
	}

	// Fleet membership is read before the lock; only the reservation index
	// is touched under it.
	car, err := e.store.GetCar(ctx, in.CarID)
	if err != nil {
		return nil, err
	}
	if car.Status == model.CarStatusMaintenance {
		return nil, fmt.Errorf("%w: car %d is under maintenance", ErrConflict, car.ID)
	}

	if !e.locks.Acquire(car.ID, e.lockWait) {
		return nil, fmt.Errorf("%w: car %d", ErrUnavailable, car.ID)
	}
	defer e.locks.Release(car.ID)

	taken, err := e.store.HasOverlap(ctx, car.ID, iv)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservation index: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: car %d for %s", ErrConflict, car.ID, iv)
	}

	now := e.now()
	b := &model.Booking{
		ID:         uuid.NewString(),
		CustomerID: strings.TrimSpace(in.CustomerID),
		CarID:      car.ID,
		StartTime:  iv.Start,
		EndTime:    iv.End,
		State:      StatePending,
		AddOns:     strings.Join(in.AddOns, ","),
		QuotedRate: in.QuotedRate,
		CreatedAt:  now,
	}
	slot := &model.ReservationSlot{
		ID:        uuid.NewString(),
		CarID:     car.ID,
		StartTime: iv.Start,
		EndTime:   iv.End,
		Kind:      model.SlotKindBooking,
		BookingID: b.ID,
	}
	if err := e.store.CreateBookingWithSlot(ctx, b, slot); err != nil {
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	e.notify(b)
	return b, nil
}

// GetBooking returns a booking by ID.
func (e *Engine) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return e.store.GetBooking(ctx, id)
}

// BookingsByCustomer lists a customer's bookings, newest first.
func (e *Engine) BookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error) {
	return e.store.BookingsByCustomer(ctx, customerID)
}

// Confirm accepts the external payment/approval signal: PENDING -> CONFIRMED.
func (e *Engine) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	return e.transition(ctx, id, StateConfirmed, false, nil)
}

// HandoverInput records vehicle condition as the car leaves the hub.
type HandoverInput struct {
	OdometerOut int64
	FuelOut     int
	Notes       string
}

// Handover moves CONFIRMED -> ACTIVE and marks the car out.
func (e *Engine) Handover(ctx context.Context, id string, in HandoverInput) (*model.Booking, error) {
	return e.transition(ctx, id, StateActive, false, func(b *model.Booking) {
		b.OdometerOut = in.OdometerOut
		b.FuelOut = in.FuelOut
		b.HandoverNotes = in.Notes
	})
}

// ReturnInput records vehicle condition as the car comes back.
type ReturnInput struct {
	OdometerIn int64
	FuelIn     int
	Notes      string
	Damage     bool
}

// Return moves ACTIVE -> RETURNED, releases the reservation slot and frees
// the car. An odometer reading below the handover reading is recorded as an
// integrity warning but does not block the return.
func (e *Engine) Return(ctx context.Context, id string, in ReturnInput) (*model.Booking, error) {
	return e.transition(ctx, id, StateReturned, true, func(b *model.Booking) {
		b.OdometerIn = in.OdometerIn
		b.FuelIn = in.FuelIn
		b.ReturnNotes = in.Notes
		b.DamageFlagged = in.Damage
		if in.OdometerIn < b.OdometerOut {
			b.IntegrityWarning = fmt.Sprintf("odometer-in %d below odometer-out %d", in.OdometerIn, b.OdometerOut)
			log.Printf("booking %s: %s", b.ID, b.IntegrityWarning)
		}
	})
}

// Cancel moves PENDING or CONFIRMED to CANCELLED and releases the slot.
func (e *Engine) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return e.transition(ctx, id, StateCancelled, true, nil)
}

// transition applies one lifecycle step under the booking's car lock.
// mutate runs after the state check and before persisting.
func (e *Engine) transition(ctx context.Context, id, to string, releaseSlot bool, mutate func(*model.Booking)) (*model.Booking, error) {
	// Cheap read to learn the car; re-read under the lock for the real check.
	peek, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !e.locks.Acquire(peek.CarID, e.lockWait) {
		return nil, fmt.Errorf("%w: car %d", ErrUnavailable, peek.CarID)
	}
	defer e.locks.Release(peek.CarID)

	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyTransition(b, to, e.now()); err != nil {
		return nil, fmt.Errorf("booking %s: %w", id, err)
	}
	if mutate != nil {
		mutate(b)
	}
	if err := e.store.UpdateBooking(ctx, b, releaseSlot); err != nil {
		return nil, fmt.Errorf("failed to persist booking %s: %w", id, err)
	}

	e.notify(b)
	return b, nil
}

// ScheduleMaintenance blocks out a car for a window by inserting a
// maintenance slot into the reservation index. The window must be free.
func (e *Engine) ScheduleMaintenance(ctx context.Context, carID int64, startDate, endDate string) (*model.ReservationSlot, error) {
	iv, err := ParseInterval(startDate, endDate, e.now(), e.grace)
	if err != nil {
		return nil, err
	}
	car, err := e.store.GetCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	if !e.locks.Acquire(car.ID, e.lockWait) {
		return nil, fmt.Errorf("%w: car %d", ErrUnavailable, car.ID)
	}
	defer e.locks.Release(car.ID)

	taken, err := e.store.HasOverlap(ctx, car.ID, iv)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservation index: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: car %d for %s", ErrConflict, car.ID, iv)
	}

	slot := &model.ReservationSlot{
		ID:        uuid.NewString(),
		CarID:     car.ID,
		StartTime: iv.Start,
		EndTime:   iv.End,
		Kind:      model.SlotKindMaintenance,
	}
	if err := e.store.CreateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to persist maintenance slot: %w", err)
	}
	return slot, nil
}

// CompleteMaintenance releases a maintenance slot, returning the window to
// the availability pool. Releasing twice is a no-op.
func (e *Engine) CompleteMaintenance(ctx context.Context, carID int64, slotID string) error {
	if !e.locks.Acquire(carID, e.lockWait) {
		return fmt.Errorf("%w: car %d", ErrUnavailable, carID)
	}
	defer e.locks.Release(carID)
	return e.store.ReleaseSlot(ctx, slotID)
}

// ExpirePending cancels PENDING bookings created before the hold deadline.
// Each cancellation goes through the normal transition path so locks and
// slot release apply. Returns the number of bookings cancelled.
func (e *Engine) ExpirePending(ctx context.Context, holdFor time.Duration) (int, error) {
	ids, err := e.store.StalePendingBookings(ctx, e.now().Add(-holdFor))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale pending bookings: %w", err)
	}

	var cancelled int
	for _, id := range ids {
		if _, err := e.Cancel(ctx, id); err != nil {
			// A booking confirmed between the listing and the cancel is
			// expected to fail here; skip it and move on.
			log.Printf("expire: skipping booking %s: %v", id, err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (e *Engine) notify(b *model.Booking) {
	if e.notifier == nil {
		return
	}
	e.notifier.BookingChanged(b)
}
