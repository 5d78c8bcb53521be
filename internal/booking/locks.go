package booking

import (
	"sync"
	"time"
)

// carLocks hands out one mutex-like semaphore per car so that reservation
// work on different cars never serializes against each other. Entries are
// created lazily and kept for the life of the process; the set is bounded
// by fleet size.
type carLocks struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func newCarLocks() *carLocks {
	return &carLocks{locks: make(map[int64]chan struct{})}
}

func (c *carLocks) lockFor(carID int64) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[carID]
	if !ok {
		l = make(chan struct{}, 1)
		c.locks[carID] = l
	}
	return l
}

// Acquire takes the car's lock, waiting at most wait. It returns false on
// timeout so the caller can fail with ErrUnavailable instead of queuing
// indefinitely.
func (c *carLocks) Acquire(carID int64, wait time.Duration) bool {
	l := c.lockFor(carID)
	select {
	case l <- struct{}{}:
		return true
	default:
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case l <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Release gives the car's lock back. Must pair with a successful Acquire.
func (c *carLocks) Release(carID int64) {
	<-c.lockFor(carID)
}
