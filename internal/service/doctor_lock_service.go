package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	// Interval for cleaning up stale locks
	lockCleanupInterval = 10 * time.Minute

	// How long a lock must be unused before cleanup
	lockStaleThreshold = 10 * time.Minute
)

// DoctorLockService provides the per-doctor exclusive critical section held
// across the check-then-commit sequence of a booking attempt. Locks for
// different doctors are independent; availability reads never take one.
//
// Acquisition is context-aware so a booking attempt that exceeds its
// deadline while queued gives up instead of blocking forever.
type DoctorLockService struct {
	log *logrus.Logger

	// Per-doctor lock for serializing booking commits
	doctorLocks sync.Map // map[string]*lockWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// lockWithTimestamp tracks lock usage for cleanup
type lockWithTimestamp struct {
	sem      *semaphore.Weighted
	lastUsed atomic.Int64 // Unix timestamp
}

// NewDoctorLockService creates a new DoctorLockService.
// Starts background goroutine for lock cleanup.
// Call Stop() during graceful shutdown.
func NewDoctorLockService(log *logrus.Logger) *DoctorLockService {
	svc := &DoctorLockService{
		log:      log,
		stopChan: make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupLockMapLoop()

	return svc
}

// Stop gracefully shuts down the service.
// Safe to call multiple times.
func (s *DoctorLockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("DoctorLockService stopped")
	}
}

// Acquire takes the doctor's exclusive lock, blocking until it is granted or
// ctx is done. The returned release function must be called exactly once.
func (s *DoctorLockService) Acquire(ctx context.Context, doctorID string) (func(), error) {
	for {
		lt := s.getDoctorLock(doctorID)
		if err := lt.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}

		// The cleanup goroutine may have deleted this entry between the map
		// lookup and the acquire. Holding an orphaned semaphore is useless:
		// the next caller would mint a fresh entry and enter the critical
		// section alongside us. Re-check and retry on a new entry instead.
		// Once this check passes we are safe, because cleanup's TryAcquire
		// fails while we hold the semaphore.
		if current, ok := s.doctorLocks.Load(doctorID); ok && current == lt {
			lt.lastUsed.Store(time.Now().Unix())
			var once sync.Once
			release := func() {
				once.Do(func() {
					lt.lastUsed.Store(time.Now().Unix())
					lt.sem.Release(1)
				})
			}
			return release, nil
		}
		lt.sem.Release(1)
	}
}

// getDoctorLock returns the lock for a specific doctor ID
func (s *DoctorLockService) getDoctorLock(doctorID string) *lockWithTimestamp {
	lt, _ := s.doctorLocks.LoadOrStore(doctorID, &lockWithTimestamp{
		sem: semaphore.NewWeighted(1),
	})
	result := lt.(*lockWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupLockMapLoop runs in background to clean stale locks
func (s *DoctorLockService) cleanupLockMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(lockCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Lock cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleLocks()
		}
	}
}

// cleanupStaleLocks removes unused locks using TryAcquire for safety.
// The lastUsed check runs while holding the lock so a concurrent booking
// cannot slip in between the check and the delete.
func (s *DoctorLockService) cleanupStaleLocks() {
	cutoffTime := time.Now().Add(-lockStaleThreshold).Unix()
	var cleaned int

	s.doctorLocks.Range(func(key, value any) bool {
		doctorID, ok := key.(string)
		if !ok {
			return true
		}

		lt, ok := value.(*lockWithTimestamp)
		if !ok {
			return true
		}

		// TryAcquire first - if we can't get the lock, someone is using it
		if lt.sem.TryAcquire(1) {
			if lt.lastUsed.Load() < cutoffTime {
				s.doctorLocks.Delete(doctorID)
				cleaned++
			}
			lt.sem.Release(1)
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale doctor locks", cleaned)
	}
}
