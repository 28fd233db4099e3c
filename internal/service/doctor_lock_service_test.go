package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAcquireIsExclusivePerDoctor(t *testing.T) {
	svc := NewDoctorLockService(testLogger())
	defer svc.Stop()

	var inCritical atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				release, err := svc.Acquire(context.Background(), "doc-001")
				if err != nil {
					t.Errorf("Acquire() = %v", err)
					return
				}
				if inCritical.Add(1) > 1 {
					violations.Add(1)
				}
				inCritical.Add(-1)
				release()
			}
		}()
	}
	wg.Wait()

	if n := violations.Load(); n > 0 {
		t.Fatalf("critical section entered concurrently %d times", n)
	}
}

func TestAcquireSurvivesConcurrentCleanup(t *testing.T) {
	svc := NewDoctorLockService(testLogger())
	defer svc.Stop()

	// Aggressively age and reap entries while bookers contend for the same
	// doctor. A deleted entry must never let two callers hold the critical
	// section at once through a freshly minted semaphore.
	done := make(chan struct{})
	var reaper sync.WaitGroup
	reaper.Add(1)
	go func() {
		defer reaper.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			svc.doctorLocks.Range(func(_, value any) bool {
				if lt, ok := value.(*lockWithTimestamp); ok {
					lt.lastUsed.Store(0)
				}
				return true
			})
			svc.cleanupStaleLocks()
		}
	}()

	var inCritical atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				release, err := svc.Acquire(context.Background(), "doc-001")
				if err != nil {
					t.Errorf("Acquire() = %v", err)
					return
				}
				if inCritical.Add(1) > 1 {
					violations.Add(1)
				}
				time.Sleep(time.Microsecond)
				inCritical.Add(-1)
				release()
			}
		}()
	}
	wg.Wait()
	close(done)
	reaper.Wait()

	if n := violations.Load(); n > 0 {
		t.Fatalf("critical section entered concurrently %d times during cleanup", n)
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	svc := NewDoctorLockService(testLogger())
	defer svc.Stop()

	release, err := svc.Acquire(context.Background(), "doc-001")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := svc.Acquire(ctx, "doc-001"); err == nil {
		t.Fatal("Acquire() on a held lock returned before ctx expired")
	}
}
