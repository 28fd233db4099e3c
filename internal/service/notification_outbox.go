package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"medbridge-booking/internal/domain/entity"
	"medbridge-booking/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Redis keys for the notification outbox
	outboxListKey     = "notify:outbox"
	outboxAttemptsKey = "notify:attempts"

	// Poll timeout for the blocking list pop
	outboxPopTimeout = 2 * time.Second

	// Per-send timeout against the SMTP server
	outboxSendTimeout = 15 * time.Second

	// Give up on a booking's notification after this many attempts
	outboxMaxAttempts = 5
)

// NotificationOutbox retries confirmation emails that failed during the
// booking commit. Failed notifications are pushed onto a Redis list and a
// background worker drains it with bounded exponential backoff; the booking
// itself is never blocked on delivery.
type NotificationOutbox struct {
	redisClient *redis.Client
	notifier    repository.Notifier
	directory   repository.DoctorDirectory
	bookingRepo repository.BookingRepository
	log         *logrus.Logger

	cancel context.CancelFunc

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// NewNotificationOutbox creates the outbox and starts its worker goroutine.
// Call Stop() during graceful shutdown.
func NewNotificationOutbox(
	redisClient *redis.Client,
	notifier repository.Notifier,
	directory repository.DoctorDirectory,
	bookingRepo repository.BookingRepository,
	log *logrus.Logger,
) *NotificationOutbox {
	ctx, cancel := context.WithCancel(context.Background())
	o := &NotificationOutbox{
		redisClient: redisClient,
		notifier:    notifier,
		directory:   directory,
		bookingRepo: bookingRepo,
		log:         log,
		cancel:      cancel,
		stopChan:    make(chan struct{}),
	}

	o.wg.Add(1)
	go o.drainLoop(ctx)

	return o
}

// Stop gracefully shuts down the worker. Safe to call multiple times.
func (o *NotificationOutbox) Stop() {
	if o.stopped.CompareAndSwap(false, true) {
		close(o.stopChan)
		o.cancel()
		o.wg.Wait()
		o.log.Info("NotificationOutbox stopped")
	}
}

// Enqueue schedules an out-of-band retry for the booking's confirmation
// email. Best effort: a Redis failure here is logged, not propagated.
func (o *NotificationOutbox) Enqueue(ctx context.Context, bookingID uuid.UUID) {
	if err := o.redisClient.RPush(ctx, outboxListKey, bookingID.String()).Err(); err != nil {
		o.log.Errorf("Failed to enqueue notification retry for booking %s: %+v", bookingID, err)
	}
}

func (o *NotificationOutbox) drainLoop(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-o.stopChan:
			o.log.Debug("Notification outbox worker stopping")
			return
		default:
		}

		res, err := o.redisClient.BLPop(ctx, outboxPopTimeout, outboxListKey).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			o.log.Warnf("Failed to pop notification outbox: %+v", err)
			continue
		}
		if len(res) < 2 {
			continue
		}
		o.deliver(ctx, res[1])
	}
}

func (o *NotificationOutbox) deliver(ctx context.Context, rawID string) {
	bookingID, err := uuid.Parse(rawID)
	if err != nil {
		o.log.Warnf("Dropping malformed outbox entry %q", rawID)
		return
	}

	attempts, err := o.redisClient.HIncrBy(ctx, outboxAttemptsKey, rawID, 1).Result()
	if err != nil {
		attempts = 1
	}
	if attempts > outboxMaxAttempts {
		o.log.Errorf("Giving up on notification for booking %s after %d attempts", bookingID, attempts-1)
		o.redisClient.HDel(ctx, outboxAttemptsKey, rawID)
		return
	}

	booking, err := o.bookingRepo.FindByID(ctx, bookingID)
	if err != nil || booking == nil {
		o.log.Warnf("Failed to load booking %s for notification retry: %+v", bookingID, err)
		return
	}
	if booking.Status != entity.BookingStatusConfirmed {
		// The booking was released or failed since; nothing to announce.
		o.redisClient.HDel(ctx, outboxAttemptsKey, rawID)
		return
	}
	doctor, ok := o.directory.DoctorByID(booking.DoctorID)
	if !ok {
		o.log.Errorf("Booking %s references unknown doctor %s", bookingID, booking.DoctorID)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, outboxSendTimeout)
	err = o.notifier.SendConfirmation(sendCtx, booking, doctor)
	cancel()
	if err == nil {
		o.redisClient.HDel(ctx, outboxAttemptsKey, rawID)
		o.log.Infof("Notification delivered for booking %s on retry %d", bookingID, attempts)
		return
	}

	o.log.Warnf("Notification retry %d failed for booking %s: %+v", attempts, bookingID, err)

	// Exponential backoff before the entry becomes eligible again.
	backoff := time.Duration(1<<uint(attempts-1)) * time.Second
	select {
	case <-time.After(backoff):
	case <-o.stopChan:
		return
	case <-ctx.Done():
		return
	}
	o.Enqueue(ctx, bookingID)
}
