package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

// NotificationQueue persists notifications on a background worker so the
// request that caused them never waits and never fails because of them.
type NotificationQueue struct {
	store  store.Store
	mailer *MailService
	queue  chan models.Notification
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewNotificationQueue(st store.Store, size int, mailer *MailService) *NotificationQueue {
	if size <= 0 {
		size = 1000
	}
	return &NotificationQueue{
		store:  st,
		mailer: mailer,
		queue:  make(chan models.Notification, size),
		done:   make(chan struct{}),
	}
}

// Start launches the worker. Call it once.
func (q *NotificationQueue) Start() {
	go q.worker()
}

// Notify enqueues n without blocking; when the buffer is full the
// notification is dropped and logged.
func (q *NotificationQueue) Notify(n models.Notification) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Warn().Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("Notification queue closed, dropping notification")
		return
	}
	select {
	case q.queue <- n:
	default:
		log.Warn().Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("Notification queue full, dropping notification")
	}
}

// Close stops accepting notifications and waits until everything already
// queued is delivered or ctx ends.
func (q *NotificationQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *NotificationQueue) worker() {
	defer close(q.done)
	for n := range q.queue {
		q.deliver(n)
	}
}

func (q *NotificationQueue) deliver(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := q.store.CreateNotification(ctx, &n); err != nil {
		log.Error().Err(err).Str("user_id", n.UserID).Msg("Failed to store notification")
		return
	}
	if q.mailer == nil || !q.mailer.Enabled {
		return
	}
	u, err := q.store.GetUser(ctx, n.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID).Msg("Notification recipient not found for e-mail")
		return
	}
	q.mailer.SendNotification(u, n)
}
