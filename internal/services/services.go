// Package services holds the marketplace's business rules. Every operation
// takes the caller's Identity explicitly and reaches storage only through
// store.Store.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
)

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID string `json:"userID"`
	Role   string `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// Notifier delivers notifications without blocking the caller.
type Notifier interface {
	Notify(n models.Notification)
}

type discardNotifier struct{}

func (discardNotifier) Notify(models.Notification) {}

// Deps is shared by every service. Now and NewID are injectable so tests can
// pin timestamps and identifiers.
type Deps struct {
	Store    store.Store
	Notifier Notifier
	Now      func() time.Time
	NewID    func() string
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = discardNotifier{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

func (d Deps) notify(userID, actorID, referenceID string, typ models.NotificationType, message string) {
	if userID == "" || userID == actorID {
		return
	}
	d.Notifier.Notify(models.Notification{
		NotificationID: d.NewID(),
		UserID:         userID,
		ActorID:        actorID,
		ReferenceID:    referenceID,
		Type:           typ,
		Message:        message,
		CreatedAt:      d.Now(),
	})
}

// Services bundles every service built over one Deps.
type Services struct {
	Posts         *Posts
	Pickups       *Pickups
	Ledger        *Ledger
	Catalog       *Catalog
	Messaging     *Messaging
	Notifications *Notifications
	Interactions  *Interactions
	Analytics     *Analytics
}

func New(d Deps, catalogTTL time.Duration) *Services {
	d = d.withDefaults()
	ledger := NewLedger(d)
	catalog := NewCatalog(d, catalogTTL)
	return &Services{
		Posts:         NewPosts(d, ledger, catalog),
		Pickups:       NewPickups(d, ledger),
		Ledger:        ledger,
		Catalog:       catalog,
		Messaging:     NewMessaging(d),
		Notifications: NewNotifications(d),
		Interactions:  NewInteractions(d, ledger),
		Analytics:     NewAnalytics(d, ledger, catalog),
	}
}

// storeErr turns store sentinels into apperr kinds and wraps anything else.
func storeErr(err error, what, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(what, id)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("%s %q already exists", what, id)
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("%s %q was modified concurrently", what, id)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

func requireUser(actor Identity) error {
	if actor.UserID == "" {
		return apperr.New(apperr.KindUnauthorized, "authentication required")
	}
	return nil
}

func requireAdmin(actor Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// logFailure records a side effect that failed after the main write
// committed; such failures are never returned to the caller.
func logFailure(ctx context.Context, err error, msg string) {
	if err == nil {
		return
	}
	log.Ctx(ctx).Warn().Err(err).Msg(msg)
}
