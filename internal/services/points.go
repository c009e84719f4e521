package services

import (
	"context"
	"fmt"
	"time"

	"ecoloop/internal/apperr"
	"ecoloop/internal/models"
	"ecoloop/internal/store"
	"ecoloop/internal/utils"
)

// Fixed award amounts per transaction kind.
const (
	PointsPostCreation      = 5
	PointsPostInteraction   = 1
	PointsPickupCompletion  = 20
	PointsInitiativeSupport = 10
)

// DailyPostLimit caps how many posts per UTC day earn Post_Creation points.
const DailyPostLimit = 3

// Ledger appends point rows and derives balances from them. There is no
// stored balance column; Balance always sums the rows.
type Ledger struct {
	deps Deps
}

func NewLedger(d Deps) *Ledger {
	return &Ledger{deps: d.withDefaults()}
}

// badgeCrossing is a tier change detected by an award, announced after the
// surrounding write commits.
type badgeCrossing struct {
	userID string
	badge  utils.Badge
}

// Award appends one ledger row.
func (l *Ledger) Award(ctx context.Context, userID string, amount int, kind models.TransactionKind, referenceID string) (*models.Point, error) {
	p, crossed, err := l.award(ctx, l.deps.Store, userID, amount, kind, referenceID)
	if err != nil {
		return nil, err
	}
	l.announce(crossed)
	return p, nil
}

func (l *Ledger) award(ctx context.Context, st store.Store, userID string, amount int, kind models.TransactionKind, referenceID string) (*models.Point, *badgeCrossing, error) {
	if amount <= 0 {
		return nil, nil, apperr.New(apperr.KindInvalidAmount, "amount must be positive, got %d", amount)
	}
	if !kind.Valid() {
		return nil, nil, apperr.New(apperr.KindUnknownTransactionKind, "unknown transaction kind %q", kind)
	}
	if userID == "" {
		return nil, nil, apperr.Validation("userID is required")
	}

	before, err := st.SumPoints(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("sum points: %w", err)
	}
	p := &models.Point{
		PointID:      l.deps.NewID(),
		UserID:       userID,
		PointsEarned: amount,
		Transaction:  kind,
		ReferenceID:  referenceID,
		ReceivedAt:   l.deps.Now(),
	}
	if err := st.AppendPoint(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("append point: %w", err)
	}

	var crossed *badgeCrossing
	if next := utils.BadgeFor(before + amount); next.MinPoints > utils.BadgeFor(before).MinPoints {
		crossed = &badgeCrossing{userID: userID, badge: next}
	}
	return p, crossed, nil
}

func (l *Ledger) announce(crossings ...*badgeCrossing) {
	for _, c := range crossings {
		if c == nil {
			continue
		}
		l.deps.notify(c.userID, "", c.userID, models.NotificationTypeBadge,
			fmt.Sprintf("You earned the %s %s badge", c.badge.Icon, c.badge.Name))
	}
}

// awardPostCreation grants Post_Creation points unless the author already
// earned them DailyPostLimit times today.
func (l *Ledger) awardPostCreation(ctx context.Context, userID, postID string) (*models.Point, error) {
	now := l.deps.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := l.deps.Store.CountPoints(ctx, userID, models.TransactionPostCreation, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("count today's post points: %w", err)
	}
	if count >= DailyPostLimit {
		return nil, nil
	}
	return l.Award(ctx, userID, PointsPostCreation, models.TransactionPostCreation, postID)
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	total, err := l.deps.Store.SumPoints(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return total, nil
}

func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]models.Point, error) {
	rows, err := l.deps.Store.ListPoints(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return rows, nil
}

// Standing is a balance together with the badge it earns.
type Standing struct {
	UserID  string      `json:"userID"`
	Balance int         `json:"balance"`
	Badge   utils.Badge `json:"badge"`
}

func (l *Ledger) Standing(ctx context.Context, userID string) (Standing, error) {
	total, err := l.Balance(ctx, userID)
	if err != nil {
		return Standing{}, err
	}
	return Standing{UserID: userID, Balance: total, Badge: utils.BadgeFor(total)}, nil
}

func (l *Ledger) Badge(ctx context.Context, userID string) (utils.Badge, error) {
	s, err := l.Standing(ctx, userID)
	return s.Badge, err
}
