package model

import (
	"time"

	"saas-starter/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusCanceled, SubscriptionStatusPastDue,
		SubscriptionStatusUnpaid, SubscriptionStatusTrialing, SubscriptionStatusIncomplete,
		SubscriptionStatusIncompleteExpired, SubscriptionStatusPaused:
		return true
	}
	return false
}

// IsEntitled reports whether the status grants access to paid features.
func (s SubscriptionStatus) IsEntitled() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CanTransitionTo encodes the provider's subscription lifecycle:
// incomplete -> {active, incomplete_expired}; active <-> past_due;
// active/past_due/trialing -> canceled; trialing -> active.
// A status can always "transition" to itself (webhook replays carry the
// current status unchanged).
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case SubscriptionStatusIncomplete:
		return next == SubscriptionStatusActive || next == SubscriptionStatusIncompleteExpired
	case SubscriptionStatusActive:
		return next == SubscriptionStatusPastDue || next == SubscriptionStatusCanceled ||
			next == SubscriptionStatusUnpaid || next == SubscriptionStatusPaused
	case SubscriptionStatusPastDue:
		return next == SubscriptionStatusActive || next == SubscriptionStatusCanceled ||
			next == SubscriptionStatusUnpaid
	case SubscriptionStatusTrialing:
		return next == SubscriptionStatusActive || next == SubscriptionStatusCanceled
	case SubscriptionStatusPaused:
		return next == SubscriptionStatusActive || next == SubscriptionStatusCanceled
	}
	return false
}

// Subscription belongs to exactly one user and references at most one
// product. PolarSubscriptionID is the natural upsert key; rows are never
// deleted, only status-transitioned.
type Subscription struct {
	ID                  string
	UserID              string
	ProductID           *string
	PolarSubscriptionID *string
	Status              SubscriptionStatus
	CancelAtPeriodEnd   bool
	CurrentPeriodStart  *time.Time
	CurrentPeriodEnd    *time.Time
	TrialStart          *time.Time
	TrialEnd            *time.Time
	CanceledAt          *time.Time
	Metadata            map[string]string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewSubscription(id, userID string, status SubscriptionStatus) (*Subscription, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if userID == "" || !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:        id,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Subscription) IsZero() bool { return s == nil || s.ID == "" }

// Cancel moves the subscription to its terminal canceled state.
// The cancel-at-period-end flag is cleared: once canceled there is no
// pending scheduled cancellation anymore.
func (s *Subscription) Cancel(at time.Time) {
	s.Status = SubscriptionStatusCanceled
	s.CanceledAt = &at
	s.CancelAtPeriodEnd = false
	s.UpdatedAt = time.Now()
}
