//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"saas-starter/internal/domain"
)

// --- User Model Tests ---

func TestNewUser(t *testing.T) {
	t.Run("should create a new user and generate an id", func(t *testing.T) {
		u, err := NewUser("", "jane@example.com")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if u.ID == "" {
			t.Error("expected generated id")
		}
		if u.Email != "jane@example.com" {
			t.Errorf("email = %q", u.Email)
		}
	})

	t.Run("should fail with empty email", func(t *testing.T) {
		if _, err := NewUser("u1", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

// --- Product Model Tests ---

func TestNewProduct(t *testing.T) {
	t.Run("should create an active product", func(t *testing.T) {
		p, err := NewProduct("", "Pro", 2900, BillingIntervalMonth)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !p.IsActive {
			t.Error("new products should be active")
		}
		if p.ID == "" {
			t.Error("expected generated id")
		}
	})

	t.Run("should reject negative price", func(t *testing.T) {
		if _, err := NewProduct("", "Pro", -1, BillingIntervalMonth); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("should reject unknown interval", func(t *testing.T) {
		if _, err := NewProduct("", "Pro", 2900, "weekly"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

// --- Subscription Model Tests ---

func TestSubscriptionStatus(t *testing.T) {
	t.Run("entitlement covers active and trialing only", func(t *testing.T) {
		entitled := []SubscriptionStatus{SubscriptionStatusActive, SubscriptionStatusTrialing}
		for _, s := range entitled {
			if !s.IsEntitled() {
				t.Errorf("%s should be entitled", s)
			}
		}
		notEntitled := []SubscriptionStatus{
			SubscriptionStatusCanceled, SubscriptionStatusPastDue, SubscriptionStatusUnpaid,
			SubscriptionStatusIncomplete, SubscriptionStatusIncompleteExpired, SubscriptionStatusPaused,
		}
		for _, s := range notEntitled {
			if s.IsEntitled() {
				t.Errorf("%s should not be entitled", s)
			}
		}
	})

	t.Run("lifecycle transitions", func(t *testing.T) {
		cases := []struct {
			from, to SubscriptionStatus
			want     bool
		}{
			{SubscriptionStatusIncomplete, SubscriptionStatusActive, true},
			{SubscriptionStatusIncomplete, SubscriptionStatusIncompleteExpired, true},
			{SubscriptionStatusIncomplete, SubscriptionStatusPastDue, false},
			{SubscriptionStatusActive, SubscriptionStatusPastDue, true},
			{SubscriptionStatusActive, SubscriptionStatusCanceled, true},
			{SubscriptionStatusPastDue, SubscriptionStatusActive, true},
			{SubscriptionStatusTrialing, SubscriptionStatusActive, true},
			{SubscriptionStatusTrialing, SubscriptionStatusPastDue, false},
			{SubscriptionStatusCanceled, SubscriptionStatusActive, false},
			{SubscriptionStatusActive, SubscriptionStatusActive, true},
		}
		for _, c := range cases {
			if got := c.from.CanTransitionTo(c.to); got != c.want {
				t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.want)
			}
		}
	})
}

func TestSubscriptionCancel(t *testing.T) {
	s, err := NewSubscription("", "user-1", SubscriptionStatusActive)
	if err != nil {
		t.Fatal(err)
	}
	s.CancelAtPeriodEnd = true

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Cancel(at)

	if s.Status != SubscriptionStatusCanceled {
		t.Errorf("status = %s", s.Status)
	}
	if s.CanceledAt == nil || !s.CanceledAt.Equal(at) {
		t.Errorf("canceled_at = %v", s.CanceledAt)
	}
	if s.CancelAtPeriodEnd {
		t.Error("pending cancellation flag should be cleared")
	}
}

func TestNewSubscription(t *testing.T) {
	t.Run("should reject missing user", func(t *testing.T) {
		if _, err := NewSubscription("", "", SubscriptionStatusActive); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		if _, err := NewSubscription("", "user-1", "suspended"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

// --- WebhookEvent Model Tests ---

func TestWebhookEvent(t *testing.T) {
	payload := json.RawMessage(`{"id":"evt_1","type":"subscription.created"}`)

	t.Run("new events start unprocessed with a sortable id", func(t *testing.T) {
		e, err := NewWebhookEvent("evt_1", "subscription.created", payload)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if e.Processed || e.ProcessedAt != nil || e.Error != nil {
			t.Error("new events must be unprocessed and error-free")
		}
		if len(e.ID) != 26 {
			t.Errorf("id = %q, want a ULID", e.ID)
		}
	})

	t.Run("should reject missing event id or type", func(t *testing.T) {
		if _, err := NewWebhookEvent("", "t", payload); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
		if _, err := NewWebhookEvent("evt_1", "", payload); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("mark processed clears a prior failure", func(t *testing.T) {
		e, _ := NewWebhookEvent("evt_1", "t", payload)
		e.MarkFailed("db down")
		if e.Error == nil || e.Processed {
			t.Fatal("failure not recorded")
		}
		e.MarkProcessed(time.Now())
		if !e.Processed || e.Error != nil {
			t.Error("processed state should clear the error")
		}
	})
}
