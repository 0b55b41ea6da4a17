package tier

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionStore persists one active subscription per account.
type SubscriptionStore interface {
	// Latest returns the most recent active subscription.
	// Returns ErrSubscriptionNotFound if the account has none.
	Latest(ctx context.Context, account uuid.UUID) (*Subscription, error)

	// Create inserts a new subscription record. Stores that allow one open
	// row per account return ErrSubscriptionExists when another is open.
	Create(ctx context.Context, sub *Subscription) error

	// Update applies the non-nil fields of upd to the account's subscription.
	Update(ctx context.Context, account uuid.UUID, upd SubscriptionUpdate) error
}

// UsageStore persists monthly usage counters keyed by (account, month).
type UsageStore interface {
	// Get returns the record for the month.
	// Returns ErrUsageNotFound if nothing was recorded yet.
	Get(ctx context.Context, account uuid.UUID, month string) (*UsageRecord, error)

	// Upsert writes the full record, overwriting any row with the same
	// (account, month) key.
	Upsert(ctx context.Context, rec *UsageRecord) error
}

// ConditionalIncrementer is implemented by usage stores able to check and
// increment a counter in a single atomic operation.
type ConditionalIncrementer interface {
	// IncrementIfBelow adds one to the counter when its current value is
	// strictly below limit, or unconditionally when limit is Unlimited.
	// Reports whether the increment happened.
	IncrementIfBelow(ctx context.Context, account uuid.UUID, month string, kind UsageKind, limit int64) (bool, error)
}
