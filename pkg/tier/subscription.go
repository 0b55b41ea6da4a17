package tier

import (
	"time"

	"github.com/google/uuid"
)

// Status is the billing state of a subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
)

// Subscription is the single active plan record of an account.
type Subscription struct {
	AccountID          uuid.UUID
	Plan               Plan
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive reports whether the stored status is active.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// EffectiveStatus resolves scheduled cancellation against now: a subscription
// marked to cancel at period end still reports active until the period ends.
func (s *Subscription) EffectiveStatus(now time.Time) Status {
	if s == nil {
		return StatusCanceled
	}
	if s.Status == StatusActive && s.CancelAtPeriodEnd && !s.CurrentPeriodEnd.IsZero() && !now.Before(s.CurrentPeriodEnd) {
		return StatusCanceled
	}
	return s.Status
}

// newDefaultSubscription builds the lowest-tier record created on first access.
// The billing period is one calendar month from now.
func newDefaultSubscription(account uuid.UUID, now time.Time) *Subscription {
	return &Subscription{
		AccountID:          account,
		Plan:               LowestPlan,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// SubscriptionUpdate lists the fields changed by plan-change and cancel
// operations. Nil fields are left untouched.
type SubscriptionUpdate struct {
	Plan              *Plan
	Status            *Status
	CancelAtPeriodEnd *bool
	UpdatedAt         time.Time
}

// UsageRecord holds monthly counters for one account.
type UsageRecord struct {
	AccountID          uuid.UUID `json:"account_id"`
	Month              string    `json:"month"`
	ItinerariesCreated int64     `json:"itineraries_created"`
	PDFDownloads       int64     `json:"pdf_downloads"`
	APICalls           int64     `json:"api_calls"`
}

// Count returns the counter for kind.
func (u UsageRecord) Count(kind UsageKind) int64 {
	switch kind {
	case UsageItineraries:
		return u.ItinerariesCreated
	case UsagePDFDownloads:
		return u.PDFDownloads
	case UsageAPICalls:
		return u.APICalls
	}
	return 0
}

// ByLimit maps the counters onto the monthly limit names.
func (u UsageRecord) ByLimit() map[LimitName]int64 {
	out := make(map[LimitName]int64, 3)
	for _, kind := range UsageKinds() {
		out[kind.LimitName()] = u.Count(kind)
	}
	return out
}

func (u UsageRecord) withIncrement(kind UsageKind) UsageRecord {
	switch kind {
	case UsageItineraries:
		u.ItinerariesCreated++
	case UsagePDFDownloads:
		u.PDFDownloads++
	case UsageAPICalls:
		u.APICalls++
	}
	return u
}

// MonthKeyLayout formats usage record keys.
const MonthKeyLayout = "2006-01"

// MonthKey returns the YYYY-MM key of t in t's location.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}
