package tier

import (
	"context"
	"time"
)

// LimitState is the UX state of a quota.
type LimitState string

const (
	LimitStateOK       LimitState = "ok"
	LimitStateWarning  LimitState = "warning"
	LimitStateEnforced LimitState = "enforced"
)

// StateOf classifies current usage against limit. Unlimited quotas are always ok.
func StateOf(current, limit int64) LimitState {
	if limit == Unlimited {
		return LimitStateOK
	}
	if current >= limit {
		return LimitStateEnforced
	}
	if current*100 >= limit*suggestionThreshold {
		return LimitStateWarning
	}
	return LimitStateOK
}

// UsagePercentage returns usage as 0-100, -1 for unlimited, 100 for a zero quota.
func UsagePercentage(current, limit int64) int {
	switch {
	case limit == Unlimited:
		return -1
	case limit == 0:
		return 100
	}
	return int(min((current*100)/limit, 100))
}

// LimitStatus is one quota with this month's consumption.
type LimitStatus struct {
	Name       LimitName  `json:"name"`
	Limit      int64      `json:"limit"`
	Current    int64      `json:"current"`
	Unlimited  bool       `json:"unlimited"`
	Percentage int        `json:"percentage"`
	State      LimitState `json:"state"`
	Metered    bool       `json:"metered"`
}

// Entitlements is the full gating payload for the UI.
type Entitlements struct {
	AccountID          string        `json:"account_id"`
	Plan               Plan          `json:"plan"`
	PlanInfo           PlanInfo      `json:"plan_info"`
	Status             Status        `json:"status"`
	CancelAtPeriodEnd  bool          `json:"cancel_at_period_end"`
	CurrentPeriodEnd   *time.Time    `json:"current_period_end,omitempty"`
	Month              string        `json:"month"`
	Features           []Feature     `json:"features"`
	Limits             []LimitStatus `json:"limits"`
	UpgradeSuggestions []Plan        `json:"upgrade_suggestions"`
}

// Snapshot assembles the current entitlements. Store failures degrade to the
// lowest tier and zero usage like every other read.
func (r *Resolver) Snapshot(ctx context.Context) Entitlements {
	plan := r.effectivePlan()
	usage := r.Usage(ctx)
	metered := usage.ByLimit()

	ent := Entitlements{
		AccountID:          r.AccountID().String(),
		Plan:               plan,
		PlanInfo:           r.catalog.Info(plan),
		Status:             StatusActive,
		Month:              usage.Month,
		Features:           r.catalog.Features(plan),
		Limits:             make([]LimitStatus, 0, len(r.catalog.LimitNames())),
		UpgradeSuggestions: r.GetUpgradeSuggestions(metered),
	}
	if ent.Features == nil {
		ent.Features = []Feature{}
	}

	if sub := r.Subscription(); sub != nil {
		ent.Status = sub.EffectiveStatus(r.now())
		ent.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		if !sub.CurrentPeriodEnd.IsZero() {
			end := sub.CurrentPeriodEnd
			ent.CurrentPeriodEnd = &end
		}
	}

	for _, name := range r.catalog.LimitNames() {
		limit, _ := r.catalog.Limit(plan, name)
		current, isMetered := metered[name]
		ent.Limits = append(ent.Limits, LimitStatus{
			Name:       name,
			Limit:      limit,
			Current:    current,
			Unlimited:  limit == Unlimited,
			Percentage: UsagePercentage(current, limit),
			State:      StateOf(current, limit),
			Metered:    isMetered,
		})
	}

	return ent
}
