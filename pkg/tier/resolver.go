package tier

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/tripcraft/tierkit/pkg/logger"
)

// UnknownKey describes a lookup that fell back to a safe default.
type UnknownKey struct {
	Kind string // "plan", "feature", "limit" or "usage_kind"
	Plan Plan
	Name string
}

// Resolver answers entitlement questions for one account session.
//
// Store failures never escape: reads fall back to the lowest tier or zero
// usage, writes report false. The cached subscription is guarded by a mutex
// only for memory safety; concurrent reloads still resolve last-writer-wins.
type Resolver struct {
	catalog *Catalog
	subs    SubscriptionStore
	usage   UsageStore

	log             *slog.Logger
	now             func() time.Time
	location        *time.Location
	onUnknown       func(UnknownKey)
	atomic          bool
	immediateCancel bool
	lang            language.Tag

	mu           sync.RWMutex
	account      uuid.UUID
	initialized  bool
	subscription *Subscription
	loadedAt     time.Time
}

// NewResolver creates a Resolver bound to the given catalog and stores.
// Panics if any dependency is nil.
func NewResolver(catalog *Catalog, subs SubscriptionStore, usage UsageStore, opts ...Option) *Resolver {
	if catalog == nil {
		panic("tier: Catalog is required")
	}
	if subs == nil {
		panic("tier: SubscriptionStore is required")
	}
	if usage == nil {
		panic("tier: UsageStore is required")
	}

	r := &Resolver{
		catalog:  catalog,
		subs:     subs,
		usage:    usage,
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
		location: time.Local,
		lang:     language.English,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("tier.resolver"))
	return r
}

// Catalog returns the plan tables the resolver enforces.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Initialize loads the account's subscription, creating a lowest-tier one on
// first access. Repeated calls for the same account are no-ops.
func (r *Resolver) Initialize(ctx context.Context, account uuid.UUID) {
	r.mu.RLock()
	done := r.initialized && r.account == account
	r.mu.RUnlock()
	if done {
		return
	}
	r.load(ctx, account)
}

// Reload refreshes the cached subscription of the current account.
func (r *Resolver) Reload(ctx context.Context) {
	r.mu.RLock()
	account := r.account
	r.mu.RUnlock()
	if account == uuid.Nil {
		return
	}
	r.load(ctx, account)
}

func (r *Resolver) load(ctx context.Context, account uuid.UUID) {
	sub, err := r.fetchOrCreate(ctx, account)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.account = account
	if err != nil {
		r.log.WarnContext(ctx, "subscription unavailable, falling back to lowest tier",
			logger.AccountID(account),
			logger.Error(err),
		)
		r.subscription = nil
		r.initialized = false
		return
	}

	r.subscription = sub
	r.loadedAt = r.now()
	r.initialized = true
}

func (r *Resolver) fetchOrCreate(ctx context.Context, account uuid.UUID) (*Subscription, error) {
	sub, err := r.subs.Latest(ctx, account)
	switch {
	case err == nil && !lapsed(sub, r.now()):
		return sub, nil
	case err == nil:
		if err := r.expire(ctx, account); err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrSubscriptionNotFound):
		return nil, err
	}

	err = r.subs.Create(ctx, newDefaultSubscription(account, r.now().UTC()))
	switch {
	case errors.Is(err, ErrSubscriptionExists):
		// Another session created the row first.
	case err != nil:
		return nil, err
	default:
		r.log.InfoContext(ctx, "created default subscription",
			logger.AccountID(account),
			logger.Plan(string(LowestPlan)),
		)
	}
	return r.subs.Latest(ctx, account)
}

// expire marks a subscription whose scheduled cancellation took effect as
// canceled, so the account drops to a fresh lowest-tier row.
func (r *Resolver) expire(ctx context.Context, account uuid.UUID) error {
	status := StatusCanceled
	err := r.subs.Update(ctx, account, SubscriptionUpdate{
		Status:    &status,
		UpdatedAt: r.now().UTC(),
	})
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return err
	}
	r.log.InfoContext(ctx, "subscription period ended after cancellation",
		logger.AccountID(account),
		logger.Event("tier.subscription_expired"),
	)
	return nil
}

// lapsed reports whether sub no longer grants its plan at now.
func lapsed(sub *Subscription, now time.Time) bool {
	return sub.EffectiveStatus(now) == StatusCanceled
}

// AccountID returns the account the resolver was last initialized for.
func (r *Resolver) AccountID() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.account
}

// Initialized reports whether the last load succeeded.
func (r *Resolver) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// CurrentPlan returns the plan of the cached subscription, or the lowest tier
// when there is none or its scheduled cancellation has taken effect.
func (r *Resolver) CurrentPlan() Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.subscription == nil || lapsed(r.subscription, r.now()) {
		return LowestPlan
	}
	return r.subscription.Plan
}

// LoadedAt returns when the cached subscription was last read from the store.
func (r *Resolver) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// Subscription returns a copy of the cached subscription, or nil.
func (r *Resolver) Subscription() *Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.subscription == nil {
		return nil
	}
	sub := *r.subscription
	return &sub
}

// effectivePlan is the plan whose tables are consulted: the current plan, or
// the lowest tier when the current plan is missing from the catalog.
func (r *Resolver) effectivePlan() Plan {
	p := r.CurrentPlan()
	if r.catalog.HasPlan(p) {
		return p
	}
	r.unknown(UnknownKey{Kind: "plan", Plan: p, Name: string(p)})
	return LowestPlan
}

func (r *Resolver) unknown(k UnknownKey) {
	name := slog.String("name", k.Name)
	switch k.Kind {
	case "feature":
		name = logger.Feature(k.Name)
	case "limit":
		name = logger.Limit(k.Name)
	}
	r.log.Warn("unknown entitlement key, using safe default",
		logger.Event("tier.unknown_key"),
		slog.String("kind", k.Kind),
		logger.Plan(string(k.Plan)),
		name,
	)
	if r.onUnknown != nil {
		r.onUnknown(k)
	}
}

// HasFeature reports whether the current plan enables f. Unknown features are
// disabled.
func (r *Resolver) HasFeature(f Feature) bool {
	p := r.effectivePlan()
	enabled, known := r.catalog.Feature(p, f)
	if !known {
		r.unknown(UnknownKey{Kind: "feature", Plan: p, Name: string(f)})
		return false
	}
	return enabled
}

// GetLimit returns the current plan's quota for name: Unlimited (-1) for no
// ceiling, 0 for unknown limits.
func (r *Resolver) GetLimit(name LimitName) int64 {
	p := r.effectivePlan()
	limit, known := r.catalog.Limit(p, name)
	if !known {
		r.unknown(UnknownKey{Kind: "limit", Plan: p, Name: string(name)})
		return 0
	}
	return limit
}

// IsUnlimited reports whether the current plan has no ceiling for name.
func (r *Resolver) IsUnlimited(name LimitName) bool {
	return r.GetLimit(name) == Unlimited
}

// CanPerformAction reports whether one more unit is allowed when currentUsage
// units were already consumed. Exactly limit actions are allowed per cycle.
func (r *Resolver) CanPerformAction(name LimitName, currentUsage int64) bool {
	limit := r.GetLimit(name)
	if limit == Unlimited {
		return true
	}
	return currentUsage < limit
}

func (r *Resolver) monthKey() string {
	return MonthKey(r.now().In(r.location))
}

// Month returns the usage key of the current calendar month.
func (r *Resolver) Month() string { return r.monthKey() }

// Usage returns this month's counters. Missing records and store failures
// yield zero counters.
func (r *Resolver) Usage(ctx context.Context) UsageRecord {
	account := r.AccountID()
	month := r.monthKey()
	zero := UsageRecord{AccountID: account, Month: month}
	if account == uuid.Nil {
		return zero
	}

	rec, err := r.usage.Get(ctx, account, month)
	if err != nil {
		if !errors.Is(err, ErrUsageNotFound) {
			r.log.WarnContext(ctx, "usage unavailable, assuming zero",
				logger.AccountID(account),
				logger.Month(month),
				logger.Error(err),
			)
		}
		return zero
	}
	return *rec
}

// IncrementUsage records one unit of kind for the current month if the plan
// still allows it. It returns false when the limit is reached or the store
// fails; the stored counter is left untouched in both cases.
//
// The check and the write are two store round trips unless the resolver was
// built WithAtomicIncrement and the store implements ConditionalIncrementer,
// so concurrent callers may overshoot the limit.
func (r *Resolver) IncrementUsage(ctx context.Context, kind UsageKind) bool {
	if !kind.Valid() {
		r.unknown(UnknownKey{Kind: "usage_kind", Plan: r.CurrentPlan(), Name: string(kind)})
		return false
	}

	account := r.AccountID()
	if account == uuid.Nil {
		r.log.WarnContext(ctx, "increment before initialize", logger.Error(ErrNotInitialized))
		return false
	}

	month := r.monthKey()
	limitName := kind.LimitName()

	if ci, ok := r.usage.(ConditionalIncrementer); ok && r.atomic {
		incremented, err := ci.IncrementIfBelow(ctx, account, month, kind, r.GetLimit(limitName))
		if err != nil {
			r.log.ErrorContext(ctx, "failed to increment usage",
				logger.AccountID(account),
				logger.Month(month),
				logger.Limit(string(limitName)),
				logger.Error(err),
			)
			return false
		}
		return incremented
	}

	rec, err := r.usage.Get(ctx, account, month)
	switch {
	case errors.Is(err, ErrUsageNotFound):
		rec = &UsageRecord{AccountID: account, Month: month}
	case err != nil:
		r.log.ErrorContext(ctx, "failed to read usage",
			logger.AccountID(account),
			logger.Month(month),
			logger.Error(err),
		)
		return false
	}

	if !r.CanPerformAction(limitName, rec.Count(kind)) {
		r.log.DebugContext(ctx, "usage limit reached",
			logger.AccountID(account),
			logger.Limit(string(limitName)),
			slog.Int64("current", rec.Count(kind)),
		)
		return false
	}

	next := rec.withIncrement(kind)
	next.AccountID = account
	next.Month = month
	if err := r.usage.Upsert(ctx, &next); err != nil {
		r.log.ErrorContext(ctx, "failed to write usage",
			logger.AccountID(account),
			logger.Month(month),
			logger.Error(err),
		)
		return false
	}
	return true
}

// suggestionThreshold is the usage percentage that triggers an upgrade hint.
const suggestionThreshold = 80

// GetUpgradeSuggestions returns, lowest first and without duplicates, the
// first higher plan that relaxes each limit whose usage reached 80% of the
// current plan's finite quota.
func (r *Resolver) GetUpgradeSuggestions(usage map[LimitName]int64) []Plan {
	current := r.effectivePlan()
	seen := make(map[Plan]struct{})
	out := make([]Plan, 0)

	names := make([]LimitName, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		used := usage[name]
		limit := r.GetLimit(name)
		if limit == Unlimited || (limit == 0 && used == 0) {
			continue
		}
		if used*100 < limit*suggestionThreshold {
			continue
		}

		for _, candidate := range current.Higher() {
			next, ok := r.catalog.Limit(candidate, name)
			if !ok || !moreGenerous(next, limit) {
				continue
			}
			if _, dup := seen[candidate]; !dup {
				seen[candidate] = struct{}{}
				out = append(out, candidate)
			}
			break
		}
	}

	slices.SortFunc(out, func(a, b Plan) int { return a.Compare(b) })
	return out
}

// MinimumPlanForFeature returns the lowest plan enabling f. ok is false when
// no plan does, which indicates a catalog defect.
func (r *Resolver) MinimumPlanForFeature(f Feature) (Plan, bool) {
	for _, p := range Plans() {
		if enabled, _ := r.catalog.Feature(p, f); enabled {
			return p, true
		}
	}
	r.unknown(UnknownKey{Kind: "feature", Plan: r.CurrentPlan(), Name: string(f)})
	return "", false
}

// UpgradePathForFeature returns the plans strictly above the current plan up
// to and including the minimum plan enabling f. Empty when the current plan
// already qualifies or no plan does.
func (r *Resolver) UpgradePathForFeature(f Feature) []Plan {
	path := make([]Plan, 0)
	target, ok := r.MinimumPlanForFeature(f)
	if !ok {
		return path
	}
	current := r.effectivePlan()
	for _, p := range current.Higher() {
		if target.Less(p) {
			break
		}
		path = append(path, p)
	}
	return path
}

// CanDowngrade reports whether this month's usage fits the target plan.
// Returns ErrDowngradeNotPossible otherwise.
func (r *Resolver) CanDowngrade(ctx context.Context, target Plan) error {
	if !target.Valid() {
		return ErrUnknownPlan
	}
	if !target.IsDowngradeFrom(r.effectivePlan()) {
		return nil
	}

	usage := r.Usage(ctx)
	for _, kind := range UsageKinds() {
		limit, ok := r.catalog.Limit(target, kind.LimitName())
		if !ok || limit == Unlimited {
			continue
		}
		if usage.Count(kind) > limit {
			return ErrDowngradeNotPossible
		}
	}
	return nil
}

// CancelSubscription schedules cancellation at period end (or cancels
// immediately when built WithImmediateCancel) and reloads the cache.
// Returns false when the store update fails.
func (r *Resolver) CancelSubscription(ctx context.Context, account uuid.UUID) bool {
	cancelAtEnd := true
	upd := SubscriptionUpdate{
		CancelAtPeriodEnd: &cancelAtEnd,
		UpdatedAt:         r.now().UTC(),
	}
	if r.immediateCancel {
		status := StatusCanceled
		upd.Status = &status
	}

	if err := r.subs.Update(ctx, account, upd); err != nil {
		r.log.ErrorContext(ctx, "failed to cancel subscription",
			logger.AccountID(account),
			logger.Error(err),
		)
		return false
	}
	r.reloadIfCurrent(ctx, account)
	return true
}

// UpdateSubscription moves the account to plan and reloads the cache. A plan
// change withdraws any scheduled cancellation.
// Returns false for unknown plans or when the store update fails.
func (r *Resolver) UpdateSubscription(ctx context.Context, account uuid.UUID, plan Plan) bool {
	if !plan.Valid() {
		r.unknown(UnknownKey{Kind: "plan", Plan: plan, Name: string(plan)})
		return false
	}

	keep := false
	upd := SubscriptionUpdate{
		Plan:              &plan,
		CancelAtPeriodEnd: &keep,
		UpdatedAt:         r.now().UTC(),
	}
	if err := r.subs.Update(ctx, account, upd); err != nil {
		r.log.ErrorContext(ctx, "failed to update subscription",
			logger.AccountID(account),
			logger.Plan(string(plan)),
			logger.Error(err),
		)
		return false
	}
	r.log.InfoContext(ctx, "subscription plan changed",
		logger.AccountID(account),
		logger.Plan(string(plan)),
	)
	r.reloadIfCurrent(ctx, account)
	return true
}

// reloadIfCurrent refreshes the cache after a write. A failed reload leaves the
// previous state in place until the next Initialize or Reload.
func (r *Resolver) reloadIfCurrent(ctx context.Context, account uuid.UUID) {
	if r.AccountID() != account {
		return
	}
	sub, err := r.subs.Latest(ctx, account)
	if errors.Is(err, ErrSubscriptionNotFound) {
		// No active row left: serve the lowest tier until the next Initialize
		// creates a fresh subscription.
		r.mu.Lock()
		r.subscription = nil
		r.initialized = false
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.log.WarnContext(ctx, "reload after write failed, cache may be stale",
			logger.AccountID(account),
			logger.Error(err),
		)
		return
	}

	r.mu.Lock()
	r.subscription = sub
	r.loadedAt = r.now()
	r.initialized = true
	r.mu.Unlock()
}

// CanCreateItinerary reports whether AI itinerary generation is enabled.
func (r *Resolver) CanCreateItinerary() bool { return r.HasFeature(FeatureAIItinerary) }

// CanExportPDF reports whether PDF export is enabled.
func (r *Resolver) CanExportPDF() bool { return r.HasFeature(FeaturePDFExport) }

// CanUseAPI reports whether API access is enabled.
func (r *Resolver) CanUseAPI() bool { return r.HasFeature(FeatureAPIAccess) }

// CanSyncHubSpot reports whether HubSpot CRM sync is enabled.
func (r *Resolver) CanSyncHubSpot() bool { return r.HasFeature(FeatureHubSpotSync) }
