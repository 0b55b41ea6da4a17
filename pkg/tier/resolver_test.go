package tier_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripcraft/tierkit/pkg/tier"
)

func TestNewResolver_RequiresDependencies(t *testing.T) {
	t.Parallel()
	store := tier.NewMemoryStore()

	assert.Panics(t, func() { tier.NewResolver(nil, store, store) })
	assert.Panics(t, func() { tier.NewResolver(tier.DefaultCatalog(), nil, store) })
	assert.Panics(t, func() { tier.NewResolver(tier.DefaultCatalog(), store, nil) })
}

func TestResolver_NewAccountScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := tier.NewMemoryStore()
	r := newResolver(store, store)
	account := uuid.New()

	r.Initialize(ctx, account)

	require.True(t, r.Initialized())
	assert.Equal(t, account, r.AccountID())
	assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
	assert.True(t, r.CanCreateItinerary())
	require.Len(t, store.Subscriptions(account), 1)

	sub := r.Subscription()
	require.NotNil(t, sub)
	assert.Equal(t, tier.StatusActive, sub.Status)
	assert.Equal(t, march.AddDate(0, 1, 0), sub.CurrentPeriodEnd)

	for i := range 5 {
		require.True(t, r.IncrementUsage(ctx, tier.UsageItineraries), "increment %d", i+1)
	}
	assert.False(t, r.IncrementUsage(ctx, tier.UsageItineraries))

	rec, err := store.Get(ctx, account, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.ItinerariesCreated)

	r.Initialize(ctx, account)
	assert.Len(t, store.Subscriptions(account), 1, "repeated initialize is a no-op")
}

func TestResolver_InitializeSwitchesAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := tier.NewMemoryStore()
	r, first := seed(t, store, tier.PlanEnterprise)

	second := uuid.New()
	r.Initialize(ctx, second)

	assert.Equal(t, second, r.AccountID())
	assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
	assert.Len(t, store.Subscriptions(first), 1)
	assert.Len(t, store.Subscriptions(second), 1)
}

func TestResolver_UnlimitedSentinel(t *testing.T) {
	t.Parallel()
	store := tier.NewMemoryStore()

	for _, p := range tier.Plans() {
		r, _ := seed(t, store, p)
		for _, name := range tier.KnownLimits() {
			limit := r.GetLimit(name)
			assert.Equal(t, limit == tier.Unlimited, r.IsUnlimited(name), "%s/%s", p, name)
			if r.IsUnlimited(name) {
				assert.True(t, r.CanPerformAction(name, 10_000_000), "%s/%s", p, name)
			}
		}
	}
}

func TestResolver_StrictQuotaBoundary(t *testing.T) {
	t.Parallel()
	store := tier.NewMemoryStore()

	for _, p := range tier.Plans() {
		r, _ := seed(t, store, p)
		for _, name := range tier.KnownLimits() {
			limit := r.GetLimit(name)
			switch {
			case limit == tier.Unlimited:
				continue
			case limit == 0:
				assert.False(t, r.CanPerformAction(name, 0), "%s/%s", p, name)
			default:
				assert.True(t, r.CanPerformAction(name, limit-1), "%s/%s", p, name)
				assert.False(t, r.CanPerformAction(name, limit), "%s/%s", p, name)
			}
		}
	}
}

func TestResolver_IncrementAtLimitLeavesCounter(t *testing.T) {
	t.Parallel()

	for name, opts := range map[string][]tier.Option{
		"read-modify-write": nil,
		"atomic":            {tier.WithAtomicIncrement()},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := tier.NewMemoryStore()
			r, account := seed(t, store, tier.PlanStarter, opts...)

			require.NoError(t, store.Upsert(ctx, &tier.UsageRecord{
				AccountID:    account,
				Month:        "2025-03",
				PDFDownloads: 10,
			}))

			assert.False(t, r.IncrementUsage(ctx, tier.UsagePDFDownloads))

			rec, err := store.Get(ctx, account, "2025-03")
			require.NoError(t, err)
			assert.Equal(t, int64(10), rec.PDFDownloads)
		})
	}
}

func TestResolver_ZeroQuotaNeverWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := tier.NewMemoryStore()
	r, account := seed(t, store, tier.PlanStarter)

	assert.False(t, r.IncrementUsage(ctx, tier.UsageAPICalls))
	_, err := store.Get(ctx, account, "2025-03")
	assert.ErrorIs(t, err, tier.ErrUsageNotFound)
}

func TestResolver_MonthRollover(t *testing.T) {
	t.Parallel()

	t.Run("new month starts from zero", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		clock := newTestClock(time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC))
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanStarter, tier.WithClock(clock.Now))

		for range 5 {
			require.True(t, r.IncrementUsage(ctx, tier.UsageItineraries))
		}
		require.False(t, r.IncrementUsage(ctx, tier.UsageItineraries))
		assert.Equal(t, "2025-01", r.Month())

		clock.Set(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, "2025-02", r.Month())
		assert.Equal(t, int64(0), r.Usage(ctx).ItinerariesCreated)
		assert.True(t, r.IncrementUsage(ctx, tier.UsageItineraries))

		jan, err := store.Get(ctx, account, "2025-01")
		require.NoError(t, err)
		feb, err := store.Get(ctx, account, "2025-02")
		require.NoError(t, err)
		assert.Equal(t, int64(5), jan.ItinerariesCreated)
		assert.Equal(t, int64(1), feb.ItinerariesCreated)
	})

	t.Run("month follows configured location", func(t *testing.T) {
		t.Parallel()
		clock := newTestClock(time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC))
		store := tier.NewMemoryStore()
		r, _ := seed(t, store, tier.PlanStarter,
			tier.WithClock(clock.Now),
			tier.WithLocation(time.FixedZone("EET", 2*60*60)),
		)
		assert.Equal(t, "2025-02", r.Month())
	})
}

func TestResolver_FailOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("subscription read fails", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Latest", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
		usage := tier.NewMemoryStore()

		r := newResolver(subs, usage)
		account := uuid.New()
		assert.NotPanics(t, func() { r.Initialize(ctx, account) })

		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
		assert.False(t, r.Initialized())
		assert.Nil(t, r.Subscription())
		assert.Equal(t, account, r.AccountID())
		assert.False(t, r.HasFeature(tier.FeatureAPIAccess))
		assert.True(t, r.HasFeature(tier.FeaturePDFExport))
		subs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("default subscription write fails", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Latest", mock.Anything, mock.Anything).Return(nil, tier.ErrSubscriptionNotFound)
		subs.On("Create", mock.Anything, mock.Anything).Return(errors.New("permission denied"))
		usage := tier.NewMemoryStore()

		r := newResolver(subs, usage)
		r.Initialize(ctx, uuid.New())

		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
		assert.False(t, r.Initialized())
		subs.AssertExpectations(t)
	})

	t.Run("initialize retries after failure", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Latest", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
		subs.On("Latest", mock.Anything, mock.Anything).Return(&tier.Subscription{
			Plan:   tier.PlanProfessional,
			Status: tier.StatusActive,
		}, nil)

		r := newResolver(subs, tier.NewMemoryStore())
		account := uuid.New()
		r.Initialize(ctx, account)
		require.False(t, r.Initialized())

		r.Initialize(ctx, account)
		assert.True(t, r.Initialized())
		assert.Equal(t, tier.PlanProfessional, r.CurrentPlan())
	})

	t.Run("default row created concurrently elsewhere", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Latest", mock.Anything, mock.Anything).Return(nil, tier.ErrSubscriptionNotFound).Once()
		subs.On("Create", mock.Anything, mock.Anything).Return(tier.ErrSubscriptionExists).Once()
		subs.On("Latest", mock.Anything, mock.Anything).Return(&tier.Subscription{
			Plan:   tier.PlanStarter,
			Status: tier.StatusActive,
		}, nil).Once()

		r := newResolver(subs, tier.NewMemoryStore())
		r.Initialize(ctx, uuid.New())
		assert.True(t, r.Initialized())
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
		subs.AssertExpectations(t)
	})

	t.Run("lapsed row fails to expire", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Latest", mock.Anything, mock.Anything).Return(&tier.Subscription{
			Plan:              tier.PlanEnterprise,
			Status:            tier.StatusActive,
			CancelAtPeriodEnd: true,
			CurrentPeriodEnd:  march.AddDate(0, -1, 0),
		}, nil)
		subs.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))

		r := newResolver(subs, tier.NewMemoryStore())
		r.Initialize(ctx, uuid.New())
		assert.False(t, r.Initialized())
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
		assert.False(t, r.CanUseAPI())
		subs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("usage store fails", func(t *testing.T) {
		t.Parallel()
		subs := tier.NewMemoryStore()
		usage := &mockUsageStore{}
		usage.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		r := newResolver(subs, usage)
		account := uuid.New()
		r.Initialize(ctx, account)

		rec := r.Usage(ctx)
		assert.Equal(t, account, rec.AccountID)
		assert.Equal(t, int64(0), rec.ItinerariesCreated)
		assert.False(t, r.IncrementUsage(ctx, tier.UsageItineraries))
		usage.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("usage write fails", func(t *testing.T) {
		t.Parallel()
		subs := tier.NewMemoryStore()
		usage := &mockUsageStore{}
		usage.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, tier.ErrUsageNotFound)
		usage.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("read-only replica"))

		r := newResolver(subs, usage)
		r.Initialize(ctx, uuid.New())
		assert.False(t, r.IncrementUsage(ctx, tier.UsageItineraries))
		usage.AssertExpectations(t)
	})
}

func TestResolver_IncrementBeforeInitialize(t *testing.T) {
	t.Parallel()
	store := tier.NewMemoryStore()
	r := newResolver(store, store)

	assert.False(t, r.IncrementUsage(context.Background(), tier.UsageItineraries))
	assert.Equal(t, uuid.Nil, r.Usage(context.Background()).AccountID)
}

func TestResolver_UpgradeSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		plan  tier.Plan
		usage map[tier.LimitName]int64
		want  []tier.Plan
	}{
		{
			name:  "itineraries at 80 percent",
			plan:  tier.PlanStarter,
			usage: map[tier.LimitName]int64{tier.LimitItinerariesPerMonth: 4},
			want:  []tier.Plan{tier.PlanProfessional},
		},
		{
			name:  "below threshold",
			plan:  tier.PlanStarter,
			usage: map[tier.LimitName]int64{tier.LimitItinerariesPerMonth: 3},
			want:  []tier.Plan{},
		},
		{
			name: "several limits deduplicated",
			plan: tier.PlanStarter,
			usage: map[tier.LimitName]int64{
				tier.LimitItinerariesPerMonth:  5,
				tier.LimitPDFDownloadsPerMonth: 9,
				tier.LimitTeamMembers:          1,
			},
			want: []tier.Plan{tier.PlanProfessional},
		},
		{
			name:  "zero quota untouched",
			plan:  tier.PlanStarter,
			usage: map[tier.LimitName]int64{tier.LimitAPICallsPerMonth: 0},
			want:  []tier.Plan{},
		},
		{
			name:  "zero quota used",
			plan:  tier.PlanStarter,
			usage: map[tier.LimitName]int64{tier.LimitAPICallsPerMonth: 1},
			want:  []tier.Plan{tier.PlanProfessional},
		},
		{
			name:  "professional near pdf cap",
			plan:  tier.PlanProfessional,
			usage: map[tier.LimitName]int64{tier.LimitPDFDownloadsPerMonth: 80},
			want:  []tier.Plan{tier.PlanEnterprise},
		},
		{
			name:  "unlimited never suggests",
			plan:  tier.PlanProfessional,
			usage: map[tier.LimitName]int64{tier.LimitItinerariesPerMonth: 10_000},
			want:  []tier.Plan{},
		},
		{
			name: "enterprise has nowhere to go",
			plan: tier.PlanEnterprise,
			usage: map[tier.LimitName]int64{
				tier.LimitItinerariesPerMonth: 1_000_000,
				tier.LimitClients:             1_000_000,
			},
			want: []tier.Plan{},
		},
		{
			name:  "unknown limit ignored",
			plan:  tier.PlanStarter,
			usage: map[tier.LimitName]int64{"bookings_per_month": 50},
			want:  []tier.Plan{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := seed(t, tier.NewMemoryStore(), tt.plan)
			assert.Equal(t, tt.want, r.GetUpgradeSuggestions(tt.usage))
		})
	}
}

func TestResolver_UpgradeSuggestionSkipsPlansWithoutRelief(t *testing.T) {
	t.Parallel()

	limits := tier.DefaultLimits()
	limits[tier.PlanProfessional][tier.LimitPDFDownloadsPerMonth] = 10
	catalog := tier.MustCatalog(tier.DefaultFeatures(), limits)

	store := tier.NewMemoryStore()
	r := tier.NewResolver(catalog, store, store)
	r.Initialize(context.Background(), uuid.New())

	got := r.GetUpgradeSuggestions(map[tier.LimitName]int64{tier.LimitPDFDownloadsPerMonth: 9})
	assert.Equal(t, []tier.Plan{tier.PlanEnterprise}, got)
}

func TestResolver_UnknownKeys(t *testing.T) {
	t.Parallel()

	t.Run("features limits and kinds", func(t *testing.T) {
		t.Parallel()
		rec := &unknownRecorder{}
		store := tier.NewMemoryStore()

		for _, p := range tier.Plans() {
			r, _ := seed(t, store, p, tier.WithUnknownKeyHook(rec.hook))
			assert.False(t, r.HasFeature("nonexistent_feature"), p)
		}

		r, _ := seed(t, store, tier.PlanEnterprise, tier.WithUnknownKeyHook(rec.hook))
		assert.Equal(t, int64(0), r.GetLimit("nonexistent_limit"))
		assert.False(t, r.IsUnlimited("nonexistent_limit"))
		assert.False(t, r.CanPerformAction("nonexistent_limit", 0))
		assert.False(t, r.IncrementUsage(context.Background(), "teleports"))

		kinds := rec.kinds()
		assert.Contains(t, kinds, "feature")
		assert.Contains(t, kinds, "limit")
		assert.Contains(t, kinds, "usage_kind")
	})

	t.Run("stored plan missing from catalog", func(t *testing.T) {
		t.Parallel()
		rec := &unknownRecorder{}
		store := tier.NewMemoryStore()
		r, _ := seed(t, store, tier.Plan("platinum"), tier.WithUnknownKeyHook(rec.hook))

		assert.Equal(t, tier.Plan("platinum"), r.CurrentPlan())
		assert.False(t, r.HasFeature(tier.FeatureAPIAccess))
		assert.Equal(t, int64(5), r.GetLimit(tier.LimitItinerariesPerMonth))
		assert.Contains(t, rec.kinds(), "plan")
	})
}

func TestResolver_FeaturePaths(t *testing.T) {
	t.Parallel()
	store := tier.NewMemoryStore()

	starter, _ := seed(t, store, tier.PlanStarter)
	enterprise, _ := seed(t, store, tier.PlanEnterprise)

	p, ok := starter.MinimumPlanForFeature(tier.FeatureAPIAccess)
	require.True(t, ok)
	assert.Equal(t, tier.PlanProfessional, p)

	p, ok = starter.MinimumPlanForFeature(tier.FeaturePDFExport)
	require.True(t, ok)
	assert.Equal(t, tier.PlanStarter, p)

	_, ok = starter.MinimumPlanForFeature("time_travel")
	assert.False(t, ok)

	assert.Equal(t, []tier.Plan{tier.PlanProfessional}, starter.UpgradePathForFeature(tier.FeatureAPIAccess))
	assert.Equal(t, []tier.Plan{tier.PlanProfessional, tier.PlanEnterprise}, starter.UpgradePathForFeature(tier.FeatureWhiteLabel))
	assert.Empty(t, starter.UpgradePathForFeature(tier.FeaturePDFExport))
	assert.NotNil(t, starter.UpgradePathForFeature("time_travel"))
	assert.Empty(t, starter.UpgradePathForFeature("time_travel"))
	assert.Empty(t, enterprise.UpgradePathForFeature(tier.FeatureWhiteLabel))

	assert.True(t, starter.CanExportPDF())
	assert.False(t, starter.CanUseAPI())
	assert.False(t, starter.CanSyncHubSpot())
	assert.True(t, enterprise.CanSyncHubSpot())
}

func TestResolver_FeatureEnabledNowhere(t *testing.T) {
	t.Parallel()

	features := tier.DefaultFeatures()
	for _, p := range tier.Plans() {
		features[p][tier.FeatureRealTimeBooking] = false
	}
	catalog := tier.MustCatalog(features, tier.DefaultLimits())
	rec := &unknownRecorder{}
	store := tier.NewMemoryStore()
	r := tier.NewResolver(catalog, store, store, tier.WithUnknownKeyHook(rec.hook))
	r.Initialize(context.Background(), uuid.New())

	_, ok := r.MinimumPlanForFeature(tier.FeatureRealTimeBooking)
	assert.False(t, ok)
	assert.Empty(t, r.UpgradePathForFeature(tier.FeatureRealTimeBooking))
	assert.Contains(t, rec.kinds(), "feature")
}

func TestResolver_CancelSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("scheduled at period end", func(t *testing.T) {
		t.Parallel()
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanProfessional)

		require.True(t, r.CancelSubscription(ctx, account))

		sub := r.Subscription()
		require.NotNil(t, sub)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.Equal(t, tier.StatusActive, sub.Status)
		assert.Equal(t, tier.StatusActive, sub.EffectiveStatus(march))
		assert.Equal(t, tier.StatusCanceled, sub.EffectiveStatus(sub.CurrentPeriodEnd))
		assert.Equal(t, tier.PlanProfessional, r.CurrentPlan())
	})

	t.Run("scheduled cancel lapses at period end", func(t *testing.T) {
		t.Parallel()
		clock := newTestClock(march)
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanProfessional, tier.WithClock(clock.Now))

		require.True(t, r.CancelSubscription(ctx, account))
		assert.True(t, r.CanSyncHubSpot())

		clock.Set(march.AddDate(0, 3, 0))
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan(), "cached session drops to lowest tier")
		assert.False(t, r.CanSyncHubSpot())
		assert.Equal(t, int64(5), r.GetLimit(tier.LimitItinerariesPerMonth))

		fresh := newResolver(store, store, tier.WithClock(clock.Now))
		fresh.Initialize(ctx, account)
		require.True(t, fresh.Initialized())
		assert.Equal(t, tier.PlanStarter, fresh.CurrentPlan())
		assert.False(t, fresh.CanSyncHubSpot())
		assert.Equal(t, tier.StatusActive, fresh.Snapshot(ctx).Status)

		rows := store.Subscriptions(account)
		require.Len(t, rows, 2)
		assert.Equal(t, tier.StatusCanceled, rows[0].Status, "lapsed row marked canceled")
		assert.Equal(t, tier.PlanProfessional, rows[0].Plan)
		assert.Equal(t, tier.PlanStarter, rows[1].Plan)
		assert.Equal(t, tier.StatusActive, rows[1].Status)
	})

	t.Run("immediate", func(t *testing.T) {
		t.Parallel()
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanProfessional, tier.WithImmediateCancel())

		require.True(t, r.CancelSubscription(ctx, account))

		rows := store.Subscriptions(account)
		require.Len(t, rows, 1)
		assert.Equal(t, tier.StatusCanceled, rows[0].Status)
		assert.True(t, rows[0].CancelAtPeriodEnd)

		assert.Nil(t, r.Subscription())
		assert.False(t, r.Initialized())
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())

		r.Initialize(ctx, account)
		assert.Len(t, store.Subscriptions(account), 2, "fresh lowest-tier row after cancel")
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))

		r := newResolver(subs, tier.NewMemoryStore())
		assert.False(t, r.CancelSubscription(ctx, uuid.New()))
	})
}

func TestResolver_UpdateSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("upgrade reloads cache", func(t *testing.T) {
		t.Parallel()
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanStarter)

		require.True(t, r.UpdateSubscription(ctx, account, tier.PlanProfessional))
		assert.Equal(t, tier.PlanProfessional, r.CurrentPlan())
		assert.True(t, r.CanUseAPI())
		assert.Equal(t, tier.Unlimited, r.GetLimit(tier.LimitItinerariesPerMonth))
	})

	t.Run("plan change withdraws scheduled cancel", func(t *testing.T) {
		t.Parallel()
		clock := newTestClock(march)
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanProfessional, tier.WithClock(clock.Now))

		require.True(t, r.CancelSubscription(ctx, account))
		require.True(t, r.UpdateSubscription(ctx, account, tier.PlanEnterprise))

		sub := r.Subscription()
		require.NotNil(t, sub)
		assert.False(t, sub.CancelAtPeriodEnd)

		clock.Set(march.AddDate(0, 3, 0))
		assert.Equal(t, tier.PlanEnterprise, r.CurrentPlan())
	})

	t.Run("unknown plan rejected", func(t *testing.T) {
		t.Parallel()
		rec := &unknownRecorder{}
		store := tier.NewMemoryStore()
		r, account := seed(t, store, tier.PlanStarter, tier.WithUnknownKeyHook(rec.hook))

		assert.False(t, r.UpdateSubscription(ctx, account, "gold"))
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())
		assert.Contains(t, rec.kinds(), "plan")
	})

	t.Run("other account leaves cache alone", func(t *testing.T) {
		t.Parallel()
		store := tier.NewMemoryStore()
		r, _ := seed(t, store, tier.PlanStarter)
		_, other := seed(t, store, tier.PlanStarter)

		require.True(t, r.UpdateSubscription(ctx, other, tier.PlanEnterprise))
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan())

		latest, err := store.Latest(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, tier.PlanEnterprise, latest.Plan)
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()
		store := tier.NewMemoryStore()
		r := newResolver(store, store)
		assert.False(t, r.UpdateSubscription(ctx, uuid.New(), tier.PlanEnterprise))
	})

	t.Run("reload failure keeps previous state", func(t *testing.T) {
		t.Parallel()
		subs := &mockSubscriptionStore{}
		subs.On("Latest", mock.Anything, mock.Anything).Return(&tier.Subscription{
			Plan:   tier.PlanStarter,
			Status: tier.StatusActive,
		}, nil).Once()
		subs.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		subs.On("Latest", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		r := newResolver(subs, tier.NewMemoryStore())
		account := uuid.New()
		r.Initialize(ctx, account)

		assert.True(t, r.UpdateSubscription(ctx, account, tier.PlanEnterprise))
		assert.Equal(t, tier.PlanStarter, r.CurrentPlan(), "stale until next reload")
		assert.True(t, r.Initialized())
	})
}

func TestResolver_CanDowngrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := tier.NewMemoryStore()
	r, account := seed(t, store, tier.PlanProfessional)

	require.NoError(t, store.Upsert(ctx, &tier.UsageRecord{
		AccountID:          account,
		Month:              "2025-03",
		ItinerariesCreated: 5,
	}))
	assert.NoError(t, r.CanDowngrade(ctx, tier.PlanStarter))

	require.True(t, r.IncrementUsage(ctx, tier.UsageItineraries))
	assert.ErrorIs(t, r.CanDowngrade(ctx, tier.PlanStarter), tier.ErrDowngradeNotPossible)
	assert.NoError(t, r.CanDowngrade(ctx, tier.PlanEnterprise))
	assert.NoError(t, r.CanDowngrade(ctx, tier.PlanProfessional))
	assert.ErrorIs(t, r.CanDowngrade(ctx, "gold"), tier.ErrUnknownPlan)
}

func TestResolver_AtomicIncrementHoldsLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := tier.NewMemoryStore()
	r, account := seed(t, store, tier.PlanStarter, tier.WithAtomicIncrement())

	var granted atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.IncrementUsage(ctx, tier.UsagePDFDownloads) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted.Load())
	rec, err := store.Get(ctx, account, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.PDFDownloads)
}

func TestResolver_ConcurrentReadsAndReloads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := tier.NewMemoryStore()
	r, account := seed(t, store, tier.PlanStarter)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			plan := tier.PlanProfessional
			if i%2 == 0 {
				plan = tier.PlanEnterprise
			}
			r.UpdateSubscription(ctx, account, plan)
		}()
		go func() {
			defer wg.Done()
			_ = r.HasFeature(tier.FeatureAPIAccess)
			_ = r.GetLimit(tier.LimitClients)
			_ = r.Snapshot(ctx)
		}()
	}
	wg.Wait()

	assert.Contains(t, []tier.Plan{tier.PlanProfessional, tier.PlanEnterprise}, r.CurrentPlan())
}

func TestContext(t *testing.T) {
	t.Parallel()
	store := tier.NewMemoryStore()
	r := newResolver(store, store)

	_, ok := tier.FromContext(context.Background())
	assert.False(t, ok)

	got, ok := tier.FromContext(tier.WithResolver(context.Background(), r))
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = tier.FromContext(tier.WithResolver(context.Background(), nil))
	assert.False(t, ok)
}
