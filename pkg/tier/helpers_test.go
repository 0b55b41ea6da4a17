package tier_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripcraft/tierkit/pkg/tier"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var march = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newResolver(subs tier.SubscriptionStore, usage tier.UsageStore, opts ...tier.Option) *tier.Resolver {
	base := []tier.Option{
		tier.WithClock(func() time.Time { return march }),
		tier.WithLocation(time.UTC),
	}
	return tier.NewResolver(tier.DefaultCatalog(), subs, usage, append(base, opts...)...)
}

// seed stores an active subscription on plan p and returns an initialized
// resolver for it.
func seed(t *testing.T, store *tier.MemoryStore, p tier.Plan, opts ...tier.Option) (*tier.Resolver, uuid.UUID) {
	t.Helper()
	account := uuid.New()
	require.NoError(t, store.Create(context.Background(), &tier.Subscription{
		AccountID:          account,
		Plan:               p,
		Status:             tier.StatusActive,
		CurrentPeriodStart: march,
		CurrentPeriodEnd:   march.AddDate(0, 1, 0),
		CreatedAt:          march,
		UpdatedAt:          march,
	}))
	r := newResolver(store, store, opts...)
	r.Initialize(context.Background(), account)
	require.True(t, r.Initialized())
	return r, account
}

type unknownRecorder struct {
	mu   sync.Mutex
	keys []tier.UnknownKey
}

func (u *unknownRecorder) hook(k tier.UnknownKey) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, k)
}

func (u *unknownRecorder) kinds() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.keys))
	for _, k := range u.keys {
		out = append(out, k.Kind)
	}
	return out
}

type mockSubscriptionStore struct {
	mock.Mock
}

func (m *mockSubscriptionStore) Latest(ctx context.Context, account uuid.UUID) (*tier.Subscription, error) {
	args := m.Called(ctx, account)
	sub, _ := args.Get(0).(*tier.Subscription)
	return sub, args.Error(1)
}

func (m *mockSubscriptionStore) Create(ctx context.Context, sub *tier.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionStore) Update(ctx context.Context, account uuid.UUID, upd tier.SubscriptionUpdate) error {
	return m.Called(ctx, account, upd).Error(0)
}

type mockUsageStore struct {
	mock.Mock
}

func (m *mockUsageStore) Get(ctx context.Context, account uuid.UUID, month string) (*tier.UsageRecord, error) {
	args := m.Called(ctx, account, month)
	rec, _ := args.Get(0).(*tier.UsageRecord)
	return rec, args.Error(1)
}

func (m *mockUsageStore) Upsert(ctx context.Context, rec *tier.UsageRecord) error {
	return m.Called(ctx, rec).Error(0)
}
