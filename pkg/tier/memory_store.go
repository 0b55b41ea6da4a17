package tier

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps subscriptions and usage in process memory. It implements
// SubscriptionStore, UsageStore and ConditionalIncrementer and is meant for
// development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	subs  map[uuid.UUID][]Subscription
	usage map[usageKey]UsageRecord
}

type usageKey struct {
	account uuid.UUID
	month   string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs:  make(map[uuid.UUID][]Subscription),
		usage: make(map[usageKey]UsageRecord),
	}
}

// latestIndex returns the index of the newest non-canceled row. Must be called with lock held.
func (s *MemoryStore) latestIndex(account uuid.UUID) int {
	rows := s.subs[account]
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Status != StatusCanceled {
			return i
		}
	}
	return -1
}

// Latest returns the newest subscription that is not canceled.
func (s *MemoryStore) Latest(_ context.Context, account uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.latestIndex(account)
	if i < 0 {
		return nil, ErrSubscriptionNotFound
	}
	sub := s.subs[account][i]
	return &sub, nil
}

// Create appends a subscription row.
func (s *MemoryStore) Create(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.AccountID] = append(s.subs[sub.AccountID], *sub)
	return nil
}

// Update modifies the newest non-canceled row of the account.
func (s *MemoryStore) Update(_ context.Context, account uuid.UUID, upd SubscriptionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.latestIndex(account)
	if i < 0 {
		return ErrSubscriptionNotFound
	}
	row := &s.subs[account][i]
	if upd.Plan != nil {
		row.Plan = *upd.Plan
	}
	if upd.Status != nil {
		row.Status = *upd.Status
	}
	if upd.CancelAtPeriodEnd != nil {
		row.CancelAtPeriodEnd = *upd.CancelAtPeriodEnd
	}
	if !upd.UpdatedAt.IsZero() {
		row.UpdatedAt = upd.UpdatedAt
	}
	return nil
}

// Subscriptions returns every row stored for the account, oldest first.
func (s *MemoryStore) Subscriptions(account uuid.UUID) []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Subscription(nil), s.subs[account]...)
}

// Get returns the usage record for the month.
func (s *MemoryStore) Get(_ context.Context, account uuid.UUID, month string) (*UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.usage[usageKey{account, month}]
	if !ok {
		return nil, ErrUsageNotFound
	}
	return &rec, nil
}

// Upsert overwrites the record keyed by (account, month).
func (s *MemoryStore) Upsert(_ context.Context, rec *UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[usageKey{rec.AccountID, rec.Month}] = *rec
	return nil
}

// IncrementIfBelow checks and increments under one lock.
func (s *MemoryStore) IncrementIfBelow(_ context.Context, account uuid.UUID, month string, kind UsageKind, limit int64) (bool, error) {
	if !kind.Valid() {
		return false, ErrUnknownUsageKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{account, month}
	rec, ok := s.usage[key]
	if !ok {
		rec = UsageRecord{AccountID: account, Month: month}
	}
	if limit != Unlimited && rec.Count(kind) >= limit {
		return false, nil
	}
	s.usage[key] = rec.withIncrement(kind)
	return true, nil
}
