// Package redisstore keeps monthly usage counters in Redis hashes, one hash
// per account and month.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tripcraft/tierkit/pkg/tier"
)

const defaultKeyPrefix = "tier"

// guardedIncrScript increments a hash field only while it is below the limit
// passed in ARGV[2]; a negative limit means unlimited. Returns the new value
// or -1 when the limit is reached.
var guardedIncrScript = redis.NewScript(`
local limit = tonumber(ARGV[2])
local current = tonumber(redis.call("HGET", KEYS[1], ARGV[1]) or "0")
if limit >= 0 and current >= limit then
  return -1
end
local value = redis.call("HINCRBY", KEYS[1], ARGV[1], 1)
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[1], ttl)
end
return value
`)

var usageFields = map[tier.UsageKind]string{
	tier.UsageItineraries:  "itineraries_created",
	tier.UsagePDFDownloads: "pdf_downloads",
	tier.UsageAPICalls:     "api_calls",
}

// Store implements tier.UsageStore and tier.ConditionalIncrementer.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var (
	_ tier.UsageStore             = (*Store)(nil)
	_ tier.ConditionalIncrementer = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces every key. Empty keeps the default.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

// WithTTL sets the expiry refreshed on every write. Zero keeps keys forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// New returns a Store over client. Panics if client is nil.
func New(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: client is required")
	}
	s := &Store{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(account uuid.UUID, month string) string {
	return s.prefix + ":usage:" + account.String() + ":" + month
}

// Get returns the usage hash for (account, month).
func (s *Store) Get(ctx context.Context, account uuid.UUID, month string) (*tier.UsageRecord, error) {
	vals, err := s.client.HGetAll(ctx, s.key(account, month)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get usage: %w", err)
	}
	if len(vals) == 0 {
		return nil, tier.ErrUsageNotFound
	}

	rec := &tier.UsageRecord{AccountID: account, Month: month}
	for kind, field := range usageFields {
		raw, ok := vals[field]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redisstore: field %s: %w", field, err)
		}
		switch kind {
		case tier.UsageItineraries:
			rec.ItinerariesCreated = n
		case tier.UsagePDFDownloads:
			rec.PDFDownloads = n
		case tier.UsageAPICalls:
			rec.APICalls = n
		}
	}
	return rec, nil
}

// Upsert overwrites every counter of the record.
func (s *Store) Upsert(ctx context.Context, rec *tier.UsageRecord) error {
	key := s.key(rec.AccountID, rec.Month)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			usageFields[tier.UsageItineraries], rec.ItinerariesCreated,
			usageFields[tier.UsagePDFDownloads], rec.PDFDownloads,
			usageFields[tier.UsageAPICalls], rec.APICalls,
		)
		if s.ttl > 0 {
			p.PExpire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: upsert usage: %w", err)
	}
	return nil
}

// IncrementIfBelow runs the check and the increment in one Lua script.
func (s *Store) IncrementIfBelow(ctx context.Context, account uuid.UUID, month string, kind tier.UsageKind, limit int64) (bool, error) {
	field, ok := usageFields[kind]
	if !ok {
		return false, tier.ErrUnknownUsageKind
	}

	res, err := guardedIncrScript.Run(ctx, s.client,
		[]string{s.key(account, month)},
		field, limit, s.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redisstore: increment usage: %w", err)
	}
	return res >= 0, nil
}

// Reset deletes the usage hash of (account, month).
func (s *Store) Reset(ctx context.Context, account uuid.UUID, month string) error {
	if err := s.client.Del(ctx, s.key(account, month)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: reset usage: %w", err)
	}
	return nil
}
