// Package pgstore implements the tier subscription and usage ports on
// PostgreSQL through pgx.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripcraft/tierkit/pkg/pg"
	"github.com/tripcraft/tierkit/pkg/tier"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the goose migrations creating the subscriptions and
// usage_tracking tables.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements tier.SubscriptionStore, tier.UsageStore and
// tier.ConditionalIncrementer.
type Store struct {
	db DB
}

var (
	_ tier.SubscriptionStore      = (*Store)(nil)
	_ tier.UsageStore             = (*Store)(nil)
	_ tier.ConditionalIncrementer = (*Store)(nil)
)

// New returns a Store over db. Panics if db is nil.
func New(db DB) *Store {
	if db == nil {
		panic("pgstore: DB is required")
	}
	return &Store{db: db}
}

const latestSubscriptionQuery = `
	SELECT account_id, plan_type, status, current_period_start, current_period_end,
	       cancel_at_period_end, created_at, updated_at
	FROM subscriptions
	WHERE account_id = $1 AND status <> 'canceled'
	ORDER BY created_at DESC, id DESC
	LIMIT 1`

// Latest returns the newest subscription that is not canceled.
func (s *Store) Latest(ctx context.Context, account uuid.UUID) (*tier.Subscription, error) {
	var (
		sub          tier.Subscription
		plan, status string
	)
	err := s.db.QueryRow(ctx, latestSubscriptionQuery, account).Scan(
		&sub.AccountID,
		&plan,
		&status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tier.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("pgstore: latest subscription: %w", err)
	}
	sub.Plan = tier.Plan(plan)
	sub.Status = tier.Status(status)
	return &sub, nil
}

// Create inserts a subscription row.
func (s *Store) Create(ctx context.Context, sub *tier.Subscription) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO subscriptions (account_id, plan_type, status, current_period_start,
		                           current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.AccountID,
		string(sub.Plan),
		string(sub.Status),
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return tier.ErrSubscriptionExists
		}
		return fmt.Errorf("pgstore: create subscription: %w", err)
	}
	return nil
}

// Update modifies the newest non-canceled row of the account. NULL
// parameters keep the stored value.
func (s *Store) Update(ctx context.Context, account uuid.UUID, upd tier.SubscriptionUpdate) error {
	var plan, status *string
	if upd.Plan != nil {
		v := string(*upd.Plan)
		plan = &v
	}
	if upd.Status != nil {
		v := string(*upd.Status)
		status = &v
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE subscriptions
		SET plan_type            = COALESCE($2, plan_type),
		    status               = COALESCE($3, status),
		    cancel_at_period_end = COALESCE($4, cancel_at_period_end),
		    updated_at           = COALESCE($5, NOW())
		WHERE id = (
			SELECT id FROM subscriptions
			WHERE account_id = $1 AND status <> 'canceled'
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)`,
		account, plan, status, upd.CancelAtPeriodEnd, nullTime(upd),
	)
	if err != nil {
		return fmt.Errorf("pgstore: update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tier.ErrSubscriptionNotFound
	}
	return nil
}

func nullTime(upd tier.SubscriptionUpdate) any {
	if upd.UpdatedAt.IsZero() {
		return nil
	}
	return upd.UpdatedAt
}

// Get returns the usage row for (account, month).
func (s *Store) Get(ctx context.Context, account uuid.UUID, month string) (*tier.UsageRecord, error) {
	rec := tier.UsageRecord{AccountID: account, Month: month}
	err := s.db.QueryRow(ctx, `
		SELECT itineraries_created, pdf_downloads, api_calls
		FROM usage_tracking
		WHERE account_id = $1 AND month = $2`,
		account, month,
	).Scan(&rec.ItinerariesCreated, &rec.PDFDownloads, &rec.APICalls)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tier.ErrUsageNotFound
		}
		return nil, fmt.Errorf("pgstore: get usage: %w", err)
	}
	return &rec, nil
}

// Upsert writes all counters, overwriting the row with the same (account, month).
func (s *Store) Upsert(ctx context.Context, rec *tier.UsageRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO usage_tracking (account_id, month, itineraries_created, pdf_downloads, api_calls)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, month) DO UPDATE SET
			itineraries_created = EXCLUDED.itineraries_created,
			pdf_downloads       = EXCLUDED.pdf_downloads,
			api_calls           = EXCLUDED.api_calls,
			updated_at          = NOW()`,
		rec.AccountID, rec.Month, rec.ItinerariesCreated, rec.PDFDownloads, rec.APICalls,
	)
	if err != nil {
		return fmt.Errorf("pgstore: upsert usage: %w", err)
	}
	return nil
}

var usageColumns = map[tier.UsageKind]string{
	tier.UsageItineraries:  "itineraries_created",
	tier.UsagePDFDownloads: "pdf_downloads",
	tier.UsageAPICalls:     "api_calls",
}

// IncrementIfBelow increments the counter in one statement guarded by the
// limit. The conflict branch only fires while the stored value is below the
// limit, so concurrent callers cannot overshoot it.
func (s *Store) IncrementIfBelow(ctx context.Context, account uuid.UUID, month string, kind tier.UsageKind, limit int64) (bool, error) {
	col, ok := usageColumns[kind]
	if !ok {
		return false, tier.ErrUnknownUsageKind
	}
	if limit == 0 {
		return false, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO usage_tracking (account_id, month, %[1]s)
		VALUES ($1, $2, 1)
		ON CONFLICT (account_id, month) DO UPDATE SET
			%[1]s      = usage_tracking.%[1]s + 1,
			updated_at = NOW()
		WHERE $3::bigint = -1 OR usage_tracking.%[1]s < $3::bigint
		RETURNING %[1]s`, col)

	var value int64
	err := s.db.QueryRow(ctx, query, account, month, limit).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pgstore: increment usage: %w", err)
	}
	return true, nil
}
