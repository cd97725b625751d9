package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sniper/internal/domain"
)

// PostgresStore handles interactions with the tracking-target registry.
// The rows are owned by the external CRUD layer; this store only reads the
// tracking batch and writes back check results.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to the registry database and verifies the
// connection. The registry being unreachable is fatal to a run, so the
// ping happens here rather than lazily.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// migrate ensures the registry table exists for local runs. Production
// deployments own this schema through the CRUD layer's migrations.
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracking_targets (
		id            TEXT PRIMARY KEY,
		locator       TEXT,
		display_name  TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'tracking',
		current_price NUMERIC,
		stock_status  TEXT,
		last_checked  TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_tracking_targets_status ON tracking_targets (status);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// LoadTrackingTargets returns the current batch of actively tracked
// targets. An empty batch is a valid result, not an error.
func (s *PostgresStore) LoadTrackingTargets(ctx context.Context) ([]domain.TrackedTarget, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, locator, display_name FROM tracking_targets
		 WHERE status = 'tracking' AND locator IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying tracking targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.TrackedTarget
	for rows.Next() {
		var t domain.TrackedTarget
		if err := rows.Scan(&t.ID, &t.Locator, &t.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning tracking target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// UpdateListing writes an extracted price back to the registry row. The
// stock status column is left untouched when availability did not resolve,
// so an unknown never overwrites a previously known status.
func (s *PostgresStore) UpdateListing(ctx context.Context, id string, upd domain.ListingUpdate) error {
	query, args := listingUpdateQuery(id, upd)

	ct, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating listing %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("updating listing %s: row not found", id)
	}
	return nil
}

// listingUpdateQuery builds the reconcile UPDATE. Unresolved availability
// omits the stock_status column entirely.
func listingUpdateQuery(id string, upd domain.ListingUpdate) (string, []any) {
	if upd.Stock == domain.Unknown {
		return `UPDATE tracking_targets SET current_price = $1, last_checked = $2 WHERE id = $3`,
			[]any{upd.Price, upd.CheckedAt, id}
	}
	return `UPDATE tracking_targets SET current_price = $1, last_checked = $2, stock_status = $4 WHERE id = $3`,
		[]any{upd.Price, upd.CheckedAt, id, string(upd.Stock)}
}
