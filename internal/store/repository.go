// Package store persists imported trades, trade notes and generated audit
// reports in PostgreSQL. The engine itself never touches storage; callers
// serialize access to these mutable collaborators.
package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/dproquant/tradecheck/internal/engine"
)

// Repository handles trade and report persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository over an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			import_id TEXT NOT NULL,
			trade_time TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,
			net_pnl NUMERIC(20,2) NOT NULL,
			contracts INT NOT NULL DEFAULT 0,
			product_name TEXT NOT NULL DEFAULT '',
			open_trade_time TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_time ON trades (trade_time)`,
		`CREATE TABLE IF NOT EXISTS trade_notes (
			id BIGSERIAL PRIMARY KEY,
			trade_time TIMESTAMPTZ NOT NULL,
			note TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS audit_reports (
			id TEXT PRIMARY KEY,
			generated_at TIMESTAMPTZ NOT NULL,
			ruleset_version TEXT NOT NULL,
			scale TEXT NOT NULL,
			report JSONB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// NewID returns a fresh ULID for import batches and stored reports.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// SaveTrades inserts an import batch and returns its id.
func (r *Repository) SaveTrades(ctx context.Context, trades []engine.Trade) (string, error) {
	importID := NewID()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, `
			INSERT INTO trades (import_id, trade_time, action, net_pnl, contracts, product_name)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			importID, t.Timestamp, t.Action, t.NetPnL, t.Contracts, t.ProductName,
		)
		if err != nil {
			return "", fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return importID, nil
}

// ListTrades returns all stored trades ordered by time ascending.
func (r *Repository) ListTrades(ctx context.Context) ([]engine.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT trade_time, action, net_pnl, contracts, product_name
		FROM trades ORDER BY trade_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []engine.Trade
	for rows.Next() {
		var t engine.Trade
		var pnl decimal.Decimal
		if err := rows.Scan(&t.Timestamp, &t.Action, &pnl, &t.Contracts, &t.ProductName); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.NetPnL = pnl
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveReport stores a serialized audit report and returns its id.
func (r *Repository) SaveReport(ctx context.Context, report *engine.Report) (string, error) {
	id := NewID()
	payload, err := report.ToJSON()
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_reports (id, generated_at, ruleset_version, scale, report)
		VALUES ($1, $2, $3, $4, $5)`,
		id, report.GeneratedAt, report.RulesetVersion, report.Account.Scale, payload,
	)
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return id, nil
}

// ReportSummary is a stored-report listing row.
type ReportSummary struct {
	ID             string    `json:"id"`
	GeneratedAt    time.Time `json:"generated_at"`
	RulesetVersion string    `json:"ruleset_version"`
	Scale          string    `json:"scale"`
}

// ListReports returns stored report summaries, newest first.
func (r *Repository) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, generated_at, ruleset_version, scale
		FROM audit_reports ORDER BY generated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var summaries []ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.ID, &s.GeneratedAt, &s.RulesetVersion, &s.Scale); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetReport returns the raw JSON payload of one stored report.
func (r *Repository) GetReport(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT report FROM audit_reports WHERE id = $1`, id).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("report %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return payload, nil
}
