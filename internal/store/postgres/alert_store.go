package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liqlens/liqlens/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates a new AlertStore backed by the given pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Insert persists a fired alert.
func (s *AlertStore) Insert(ctx context.Context, alert domain.Alert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO liquidity_alerts (id, market_id, kind, prev_grade, new_grade, message, fired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		alert.ID, alert.MarketID, string(alert.Kind),
		string(alert.PrevGrade), string(alert.NewGrade),
		alert.Message, alert.FiredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert alert for %s: %w", alert.MarketID, err)
	}
	return nil
}

const alertCols = `id, market_id, kind, prev_grade, new_grade, message, fired_at`

func scanAlert(row pgx.Row) (domain.Alert, error) {
	var a domain.Alert
	var kind, prevGrade, newGrade string
	err := row.Scan(&a.ID, &a.MarketID, &kind, &prevGrade, &newGrade, &a.Message, &a.FiredAt)
	if err != nil {
		return domain.Alert{}, err
	}
	a.Kind = domain.AlertKind(kind)
	a.PrevGrade = domain.LiquidityGrade(prevGrade)
	a.NewGrade = domain.LiquidityGrade(newGrade)
	return a, nil
}

// ListRecent returns the most recently fired alerts across all markets.
func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+alertCols+` FROM liquidity_alerts
		ORDER BY fired_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts rows: %w", err)
	}
	return alerts, nil
}

// ListByMarket returns alert history for a market, newest first.
func (s *AlertStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Alert, error) {
	query := `SELECT ` + alertCols + ` FROM liquidity_alerts WHERE market_id = $1`
	args := []any{marketID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND fired_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND fired_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY fired_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alerts for %s: %w", marketID, err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list alerts rows: %w", err)
	}
	return alerts, nil
}
