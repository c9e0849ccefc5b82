package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liqlens/liqlens/internal/domain"
)

// ScoreStore implements domain.ScoreStore using PostgreSQL.
type ScoreStore struct {
	pool *pgxpool.Pool
}

// NewScoreStore creates a new ScoreStore backed by the given pool.
func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

// Insert persists one point of a market's score time series.
func (s *ScoreStore) Insert(ctx context.Context, rec domain.ScoreRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO liquidity_scores (
			id, market_id, value, grade,
			spread_score, depth_score, volume_score, open_interest_score,
			spread_cents, midpoint_cents, has_quote, raw_depth, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13
		)`,
		rec.ID, rec.MarketID, rec.Score.Value, string(rec.Score.Grade),
		rec.Score.SpreadScore, rec.Score.DepthScore, rec.Score.VolumeScore, rec.Score.OpenInterestScore,
		rec.Spread, rec.Midpoint, rec.HasQuote, rec.RawDepth, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert score for %s: %w", rec.MarketID, err)
	}
	return nil
}

const scoreCols = `id, market_id, value, grade,
	spread_score, depth_score, volume_score, open_interest_score,
	spread_cents, midpoint_cents, has_quote, raw_depth, created_at`

func scanScore(row pgx.Row) (domain.ScoreRecord, error) {
	var rec domain.ScoreRecord
	var grade string
	err := row.Scan(
		&rec.ID, &rec.MarketID, &rec.Score.Value, &grade,
		&rec.Score.SpreadScore, &rec.Score.DepthScore, &rec.Score.VolumeScore, &rec.Score.OpenInterestScore,
		&rec.Spread, &rec.Midpoint, &rec.HasQuote, &rec.RawDepth, &rec.CreatedAt,
	)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	rec.Score.Grade = domain.LiquidityGrade(grade)
	return rec, nil
}

// GetLatest returns the most recent score for a market.
func (s *ScoreStore) GetLatest(ctx context.Context, marketID string) (domain.ScoreRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+scoreCols+` FROM liquidity_scores
		WHERE market_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, marketID)
	rec, err := scanScore(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ScoreRecord{}, domain.ErrNotFound
		}
		return domain.ScoreRecord{}, fmt.Errorf("postgres: get latest score for %s: %w", marketID, err)
	}
	return rec, nil
}

// ListByMarket returns score history for a market, newest first.
func (s *ScoreStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.ScoreRecord, error) {
	query := `SELECT ` + scoreCols + ` FROM liquidity_scores WHERE market_id = $1`
	args := []any{marketID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

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
		return nil, fmt.Errorf("postgres: list scores for %s: %w", marketID, err)
	}
	defer rows.Close()

	var recs []domain.ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan score: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list scores rows: %w", err)
	}
	return recs, nil
}

// ListBefore returns all scores recorded before the given time, oldest first.
func (s *ScoreStore) ListBefore(ctx context.Context, before time.Time) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scoreCols+` FROM liquidity_scores
		WHERE created_at < $1
		ORDER BY created_at ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scores before %s: %w", before, err)
	}
	defer rows.Close()

	var recs []domain.ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan score: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list scores before rows: %w", err)
	}
	return recs, nil
}

// DeleteBefore removes scores recorded before the given time and returns the
// number of rows deleted.
func (s *ScoreStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM liquidity_scores WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete scores before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}
