package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liqlens/liqlens/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. Book sides
// are stored as JSONB arrays of price levels.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// levelRow is the JSONB representation of one price level.
type levelRow struct {
	Price    int   `json:"price"`
	Quantity int64 `json:"quantity"`
}

func encodeSide(side domain.Side) ([]byte, error) {
	rows := make([]levelRow, len(side))
	for i, lvl := range side {
		rows[i] = levelRow{Price: lvl.Price, Quantity: lvl.Quantity}
	}
	return json.Marshal(rows)
}

func decodeSide(data []byte) (domain.Side, error) {
	var rows []levelRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	side := make(domain.Side, len(rows))
	for i, r := range rows {
		side[i] = domain.PriceLevel{Price: r.Price, Quantity: r.Quantity}
	}
	return side, nil
}

// Insert persists a single orderbook snapshot.
func (s *SnapshotStore) Insert(ctx context.Context, rec domain.SnapshotRecord) error {
	yes, err := encodeSide(rec.Book.YesBids)
	if err != nil {
		return fmt.Errorf("postgres: encode yes bids: %w", err)
	}
	no, err := encodeSide(rec.Book.NoBids)
	if err != nil {
		return fmt.Errorf("postgres: encode no bids: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO book_snapshots (id, market_id, yes_bids, no_bids, captured_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.MarketID, yes, no, rec.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert snapshot for %s: %w", rec.MarketID, err)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (domain.SnapshotRecord, error) {
	var rec domain.SnapshotRecord
	var yes, no []byte
	if err := row.Scan(&rec.ID, &rec.MarketID, &yes, &no, &rec.CapturedAt); err != nil {
		return domain.SnapshotRecord{}, err
	}

	yesBids, err := decodeSide(yes)
	if err != nil {
		return domain.SnapshotRecord{}, fmt.Errorf("decode yes bids: %w", err)
	}
	noBids, err := decodeSide(no)
	if err != nil {
		return domain.SnapshotRecord{}, fmt.Errorf("decode no bids: %w", err)
	}

	rec.Book = domain.Orderbook{
		YesBids:    yesBids,
		NoBids:     noBids,
		CapturedAt: rec.CapturedAt,
	}
	return rec, nil
}

const snapshotCols = `id, market_id, yes_bids, no_bids, captured_at`

// GetLatest returns the most recent snapshot for a market.
func (s *SnapshotStore) GetLatest(ctx context.Context, marketID string) (domain.SnapshotRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+snapshotCols+` FROM book_snapshots
		WHERE market_id = $1
		ORDER BY captured_at DESC
		LIMIT 1`, marketID)
	rec, err := scanSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.SnapshotRecord{}, domain.ErrNotFound
		}
		return domain.SnapshotRecord{}, fmt.Errorf("postgres: get latest snapshot for %s: %w", marketID, err)
	}
	return rec, nil
}

// ListByMarket returns snapshots for a market, newest first.
func (s *SnapshotStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.SnapshotRecord, error) {
	query := `SELECT ` + snapshotCols + ` FROM book_snapshots WHERE market_id = $1`
	args := []any{marketID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND captured_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND captured_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY captured_at DESC"

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
		return nil, fmt.Errorf("postgres: list snapshots for %s: %w", marketID, err)
	}
	defer rows.Close()

	var recs []domain.SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots rows: %w", err)
	}
	return recs, nil
}

// ListBefore returns all snapshots captured before the given time, oldest
// first. The archiver uses this to page cold data out to blob storage.
func (s *SnapshotStore) ListBefore(ctx context.Context, before time.Time) ([]domain.SnapshotRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotCols+` FROM book_snapshots
		WHERE captured_at < $1
		ORDER BY captured_at ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %s: %w", before, err)
	}
	defer rows.Close()

	var recs []domain.SnapshotRecord
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before rows: %w", err)
	}
	return recs, nil
}

// DeleteBefore removes snapshots captured before the given time and returns
// the number of rows deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM book_snapshots WHERE captured_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}
