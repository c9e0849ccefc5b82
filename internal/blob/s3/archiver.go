package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// archiveContentType is the MIME type of the JSONL archive files.
const archiveContentType = "application/x-ndjson"

// archivePrefix is the key prefix every archive object lives under.
const archivePrefix = "archive/"

// multipartCutoff is the payload size above which uploads go through the
// multipart manager instead of a single PutObject.
const multipartCutoff = 8 << 20

// Archiver implements domain.Archiver by querying the stores for records
// older than the cutoff, serializing them to JSONL, uploading the file to
// object storage, and then deleting the archived rows from the database.
//
// Rows are deleted only after the uploaded object has been read back and its
// size verified, so a failed or corrupted upload leaves the database
// untouched and the next archive run retries the same rows.
type Archiver struct {
	writer    domain.BlobWriter
	reader    domain.BlobReader
	snapshots domain.SnapshotStore
	scores    domain.ScoreStore
	logger    *slog.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(
	writer domain.BlobWriter,
	reader domain.BlobReader,
	snapshots domain.SnapshotStore,
	scores domain.ScoreStore,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		writer:    writer,
		reader:    reader,
		snapshots: snapshots,
		scores:    scores,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// snapshotRow is the JSONL representation of one archived snapshot.
type snapshotRow struct {
	ID         string     `json:"id"`
	MarketID   string     `json:"market_id"`
	YesBids    []levelRow `json:"yes_bids"`
	NoBids     []levelRow `json:"no_bids"`
	CapturedAt time.Time  `json:"captured_at"`
}

// scoreRow is the JSONL representation of one archived score.
type scoreRow struct {
	ID                string    `json:"id"`
	MarketID          string    `json:"market_id"`
	Value             int       `json:"value"`
	Grade             string    `json:"grade"`
	SpreadScore       float64   `json:"spread_score"`
	DepthScore        float64   `json:"depth_score"`
	VolumeScore       float64   `json:"volume_score"`
	OpenInterestScore float64   `json:"open_interest_score"`
	SpreadCents       int       `json:"spread_cents"`
	MidpointCents     float64   `json:"midpoint_cents"`
	HasQuote          bool      `json:"has_quote"`
	RawDepth          float64   `json:"raw_depth"`
	CreatedAt         time.Time `json:"created_at"`
}

// levelRow is the JSONL representation of one price level.
type levelRow struct {
	Price    int   `json:"price"`
	Quantity int64 `json:"quantity"`
}

func toLevelRows(side domain.Side) []levelRow {
	rows := make([]levelRow, len(side))
	for i, lvl := range side {
		rows[i] = levelRow{Price: lvl.Price, Quantity: lvl.Quantity}
	}
	return rows
}

// ArchiveSnapshots moves orderbook snapshots captured before the cutoff to
// object storage and returns the number of records archived.
func (a *Archiver) ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.snapshots.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([]snapshotRow, len(recs))
	newest := recs[0].CapturedAt
	for i, rec := range recs {
		rows[i] = snapshotRow{
			ID:         rec.ID,
			MarketID:   rec.MarketID,
			YesBids:    toLevelRows(rec.Book.YesBids),
			NoBids:     toLevelRows(rec.Book.NoBids),
			CapturedAt: rec.CapturedAt,
		}
		if rec.CapturedAt.After(newest) {
			newest = rec.CapturedAt
		}
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
	}

	path := archivePath("snapshots", newest)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots: %w", err)
	}

	deleted, err := a.snapshots.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(recs)), fmt.Errorf("s3blob: archive snapshots delete: %w", err)
	}

	a.logger.Info("archived snapshots",
		slog.String("path", path),
		slog.Int("archived", len(recs)),
		slog.Int64("deleted", deleted))
	return int64(len(recs)), nil
}

// ArchiveScores moves score records created before the cutoff to object
// storage and returns the number of records archived.
func (a *Archiver) ArchiveScores(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.scores.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive scores query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([]scoreRow, len(recs))
	newest := recs[0].CreatedAt
	for i, rec := range recs {
		rows[i] = scoreRow{
			ID:                rec.ID,
			MarketID:          rec.MarketID,
			Value:             rec.Score.Value,
			Grade:             string(rec.Score.Grade),
			SpreadScore:       rec.Score.SpreadScore,
			DepthScore:        rec.Score.DepthScore,
			VolumeScore:       rec.Score.VolumeScore,
			OpenInterestScore: rec.Score.OpenInterestScore,
			SpreadCents:       rec.Spread,
			MidpointCents:     rec.Midpoint,
			HasQuote:          rec.HasQuote,
			RawDepth:          rec.RawDepth,
			CreatedAt:         rec.CreatedAt,
		}
		if rec.CreatedAt.After(newest) {
			newest = rec.CreatedAt
		}
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive scores marshal: %w", err)
	}

	path := archivePath("scores", newest)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive scores: %w", err)
	}

	deleted, err := a.scores.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(recs)), fmt.Errorf("s3blob: archive scores delete: %w", err)
	}

	a.logger.Info("archived scores",
		slog.String("path", path),
		slog.Int("archived", len(recs)),
		slog.Int64("deleted", deleted))
	return int64(len(recs)), nil
}

// Inventory reports how many archive objects exist and their combined size.
func (a *Archiver) Inventory(ctx context.Context) (domain.ArchiveInventory, error) {
	infos, err := a.reader.List(ctx, archivePrefix)
	if err != nil {
		return domain.ArchiveInventory{}, fmt.Errorf("s3blob: archive inventory: %w", err)
	}

	inv := domain.ArchiveInventory{Objects: len(infos)}
	for _, info := range infos {
		inv.Bytes += info.Size
	}
	return inv, nil
}

// upload writes buf to path and verifies the stored object before the caller
// deletes the source rows. A run that uploaded but crashed before deleting
// leaves the object behind; since the same rows regenerate the same key, the
// retry detects it and skips straight to verification.
func (a *Archiver) upload(ctx context.Context, path string, buf []byte) error {
	exists, err := a.reader.Exists(ctx, path)
	if err != nil {
		a.logger.Warn("archive presence check failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		exists = false
	}

	if exists {
		a.logger.Info("archive object already present, skipping upload",
			slog.String("path", path))
	} else if int64(len(buf)) >= multipartCutoff {
		if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), multipartCutoff); err != nil {
			return fmt.Errorf("multipart upload %s: %w", path, err)
		}
	} else if err := a.writer.Put(ctx, path, bytes.NewReader(buf), archiveContentType); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	if err := a.verify(ctx, path, int64(len(buf))); err != nil {
		// Remove the bad object so only verified archives survive.
		if delErr := a.reader.Delete(ctx, path); delErr != nil {
			a.logger.Warn("cleanup of unverified archive failed",
				slog.String("path", path),
				slog.String("error", delErr.Error()))
		}
		return err
	}
	return nil
}

// verify reads the stored object back and compares its size to the payload.
func (a *Archiver) verify(ctx context.Context, path string, want int64) error {
	body, err := a.reader.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	defer body.Close()

	got, err := io.Copy(io.Discard, body)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if got != want {
		return fmt.Errorf("verify %s: stored %d bytes, want %d", path, got, want)
	}
	return nil
}

// archivePath builds the object key for an archive file. Keys carry the
// timestamp of the newest archived record, so a retry over the same rows
// reuses the key while distinct batches never collide.
//
//	archive/snapshots/2026-08-28T06-00-00.jsonl
func archivePath(kind string, newest time.Time) string {
	return fmt.Sprintf("%s%s/%s.jsonl", archivePrefix, kind, newest.UTC().Format("2006-01-02T15-04-05"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
