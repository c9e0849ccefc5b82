package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// fakeBlobStore backs both the writer and reader interfaces with one object
// map, so a verify read sees what an upload wrote.
type fakeBlobStore struct {
	objects    map[string][]byte
	puts       int
	multiparts int
	deleted    []string
	corrupt    bool // serve truncated bodies from Get
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[path] = b
	f.puts++
	return nil
}

func (f *fakeBlobStore) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[path] = b
	f.multiparts++
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := f.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if f.corrupt && len(b) > 0 {
		b = b[:len(b)-1]
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobStore) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, b := range f.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(b))})
		}
	}
	return infos, nil
}

func (f *fakeBlobStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.objects[path]
	return ok, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, path string) error {
	delete(f.objects, path)
	f.deleted = append(f.deleted, path)
	return nil
}

type fakeSnapshotSource struct {
	recs    []domain.SnapshotRecord
	deletes int
}

func (f *fakeSnapshotSource) Insert(context.Context, domain.SnapshotRecord) error { return nil }

func (f *fakeSnapshotSource) GetLatest(context.Context, string) (domain.SnapshotRecord, error) {
	return domain.SnapshotRecord{}, domain.ErrNotFound
}

func (f *fakeSnapshotSource) ListByMarket(context.Context, string, domain.ListOpts) ([]domain.SnapshotRecord, error) {
	return nil, nil
}

func (f *fakeSnapshotSource) ListBefore(context.Context, time.Time) ([]domain.SnapshotRecord, error) {
	return f.recs, nil
}

func (f *fakeSnapshotSource) DeleteBefore(context.Context, time.Time) (int64, error) {
	f.deletes++
	return int64(len(f.recs)), nil
}

type fakeScoreSource struct {
	recs      []domain.ScoreRecord
	deleteErr error
	deletes   int
}

func (f *fakeScoreSource) Insert(context.Context, domain.ScoreRecord) error { return nil }

func (f *fakeScoreSource) GetLatest(context.Context, string) (domain.ScoreRecord, error) {
	return domain.ScoreRecord{}, domain.ErrNotFound
}

func (f *fakeScoreSource) ListByMarket(context.Context, string, domain.ListOpts) ([]domain.ScoreRecord, error) {
	return nil, nil
}

func (f *fakeScoreSource) ListBefore(context.Context, time.Time) ([]domain.ScoreRecord, error) {
	return f.recs, nil
}

func (f *fakeScoreSource) DeleteBefore(context.Context, time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deletes++
	return int64(len(f.recs)), nil
}

func archiveLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshotRecs(n int) []domain.SnapshotRecord {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recs := make([]domain.SnapshotRecord, n)
	for i := range recs {
		recs[i] = domain.SnapshotRecord{
			ID:         "snap-" + strings.Repeat("a", i+1),
			MarketID:   "m1",
			CapturedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return recs
}

func TestArchiveSnapshotsUploadsThenDeletes(t *testing.T) {
	blob := newFakeBlobStore()
	snaps := &fakeSnapshotSource{recs: testSnapshotRecs(2)}
	a := NewArchiver(blob, blob, snaps, &fakeScoreSource{}, archiveLogger())

	n, err := a.ArchiveSnapshots(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchiveSnapshots: %v", err)
	}
	if n != 2 {
		t.Errorf("archived = %d, want 2", n)
	}
	if blob.puts != 1 {
		t.Errorf("puts = %d, want 1", blob.puts)
	}
	if snaps.deletes != 1 {
		t.Errorf("row deletes = %d, want 1", snaps.deletes)
	}
	for path := range blob.objects {
		if !strings.HasPrefix(path, "archive/snapshots/") {
			t.Errorf("object key %q outside the snapshots prefix", path)
		}
	}
}

func TestArchiveRetryReusesUploadedObject(t *testing.T) {
	blob := newFakeBlobStore()
	scores := &fakeScoreSource{
		recs: []domain.ScoreRecord{{
			ID:        "s1",
			MarketID:  "m1",
			Score:     domain.LiquidityScore{Value: 40},
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}},
		deleteErr: errors.New("pg down"),
	}
	a := NewArchiver(blob, blob, &fakeSnapshotSource{}, scores, archiveLogger())
	ctx := context.Background()

	// Upload succeeds, deleting the rows does not.
	if _, err := a.ArchiveScores(ctx, time.Now()); err == nil {
		t.Fatal("expected error when row delete fails")
	}
	if blob.puts != 1 {
		t.Fatalf("puts = %d, want 1", blob.puts)
	}

	// The retry finds the same key already uploaded and skips the put.
	scores.deleteErr = nil
	if _, err := a.ArchiveScores(ctx, time.Now()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if blob.puts != 1 {
		t.Errorf("puts = %d after retry, want 1", blob.puts)
	}
	if scores.deletes != 1 {
		t.Errorf("row deletes = %d, want 1", scores.deletes)
	}
}

func TestArchiveVerifyFailureKeepsRows(t *testing.T) {
	blob := newFakeBlobStore()
	blob.corrupt = true
	snaps := &fakeSnapshotSource{recs: testSnapshotRecs(1)}
	a := NewArchiver(blob, blob, snaps, &fakeScoreSource{}, archiveLogger())

	if _, err := a.ArchiveSnapshots(context.Background(), time.Now()); err == nil {
		t.Fatal("expected verification error for a corrupted object")
	}
	if snaps.deletes != 0 {
		t.Errorf("row deletes = %d, want 0 when verification fails", snaps.deletes)
	}
	if len(blob.deleted) != 1 {
		t.Errorf("unverified object should be removed, deletes = %v", blob.deleted)
	}
}

func TestUploadSwitchesToMultipart(t *testing.T) {
	blob := newFakeBlobStore()
	a := NewArchiver(blob, blob, &fakeSnapshotSource{}, &fakeScoreSource{}, archiveLogger())

	buf := bytes.Repeat([]byte("x"), multipartCutoff)
	if err := a.upload(context.Background(), "archive/snapshots/big.jsonl", buf); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if blob.multiparts != 1 || blob.puts != 0 {
		t.Errorf("multiparts/puts = %d/%d, want 1/0", blob.multiparts, blob.puts)
	}
}

func TestInventory(t *testing.T) {
	blob := newFakeBlobStore()
	blob.objects["archive/snapshots/a.jsonl"] = []byte("abc")
	blob.objects["archive/scores/b.jsonl"] = []byte("defgh")
	blob.objects["other/c.txt"] = []byte("zz")
	a := NewArchiver(blob, blob, &fakeSnapshotSource{}, &fakeScoreSource{}, archiveLogger())

	inv, err := a.Inventory(context.Background())
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if inv.Objects != 2 || inv.Bytes != 8 {
		t.Errorf("inventory = %+v, want 2 objects / 8 bytes", inv)
	}
}
