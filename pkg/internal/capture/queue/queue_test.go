package queue_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeisme/creativevault/pkg/internal/capture/queue"
)

func openQueue(t *testing.T, path string) *queue.Queue {
	t.Helper()

	q, err := queue.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}

	t.Cleanup(func() { _ = q.Close() })

	return q
}

func enqueue(t *testing.T, q *queue.Queue, landing string, at time.Time) uint {
	t.Helper()

	id, err := q.Enqueue(context.Background(), &queue.Artifact{LandingURL: landing, Title: landing, CapturedAt: at})
	if err != nil {
		t.Fatalf("enqueue %s: %v", landing, err)
	}

	return id
}

func TestEnqueueAndGet(t *testing.T) {
	ctx := context.Background()
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	id := enqueue(t, q, "https://example.com/a", at)

	if id == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := q.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.LandingURL != "https://example.com/a" || !got.CapturedAt.Equal(at) {
		t.Errorf("unexpected artifact %+v", got)
	}

	if got.Uploaded || got.UploadedAt != nil {
		t.Errorf("new artifact must be pending, got uploaded=%v at=%v", got.Uploaded, got.UploadedAt)
	}

	second := enqueue(t, q, "https://example.com/b", at)
	if second <= id {
		t.Errorf("expected increasing ids, got %d after %d", second, id)
	}
}

func TestEnqueue_RequiresLandingURL(t *testing.T) {
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	if _, err := q.Enqueue(context.Background(), &queue.Artifact{Title: "no landing"}); err == nil {
		t.Fatal("expected validation error for empty landing url")
	}
}

func TestEnqueue_ResetsUploadState(t *testing.T) {
	ctx := context.Background()
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	now := time.Now()
	id, err := q.Enqueue(ctx, &queue.Artifact{LandingURL: "https://x", Uploaded: true, UploadedAt: &now})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Uploaded || got.UploadedAt != nil {
		t.Errorf("enqueue must not accept upload state, got %+v", got)
	}

	if got.CapturedAt.IsZero() {
		t.Error("expected captured_at defaulted")
	}
}

func TestGet_NotFound(t *testing.T) {
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	if _, err := q.Get(context.Background(), 42); !errors.Is(err, queue.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestListOrderAndPending(t *testing.T) {
	ctx := context.Background()
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	older := enqueue(t, q, "https://older", base)
	newest := enqueue(t, q, "https://newest", base.Add(2*time.Hour))
	middle := enqueue(t, q, "https://middle", base.Add(time.Hour))

	all, err := q.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}

	want := []uint{newest, middle, older}
	if len(all) != len(want) {
		t.Fatalf("expected %d artifacts, got %d", len(want), len(all))
	}

	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, all[i].ID)
		}
	}

	if err := q.MarkUploaded(ctx, middle, time.Now()); err != nil {
		t.Fatalf("mark uploaded: %v", err)
	}

	pending, err := q.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}

	if len(pending) != 2 || pending[0].ID != newest || pending[1].ID != older {
		t.Errorf("unexpected pending list %+v", pending)
	}

	n, err := q.CountPending(ctx)
	if err != nil {
		t.Fatalf("count pending: %v", err)
	}

	if n != 2 {
		t.Errorf("expected 2 pending, got %d", n)
	}
}

func TestMarkUploaded_Idempotent(t *testing.T) {
	ctx := context.Background()
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	id := enqueue(t, q, "https://x", time.Now())
	first := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	if err := q.MarkUploaded(ctx, id, first); err != nil {
		t.Fatalf("first mark: %v", err)
	}

	if err := q.MarkUploaded(ctx, id, first.Add(time.Hour)); err != nil {
		t.Fatalf("second mark must be a no-op, got %v", err)
	}

	got, err := q.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !got.Uploaded || got.UploadedAt == nil || !got.UploadedAt.Equal(first) {
		t.Errorf("expected uploaded at %v, got uploaded=%v at=%v", first, got.Uploaded, got.UploadedAt)
	}

	if err := q.MarkUploaded(ctx, 999, first); !errors.Is(err, queue.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound for missing id, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	q := openQueue(t, filepath.Join(t.TempDir(), "q.db"))

	id := enqueue(t, q, "https://x", time.Now())

	if err := q.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := q.Get(ctx, id); !errors.Is(err, queue.ErrArtifactNotFound) {
		t.Errorf("expected deleted artifact gone, got %v", err)
	}

	if err := q.Delete(ctx, id); err != nil {
		t.Errorf("deleting a missing id must be a no-op, got %v", err)
	}
}

func TestDurableAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "q.db")

	q, err := queue.Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	id := enqueue(t, q, "https://persisted", time.Now())

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openQueue(t, path)

	got, err := reopened.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}

	if got.LandingURL != "https://persisted" {
		t.Errorf("unexpected artifact after reopen %+v", got)
	}
}
