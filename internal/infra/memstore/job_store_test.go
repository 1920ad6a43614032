package memstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/memstore"
)

func strPtr(s string) *string { return &s }

func TestJobStoreUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("first upsert creates the record and fixes CreatedAt", func(t *testing.T) {
		store := memstore.NewJobStore()

		rec, applied := store.Upsert(ctx, "talk-1", model.JobUpdate{
			Provider: model.ProviderPhoto,
			Status:   model.JobStatusSubmitted,
			ToEmail:  "a@b.it",
		})
		if !applied {
			t.Fatal("expected first upsert to apply")
		}
		if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
			t.Fatal("timestamps not set")
		}

		created := rec.CreatedAt
		rec, _ = store.Upsert(ctx, "talk-1", model.JobUpdate{Status: model.JobStatusProcessing})
		if !rec.CreatedAt.Equal(created) {
			t.Error("CreatedAt changed on second upsert")
		}
		if rec.Status != model.JobStatusProcessing {
			t.Errorf("status = %s, want processing", rec.Status)
		}
		if rec.ToEmail != "a@b.it" {
			t.Error("earlier fields lost by merge")
		}
	})

	t.Run("merges are unions with later fields winning", func(t *testing.T) {
		store := memstore.NewJobStore()

		store.Upsert(ctx, "talk-2", model.JobUpdate{Status: model.JobStatusSubmitted, OrderName: "#1001"})
		store.Upsert(ctx, "talk-2", model.JobUpdate{Status: model.JobStatusProcessing, Raw: strPtr(`{"a":1}`)})
		store.Upsert(ctx, "talk-2", model.JobUpdate{Raw: strPtr(`{"a":2}`)})

		rec, err := store.Get(ctx, "talk-2")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec.Status != model.JobStatusProcessing || rec.OrderName != "#1001" || rec.Raw != `{"a":2}` {
			t.Errorf("unexpected merge result: %+v", rec)
		}
	})

	t.Run("empty id is a silent no-op", func(t *testing.T) {
		store := memstore.NewJobStore()
		if _, applied := store.Upsert(ctx, "", model.JobUpdate{Status: model.JobStatusDone}); applied {
			t.Error("expected empty id upsert to be refused")
		}
		if got := store.List(ctx); len(got) != 0 {
			t.Errorf("store not empty: %d records", len(got))
		}
	})

	t.Run("terminal status freezes status and video url", func(t *testing.T) {
		store := memstore.NewJobStore()

		store.Upsert(ctx, "talk-3", model.JobUpdate{Status: model.JobStatusSubmitted})
		_, applied := store.Upsert(ctx, "talk-3", model.JobUpdate{Status: model.JobStatusDone, VideoURL: "https://x/v1.mp4"})
		if !applied {
			t.Fatal("terminal transition refused")
		}

		// A competing terminal write must be rejected...
		_, applied = store.Upsert(ctx, "talk-3", model.JobUpdate{Status: model.JobStatusFailed})
		if applied {
			t.Error("second terminal transition was applied")
		}
		// ...even when it repeats the terminal status already in place...
		_, applied = store.Upsert(ctx, "talk-3", model.JobUpdate{Status: model.JobStatusDone})
		if applied {
			t.Error("repeated terminal status write was applied")
		}
		// ...and so must a url rewrite.
		_, applied = store.Upsert(ctx, "talk-3", model.JobUpdate{VideoURL: "https://x/other.mp4"})
		if applied {
			t.Error("video url rewrite after terminal was applied")
		}

		// Raw stays writable for audit.
		rec, applied := store.Upsert(ctx, "talk-3", model.JobUpdate{Raw: strPtr("late poll")})
		if !applied {
			t.Error("audit-only upsert refused")
		}
		if rec.Status != model.JobStatusDone || rec.VideoURL != "https://x/v1.mp4" || rec.Raw != "late poll" {
			t.Errorf("unexpected record after audit write: %+v", rec)
		}
	})

	t.Run("done implies video url, failed and timeout imply none", func(t *testing.T) {
		store := memstore.NewJobStore()
		store.Upsert(ctx, "ok", model.JobUpdate{Status: model.JobStatusDone, VideoURL: "https://x/v.mp4"})
		store.Upsert(ctx, "bad", model.JobUpdate{Status: model.JobStatusFailed})
		store.Upsert(ctx, "slow", model.JobUpdate{Status: model.JobStatusTimeout})

		for _, rec := range store.List(ctx) {
			gotURL := rec.VideoURL != ""
			wantURL := rec.Status == model.JobStatusDone
			if gotURL != wantURL {
				t.Errorf("job %s: status=%s videoURL=%q violates done<=>url", rec.ID, rec.Status, rec.VideoURL)
			}
		}
	})
}

func TestJobStoreGetAndList(t *testing.T) {
	ctx := context.Background()

	t.Run("get on unknown id returns ErrNotFound", func(t *testing.T) {
		store := memstore.NewJobStore()
		if _, err := store.Get(ctx, "nope"); err != domain.ErrNotFound {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("list orders by UpdatedAt descending", func(t *testing.T) {
		store := memstore.NewJobStore()
		store.Upsert(ctx, "a", model.JobUpdate{Status: model.JobStatusSubmitted})
		store.Upsert(ctx, "b", model.JobUpdate{Status: model.JobStatusSubmitted})
		store.Upsert(ctx, "a", model.JobUpdate{Status: model.JobStatusProcessing}) // touch a last

		got := store.List(ctx)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].ID != "a" {
			t.Errorf("most recently updated first: got %s", got[0].ID)
		}
	})

	t.Run("list returns copies, not aliases", func(t *testing.T) {
		store := memstore.NewJobStore()
		store.Upsert(ctx, "a", model.JobUpdate{Status: model.JobStatusSubmitted})

		snap := store.List(ctx)
		snap[0].Status = model.JobStatusFailed

		rec, _ := store.Get(ctx, "a")
		if rec.Status != model.JobStatusSubmitted {
			t.Error("mutating a snapshot leaked into the store")
		}
	})
}

func TestJobStoreConcurrency(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewJobStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Upsert(ctx, "shared", model.JobUpdate{Status: model.JobStatusProcessing})
			store.List(ctx)
		}()
	}
	wg.Wait()

	// The terminal write must win over any stragglers that already ran.
	store.Upsert(ctx, "shared", model.JobUpdate{Status: model.JobStatusDone, VideoURL: "https://x/v.mp4"})
	store.Upsert(ctx, "shared", model.JobUpdate{Status: model.JobStatusProcessing})

	rec, err := store.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != model.JobStatusDone {
		t.Errorf("status = %s, want done", rec.Status)
	}
}

func TestJobStoreReplace(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewJobStore()
	store.Upsert(ctx, "old", model.JobUpdate{Status: model.JobStatusSubmitted})

	store.Replace([]model.JobRecord{
		{ID: "restored", Status: model.JobStatusDone, VideoURL: "https://x/v.mp4"},
		{Status: model.JobStatusFailed}, // no id, dropped
	})

	if _, err := store.Get(ctx, "old"); err != domain.ErrNotFound {
		t.Error("replace kept stale record")
	}
	rec, err := store.Get(ctx, "restored")
	if err != nil {
		t.Fatalf("restored record missing: %v", err)
	}
	if rec.Status != model.JobStatusDone {
		t.Errorf("status = %s, want done", rec.Status)
	}
	if len(store.List(ctx)) != 1 {
		t.Error("record without id survived replace")
	}
}
