package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/creativevault/pkg/cache"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/storage/kv"
)

func TestReferenceSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)

	set := testReferences()
	set.Formats[0].Name = "Static image"

	if err := f.refs.Seed(context.Background(), set); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	all, err := f.refs.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}

	if len(all.Formats) != 2 || len(all.Countries) != 1 || len(all.Platforms) != 2 {
		t.Fatalf("duplicate rows after reseed: %+v", all)
	}

	for _, fm := range all.Formats {
		if fm.Code == "image" && fm.Name != "Static image" {
			t.Errorf("name not upserted: %q", fm.Name)
		}
	}
}

func TestReferenceResolveUsesCache(t *testing.T) {
	gdb := newTestDB(t)

	store := kv.NewMemoryKV()
	refs := service.NewReferenceService(gdb, cache.NewCache(store, "ref"), time.Minute)

	if err := refs.Seed(context.Background(), testReferences()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	id, err := refs.ResolveID(context.Background(), model.KindPlatform, "tiktok")
	if err != nil || id == 0 {
		t.Fatalf("resolve: %d %v", id, err)
	}

	if err := gdb.Where("code = ?", "tiktok").Delete(&model.Platform{}).Error; err != nil {
		t.Fatalf("delete row: %v", err)
	}

	cached, err := refs.ResolveID(context.Background(), model.KindPlatform, "tiktok")
	if err != nil || cached != id {
		t.Errorf("expected cached id %d, got %d %v", id, cached, err)
	}

	// Seed 清空缓存后重新查库
	if err := refs.Seed(context.Background(), model.ReferenceSet{}); err != nil {
		t.Fatalf("seed empty: %v", err)
	}

	if _, err := refs.ResolveID(context.Background(), model.KindPlatform, "tiktok"); err == nil {
		t.Error("expected miss after cache clear")
	}
}

func TestReferenceResolveConcurrent(t *testing.T) {
	f := newFixture(t)

	ids, err := f.refs.Resolve(context.Background(), map[model.ReferenceKind]string{
		model.KindFormat:    "carousel",
		model.KindType:      "native",
		model.KindPlacement: "feed",
		model.KindPlatform:  "tiktok",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(ids) != 4 {
		t.Fatalf("resolved %d kinds", len(ids))
	}

	for kind, id := range ids {
		if id == 0 {
			t.Errorf("%s resolved to 0", kind)
		}
	}
}
