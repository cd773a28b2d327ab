package service_test

import (
	"context"
	"testing"

	ctxpkg "github.com/yeisme/creativevault/pkg/context"
	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/types"
)

func TestModerate_ApproveSkipsMissingIDs(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, baseForm("a"), service.AssetFiles{})
	b := f.create(t, baseForm("b"), service.AssetFiles{})

	ctx := ctxpkg.WithOperator(context.Background(), "reviewer")

	resp, err := f.moderation.Moderate(ctx, types.ModerationRequest{
		Action:      "approve",
		CreativeIDs: []uint{a.ID, b.ID, 999},
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}

	if resp.Count != 2 || len(resp.UpdatedCreatives) != 2 {
		t.Fatalf("count = %d, records = %d", resp.Count, len(resp.UpdatedCreatives))
	}

	if resp.NewStatus != model.StatusPublished {
		t.Errorf("newStatus = %q", resp.NewStatus)
	}

	for _, c := range resp.UpdatedCreatives {
		if c.ID == 999 {
			t.Error("nonexistent id in result")
		}

		if c.Status != model.StatusPublished {
			t.Errorf("record %d status %q", c.ID, c.Status)
		}

		if c.ModeratedBy == nil || *c.ModeratedBy != "reviewer" || c.ModeratedAt == nil || !c.ModeratedAt.Equal(f.now) {
			t.Errorf("record %d stamps %v %v", c.ID, c.ModeratedBy, c.ModeratedAt)
		}
	}

	topic, evt := f.events.last()
	if topic != events.TopicCreativeModerated || len(evt.IDs) != 2 || evt.Operator != "reviewer" {
		t.Errorf("unexpected event %s %+v", topic, evt)
	}
}

func TestModerate_OperatorPrecedence(t *testing.T) {
	f := newFixture(t)

	c := f.create(t, baseForm("a"), service.AssetFiles{})

	ctx := ctxpkg.WithOperator(context.Background(), "header-user")

	resp, err := f.moderation.Moderate(ctx, types.ModerationRequest{
		Action: "approve", CreativeIDs: []uint{c.ID}, ModeratedBy: "body-user",
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}

	if got := *resp.UpdatedCreatives[0].ModeratedBy; got != "body-user" {
		t.Errorf("moderatedBy = %q, want body-user", got)
	}

	resp, err = f.moderation.Moderate(context.Background(), types.ModerationRequest{
		Action: "approve", CreativeIDs: []uint{c.ID},
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}

	if got := *resp.UpdatedCreatives[0].ModeratedBy; got != ctxpkg.DefaultOperator {
		t.Errorf("moderatedBy = %q, want %q", got, ctxpkg.DefaultOperator)
	}
}

func TestModerate_DraftKeepsStamps(t *testing.T) {
	f := newFixture(t)

	c := f.create(t, baseForm("a"), service.AssetFiles{})
	f.approve(t, c.ID)

	resp, err := f.moderation.Moderate(context.Background(), types.ModerationRequest{
		Action: "draft", CreativeIDs: []uint{c.ID},
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}

	got := resp.UpdatedCreatives[0]
	if got.Status != model.StatusDraft {
		t.Errorf("status = %q", got.Status)
	}

	if got.ModeratedAt == nil || got.ModeratedBy == nil {
		t.Error("manual draft must keep moderation stamps")
	}
}

func TestModerate_InvalidAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.moderation.Moderate(context.Background(), types.ModerationRequest{Action: "reject", CreativeIDs: []uint{1}})
	asValidation(t, err)

	_, err = f.moderation.Moderate(context.Background(), types.ModerationRequest{Action: "approve"})
	asValidation(t, err)
}

func TestModerate_NoExistingIDs(t *testing.T) {
	f := newFixture(t)

	resp, err := f.moderation.Moderate(context.Background(), types.ModerationRequest{
		Action: "approve", CreativeIDs: []uint{7, 8},
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}

	if resp.Count != 0 || resp.UpdatedCreatives == nil {
		t.Errorf("unexpected %+v", resp)
	}
}

func TestCounts(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, baseForm("a"), service.AssetFiles{})
	f.create(t, baseForm("b"), service.AssetFiles{})
	f.create(t, baseForm("c"), service.AssetFiles{})
	f.approve(t, a.ID)

	counts, err := f.moderation.Counts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}

	if counts.Draft != 2 || counts.Published != 1 || counts.Total != 3 {
		t.Errorf("unexpected counts %+v", counts)
	}
}

func TestDelete_PartialMisses(t *testing.T) {
	f := newFixture(t)

	a := f.create(t, baseForm("a"), service.AssetFiles{Media: part("m.png", "m")})
	b := f.create(t, baseForm("b"), service.AssetFiles{})

	resp, err := f.moderation.Delete(context.Background(), types.DeleteRequest{CreativeIDs: []uint{b.ID, 555, a.ID, a.ID}})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if resp.DeletedCount != 2 || len(resp.DeletedIDs) != 2 {
		t.Fatalf("unexpected %+v", resp)
	}

	for _, id := range resp.DeletedIDs {
		if id == 555 {
			t.Error("deletedIds contains an id that never existed")
		}
	}

	if f.count(t) != 0 {
		t.Error("records remain")
	}

	if len(f.blobs.objects) != 1 || len(f.blobs.removed) != 0 {
		t.Error("delete must not cascade into object storage")
	}

	resp, err = f.moderation.Delete(context.Background(), types.DeleteRequest{CreativeIDs: []uint{a.ID}})
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if resp.DeletedCount != 0 || resp.DeletedIDs == nil {
		t.Errorf("unexpected %+v", resp)
	}
}
