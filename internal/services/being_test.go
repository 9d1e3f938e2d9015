package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/echoframe-backend/internal/repos"
	"github.com/yungbote/echoframe-backend/internal/types"
)

func newTestBeingService(t *testing.T) (BeingService, *types.User, repos.ConversationRepo) {
	t.Helper()
	gdb := newServiceTestDB(t)
	log := newServiceTestLogger(t)
	beingRepo := repos.NewBeingRepo(gdb, log)
	convRepo := repos.NewConversationRepo(gdb, log)
	svc := NewBeingService(gdb, log, beingRepo, convRepo)
	user := createTestUser(t, gdb, types.TierFree)
	return svc, user, convRepo
}

func TestGetOrCreateActive_ProvisionsOnce(t *testing.T) {
	svc, user, _ := newTestBeingService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	if !first.IsActive || first.RelationshipDepth != types.DepthNew {
		t.Fatalf("unexpected fresh being: %+v", first)
	}
	if first.Personality["conversation_style"] != "contemplative" {
		t.Fatalf("cell_0 must seed contemplative traits: %v", first.Personality)
	}

	second, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same being back, got %s and %s", first.ID, second.ID)
	}
}

func TestGetOrCreateActive_TypesAreIndependent(t *testing.T) {
	svc, user, _ := newTestBeingService(t)
	ctx := context.Background()

	a, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	b, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell1)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("each being type gets its own being")
	}
}

func TestRelease_FreezesLegacyAndDeactivates(t *testing.T) {
	svc, user, _ := newTestBeingService(t)
	ctx := context.Background()

	being, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}

	status, err := svc.Release(ctx, user.ID, types.BeingCell0, "moving on")
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if status.IsActive {
		t.Fatalf("released being must be inactive")
	}
	if status.DeathTimestamp == nil || status.DeathReason != "moving on" {
		t.Fatalf("release must record death metadata: %+v", status)
	}

	// The released being no longer answers Status.
	gone, err := svc.Status(ctx, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected no active being after release, got %+v", gone)
	}

	// The next chat births a fresh being.
	reborn, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	if reborn.ID == being.ID {
		t.Fatalf("released being must not be reused")
	}
}

func TestRelease_WithoutActiveBeingFails(t *testing.T) {
	svc, user, _ := newTestBeingService(t)
	if _, err := svc.Release(context.Background(), user.ID, types.BeingCell1, ""); err == nil {
		t.Fatalf("expected error releasing a nonexistent being")
	}
}

func TestSnapshot_HistoryChronological(t *testing.T) {
	svc, user, convRepo := newTestBeingService(t)
	ctx := context.Background()

	being, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		conv := &types.Conversation{
			ID:            uuid.New(),
			UserID:        user.ID,
			BeingID:       being.ID,
			UserMessage:   "q" + string(rune('0'+i)),
			BeingResponse: "a" + string(rune('0'+i)),
			Context:       datatypes.JSONMap{},
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := convRepo.Create(ctx, nil, []*types.Conversation{conv}); err != nil {
			t.Fatalf("create conversation: %v", err)
		}
	}

	snap, err := svc.Snapshot(ctx, nil, being, 3)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.History) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(snap.History))
	}
	if snap.History[0].UserMessage != "q2" || snap.History[2].UserMessage != "q4" {
		t.Fatalf("history must be chronological, got %+v", snap.History)
	}
}

func TestSnapshot_UsesBeingCounters(t *testing.T) {
	svc, user, _ := newTestBeingService(t)
	ctx := context.Background()

	being, err := svc.GetOrCreateActive(ctx, nil, user.ID, types.BeingCell0)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	being.ConversationCount = 7
	being.ResonanceCount = 2
	being.RelationshipDepth = types.DepthDeveloping

	snap, err := svc.Snapshot(ctx, nil, being, 3)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.ConversationCount != 7 || snap.ResonanceCount != 2 {
		t.Fatalf("snapshot must mirror counters: %+v", snap)
	}
	if snap.Depth != types.DepthDeveloping {
		t.Fatalf("snapshot must mirror depth: %+v", snap)
	}
	if _, ok := snap.Traits["curiosity_level"]; !ok {
		t.Fatalf("snapshot must carry traits: %v", snap.Traits)
	}
}
