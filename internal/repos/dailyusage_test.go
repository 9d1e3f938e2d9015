package repos

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes
	// writers the way a single-node sqlite file would.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Being{},
		&types.Conversation{},
		&types.DailyUsage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func TestIncrementUsage_LazilyCreatesDayRow(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewDailyUsageRepo(gdb, newTestLogger(t))
	ctx := context.Background()
	userID := uuid.New()

	row, err := repo.GetByUserAndDate(ctx, nil, userID, "2026-08-30")
	if err != nil {
		t.Fatalf("GetByUserAndDate: %v", err)
	}
	if row != nil {
		t.Fatalf("expected no row before first increment")
	}

	count, err := repo.IncrementUsage(ctx, nil, userID, "2026-08-30", UsageDelta{})
	if err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	row, err = repo.GetByUserAndDate(ctx, nil, userID, "2026-08-30")
	if err != nil {
		t.Fatalf("GetByUserAndDate: %v", err)
	}
	if row == nil || row.ConversationCount != 1 {
		t.Fatalf("expected persisted row with count 1, got %+v", row)
	}
}

func TestIncrementUsage_AccumulatesDeltas(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewDailyUsageRepo(gdb, newTestLogger(t))
	ctx := context.Background()
	userID := uuid.New()

	deltas := []UsageDelta{
		{Resonance: true, Tokens: 120, CostCents: 3},
		{UsedOverride: true},
		{Resonance: true, Tokens: 80, CostCents: 2, PremiumUse: true},
	}
	var last int
	for _, d := range deltas {
		count, err := repo.IncrementUsage(ctx, nil, userID, "2026-08-30", d)
		if err != nil {
			t.Fatalf("IncrementUsage: %v", err)
		}
		last = count
	}
	if last != 3 {
		t.Fatalf("expected final count 3, got %d", last)
	}

	row, err := repo.GetByUserAndDate(ctx, nil, userID, "2026-08-30")
	if err != nil {
		t.Fatalf("GetByUserAndDate: %v", err)
	}
	if row.ConversationCount != 3 || row.ResonanceCount != 2 || row.OverrideCount != 1 {
		t.Fatalf("unexpected counters: %+v", row)
	}
	if row.TokensUsed != 200 || row.EstimatedCostCents != 5 || row.PremiumFeatureUses != 1 {
		t.Fatalf("unexpected usage totals: %+v", row)
	}
}

func TestIncrementUsage_ConcurrentRequestsLoseNoUpdates(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewDailyUsageRepo(gdb, newTestLogger(t))
	ctx := context.Background()
	userID := uuid.New()

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementUsage(ctx, nil, userID, "2026-08-30", UsageDelta{Tokens: 10}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent increment: %v", err)
	}

	row, err := repo.GetByUserAndDate(ctx, nil, userID, "2026-08-30")
	if err != nil {
		t.Fatalf("GetByUserAndDate: %v", err)
	}
	if row.ConversationCount != workers {
		t.Fatalf("lost updates: expected %d, got %d", workers, row.ConversationCount)
	}
	if row.TokensUsed != workers*10 {
		t.Fatalf("lost token updates: expected %d, got %d", workers*10, row.TokensUsed)
	}
}

func TestIncrementUsage_SeparateDaysSeparateRows(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewDailyUsageRepo(gdb, newTestLogger(t))
	ctx := context.Background()
	userID := uuid.New()

	if _, err := repo.IncrementUsage(ctx, nil, userID, "2026-08-29", UsageDelta{}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if _, err := repo.IncrementUsage(ctx, nil, userID, "2026-08-30", UsageDelta{}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}

	for _, date := range []string{"2026-08-29", "2026-08-30"} {
		row, err := repo.GetByUserAndDate(ctx, nil, userID, date)
		if err != nil {
			t.Fatalf("GetByUserAndDate(%s): %v", date, err)
		}
		if row == nil || row.ConversationCount != 1 {
			t.Fatalf("expected count 1 for %s, got %+v", date, row)
		}
	}
}

func TestTotalsByDate_AggregatesAcrossUsers(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewDailyUsageRepo(gdb, newTestLogger(t))
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	if _, err := repo.IncrementUsage(ctx, nil, userA, "2026-08-30", UsageDelta{Resonance: true, Tokens: 100, CostCents: 3}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if _, err := repo.IncrementUsage(ctx, nil, userA, "2026-08-30", UsageDelta{UsedOverride: true, Tokens: 50, CostCents: 1}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if _, err := repo.IncrementUsage(ctx, nil, userB, "2026-08-30", UsageDelta{Tokens: 25}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	// A different day stays out of the rollup.
	if _, err := repo.IncrementUsage(ctx, nil, userB, "2026-08-29", UsageDelta{Tokens: 999}); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}

	totals, err := repo.TotalsByDate(ctx, nil, "2026-08-30")
	if err != nil {
		t.Fatalf("TotalsByDate: %v", err)
	}
	if totals.Conversations != 3 || totals.ResonanceMessages != 1 || totals.OverrideUses != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.TokensUsed != 175 || totals.EstimatedCostCents != 4 {
		t.Fatalf("unexpected token/cost totals: %+v", totals)
	}

	active, err := repo.CountActiveUsers(ctx, nil, "2026-08-30")
	if err != nil {
		t.Fatalf("CountActiveUsers: %v", err)
	}
	if active != 2 {
		t.Fatalf("expected 2 active users, got %d", active)
	}
}
