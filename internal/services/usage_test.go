package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/config"
	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/repos"
	"github.com/yungbote/echoframe-backend/internal/types"
)

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
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

func newServiceTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		Tiers: config.TierLimits{
			Free:       10,
			Trial:      25,
			Premium:    config.Unlimited,
			Enterprise: config.Unlimited,
		},
		Resonance: config.Resonance{
			PrimaryWeight:       0.2,
			SecondaryWeight:     0.1,
			LengthBonusDivisor:  200,
			LengthBonusCap:      0.1,
			ActivationThreshold: 0.25,
		},
		Thresholds: config.Thresholds{
			MeaningfulMoment: 0.7,
			WisdomExtraction: 0.6,
		},
		Model: config.Model{
			Name:              "gpt-4",
			Temperature:       0.8,
			MaxTokens:         500,
			CostCentsPer1KTok: 3.0,
		},
		MaxMessageLen: 2000,
		HistoryWindow: 3,
	}
}

func createTestUser(t *testing.T, gdb *gorm.DB, tier types.SubscriptionTier) *types.User {
	t.Helper()
	user := &types.User{
		ID:               uuid.New(),
		Email:            uuid.New().String() + "@example.com",
		Password:         "hashed-password",
		SubscriptionTier: tier,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestUsageService(t *testing.T, gdb *gorm.DB, cfg *config.Config) UsageService {
	t.Helper()
	log := newServiceTestLogger(t)
	return NewUsageService(gdb, log, cfg, repos.NewUserRepo(gdb, log), repos.NewDailyUsageRepo(gdb, log), nil)
}

func TestCanProceed_FreeTierBlocksAtLimit(t *testing.T) {
	gdb := newServiceTestDB(t)
	cfg := testConfig()
	cfg.Tiers.Free = 2
	svc := newTestUsageService(t, gdb, cfg)
	ctx := context.Background()
	user := createTestUser(t, gdb, types.TierFree)

	for i := 0; i < 2; i++ {
		decision := svc.CanProceed(ctx, user.ID)
		if !decision.Allowed {
			t.Fatalf("conversation %d should be allowed: %+v", i+1, decision)
		}
		if count := svc.RecordUsage(ctx, user.ID, repos.UsageDelta{}); count != i+1 {
			t.Fatalf("expected count %d, got %d", i+1, count)
		}
	}

	decision := svc.CanProceed(ctx, user.ID)
	if decision.Allowed {
		t.Fatalf("expected block at limit: %+v", decision)
	}
	if decision.Limit != 2 || decision.CountToday != 2 {
		t.Fatalf("unexpected decision metadata: %+v", decision)
	}
}

func TestCanProceed_UnlimitedTierNeverBlocks(t *testing.T) {
	gdb := newServiceTestDB(t)
	cfg := testConfig()
	cfg.Tiers.Free = 1
	svc := newTestUsageService(t, gdb, cfg)
	ctx := context.Background()
	user := createTestUser(t, gdb, types.TierPremium)

	for i := 0; i < 5; i++ {
		decision := svc.CanProceed(ctx, user.ID)
		if !decision.Allowed {
			t.Fatalf("premium must never block, blocked at %d", i)
		}
		if decision.Limit != config.Unlimited {
			t.Fatalf("expected unlimited sentinel, got %d", decision.Limit)
		}
		svc.RecordUsage(ctx, user.ID, repos.UsageDelta{})
	}
}

func TestCanProceed_UnknownUserRefused(t *testing.T) {
	gdb := newServiceTestDB(t)
	svc := newTestUsageService(t, gdb, testConfig())

	decision := svc.CanProceed(context.Background(), uuid.New())
	if decision.Allowed {
		t.Fatalf("a user id with no row must be refused: %+v", decision)
	}
}

func TestCanProceed_LookupErrorFailsOpen(t *testing.T) {
	gdb := newServiceTestDB(t)
	svc := newTestUsageService(t, gdb, testConfig())

	// Make the user lookup fail outright, as a database outage would.
	if err := gdb.Migrator().DropTable(&types.User{}); err != nil {
		t.Fatalf("drop users table: %v", err)
	}

	decision := svc.CanProceed(context.Background(), uuid.New())
	if !decision.Allowed {
		t.Fatalf("lookup failure must fail open: %+v", decision)
	}
}

func TestUsageStats_ReflectsLedger(t *testing.T) {
	gdb := newServiceTestDB(t)
	cfg := testConfig()
	cfg.Tiers.Free = 10
	svc := newTestUsageService(t, gdb, cfg)
	ctx := context.Background()
	user := createTestUser(t, gdb, types.TierFree)

	svc.RecordUsage(ctx, user.ID, repos.UsageDelta{Resonance: true, Tokens: 100, CostCents: 3})
	svc.RecordUsage(ctx, user.ID, repos.UsageDelta{UsedOverride: true, Tokens: 40, CostCents: 1})

	stats, err := svc.UsageStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("UsageStats: %v", err)
	}
	if stats.ConversationsToday != 2 || stats.ResonanceToday != 1 || stats.OverridesToday != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TokensUsed != 140 || stats.EstimatedCostCents != 4 {
		t.Fatalf("unexpected usage totals: %+v", stats)
	}
	if stats.Remaining != 8 {
		t.Fatalf("expected 8 remaining, got %d", stats.Remaining)
	}
	if stats.ResonanceRate != 0.5 {
		t.Fatalf("expected resonance rate 0.5, got %v", stats.ResonanceRate)
	}
	if stats.UsageDate != types.UsageDateUTC(time.Now()) {
		t.Fatalf("unexpected usage date %s", stats.UsageDate)
	}
}

func TestUsageStats_EmptyDay(t *testing.T) {
	gdb := newServiceTestDB(t)
	svc := newTestUsageService(t, gdb, testConfig())
	user := createTestUser(t, gdb, types.TierPremium)

	stats, err := svc.UsageStats(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("UsageStats: %v", err)
	}
	if stats.ConversationsToday != 0 {
		t.Fatalf("expected empty day, got %+v", stats)
	}
	if stats.DailyLimit != config.Unlimited || stats.Remaining != config.Unlimited {
		t.Fatalf("unlimited tier must report the sentinel: %+v", stats)
	}
}

func TestPlatformMetrics_RollsUpDate(t *testing.T) {
	gdb := newServiceTestDB(t)
	svc := newTestUsageService(t, gdb, testConfig())
	ctx := context.Background()

	userA := createTestUser(t, gdb, types.TierFree)
	userB := createTestUser(t, gdb, types.TierPremium)
	svc.RecordUsage(ctx, userA.ID, repos.UsageDelta{Resonance: true, Tokens: 100})
	svc.RecordUsage(ctx, userA.ID, repos.UsageDelta{Tokens: 50})
	svc.RecordUsage(ctx, userB.ID, repos.UsageDelta{Resonance: true, Tokens: 10})

	metrics, err := svc.PlatformMetrics(ctx, "")
	if err != nil {
		t.Fatalf("PlatformMetrics: %v", err)
	}
	if metrics.ActiveUsers != 2 || metrics.Conversations != 3 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if metrics.ResonanceMessages != 2 || metrics.TokensUsed != 160 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if diff := metrics.ResonanceRate - 2.0/3.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unexpected resonance rate %v", metrics.ResonanceRate)
	}
}
