package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/clients/redis"
	"github.com/yungbote/echoframe-backend/internal/config"
	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/repos"
	"github.com/yungbote/echoframe-backend/internal/types"
)

// QuotaDecision is the outcome of a quota check. Limit is
// config.Unlimited for tiers without a ceiling.
type QuotaDecision struct {
	Allowed    bool
	Limit      int
	CountToday int
}

// UsageStats is the per-user view of today's ledger row.
type UsageStats struct {
	UsageDate          string  `json:"usage_date"`
	ConversationsToday int     `json:"conversations_today"`
	ResonanceToday     int     `json:"resonance_today"`
	OverridesToday     int     `json:"overrides_today"`
	TokensUsed         int     `json:"tokens_used"`
	EstimatedCostCents int     `json:"estimated_cost_cents"`
	DailyLimit         int     `json:"daily_limit"`
	Remaining          int     `json:"remaining"`
	ResonanceRate      float64 `json:"resonance_rate"`
}

// PlatformMetrics is the platform-wide rollup for one UTC date.
type PlatformMetrics struct {
	UsageDate          string  `json:"usage_date"`
	ActiveUsers        int64   `json:"active_users"`
	Conversations      int64   `json:"conversations"`
	ResonanceMessages  int64   `json:"resonance_messages"`
	OverrideUses       int64   `json:"override_uses"`
	TokensUsed         int64   `json:"tokens_used"`
	EstimatedCostCents int64   `json:"estimated_cost_cents"`
	ResonanceRate      float64 `json:"resonance_rate"`
}

type UsageService interface {
	CanProceed(ctx context.Context, userID uuid.UUID) QuotaDecision
	RecordUsage(ctx context.Context, userID uuid.UUID, delta repos.UsageDelta) int
	UsageStats(ctx context.Context, userID uuid.UUID) (*UsageStats, error)
	PlatformMetrics(ctx context.Context, usageDate string) (*PlatformMetrics, error)
}

type usageService struct {
	db         *gorm.DB
	log        *logger.Logger
	cfg        *config.Config
	userRepo   repos.UserRepo
	usageRepo  repos.DailyUsageRepo
	usageCache redis.UsageCache
}

// NewUsageService wires the quota ledger. usageCache may be nil; every
// cache miss or error falls through to the database.
func NewUsageService(
	db *gorm.DB,
	log *logger.Logger,
	cfg *config.Config,
	userRepo repos.UserRepo,
	usageRepo repos.DailyUsageRepo,
	usageCache redis.UsageCache,
) UsageService {
	serviceLog := log.With("service", "UsageService")
	return &usageService{
		db:         db,
		log:        serviceLog,
		cfg:        cfg,
		userRepo:   userRepo,
		usageRepo:  usageRepo,
		usageCache: usageCache,
	}
}

// CanProceed decides whether the user may start another conversation
// today. It fails OPEN on infrastructure errors: if the tier or the
// count cannot be read, the conversation goes through. Quota is a
// product ceiling, not a safety control; unavailability must not take
// the product down with it. A lookup that definitively finds no user
// row is not an infrastructure error and is refused.
func (us *usageService) CanProceed(ctx context.Context, userID uuid.UUID) QuotaDecision {
	limit := us.cfg.Tiers.Free
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		us.log.Warn("quota check: user lookup failed, allowing", "user_id", userID, "error", err)
		return QuotaDecision{Allowed: true, Limit: limit}
	}
	if len(users) == 0 {
		us.log.Warn("quota check: unknown user refused", "user_id", userID)
		return QuotaDecision{Allowed: false, Limit: limit}
	}
	limit = us.cfg.DailyLimitFor(users[0].SubscriptionTier)
	if limit == config.Unlimited {
		return QuotaDecision{Allowed: true, Limit: config.Unlimited}
	}

	count, err := us.countToday(ctx, userID)
	if err != nil {
		us.log.Warn("quota check: count lookup failed, allowing", "user_id", userID, "error", err)
		return QuotaDecision{Allowed: true, Limit: limit}
	}
	return QuotaDecision{
		Allowed:    count < limit,
		Limit:      limit,
		CountToday: count,
	}
}

func (us *usageService) countToday(ctx context.Context, userID uuid.UUID) (int, error) {
	usageDate := types.UsageDateUTC(time.Now())
	if us.usageCache != nil {
		if count, ok := us.usageCache.GetCountToday(ctx, userID, usageDate); ok {
			return count, nil
		}
	}
	row, err := us.usageRepo.GetByUserAndDate(ctx, nil, userID, usageDate)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row.ConversationCount, nil
}

// RecordUsage appends one conversation to today's ledger row and returns
// the authoritative count. Recording is best-effort: the response was
// already produced, so errors are logged and swallowed rather than
// surfaced to the user.
func (us *usageService) RecordUsage(ctx context.Context, userID uuid.UUID, delta repos.UsageDelta) int {
	usageDate := types.UsageDateUTC(time.Now())
	count, err := us.usageRepo.IncrementUsage(ctx, nil, userID, usageDate, delta)
	if err != nil {
		us.log.Error("usage record failed", "user_id", userID, "usage_date", usageDate, "error", err)
		return 0
	}
	if us.usageCache != nil {
		us.usageCache.SetCountToday(ctx, userID, usageDate, count)
	}
	return count
}

func (us *usageService) UsageStats(ctx context.Context, userID uuid.UUID) (*UsageStats, error) {
	usageDate := types.UsageDateUTC(time.Now())

	limit := us.cfg.Tiers.Free
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if len(users) > 0 {
		limit = us.cfg.DailyLimitFor(users[0].SubscriptionTier)
	}

	row, err := us.usageRepo.GetByUserAndDate(ctx, nil, userID, usageDate)
	if err != nil {
		return nil, fmt.Errorf("fetch usage row: %w", err)
	}

	stats := &UsageStats{
		UsageDate:  usageDate,
		DailyLimit: limit,
		Remaining:  config.Unlimited,
	}
	if row != nil {
		stats.ConversationsToday = row.ConversationCount
		stats.ResonanceToday = row.ResonanceCount
		stats.OverridesToday = row.OverrideCount
		stats.TokensUsed = row.TokensUsed
		stats.EstimatedCostCents = row.EstimatedCostCents
		if row.ConversationCount > 0 {
			stats.ResonanceRate = float64(row.ResonanceCount) / float64(row.ConversationCount)
		}
	}
	if limit != config.Unlimited {
		remaining := limit - stats.ConversationsToday
		if remaining < 0 {
			remaining = 0
		}
		stats.Remaining = remaining
	}
	return stats, nil
}

// PlatformMetrics aggregates the date's ledger rows; the two scans run
// in parallel.
func (us *usageService) PlatformMetrics(ctx context.Context, usageDate string) (*PlatformMetrics, error) {
	if usageDate == "" {
		usageDate = types.UsageDateUTC(time.Now())
	}

	var totals *repos.PlatformTotals
	var activeUsers int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := us.usageRepo.TotalsByDate(gctx, nil, usageDate)
		if err != nil {
			return fmt.Errorf("totals by date: %w", err)
		}
		totals = t
		return nil
	})
	g.Go(func() error {
		n, err := us.usageRepo.CountActiveUsers(gctx, nil, usageDate)
		if err != nil {
			return fmt.Errorf("count active users: %w", err)
		}
		activeUsers = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics := &PlatformMetrics{
		UsageDate:          usageDate,
		ActiveUsers:        activeUsers,
		Conversations:      totals.Conversations,
		ResonanceMessages:  totals.ResonanceMessages,
		OverrideUses:       totals.OverrideUses,
		TokensUsed:         totals.TokensUsed,
		EstimatedCostCents: totals.EstimatedCostCents,
	}
	if metrics.Conversations > 0 {
		metrics.ResonanceRate = float64(metrics.ResonanceMessages) / float64(metrics.Conversations)
	}
	return metrics, nil
}
