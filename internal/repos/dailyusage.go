package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/types"
)

// UsageDelta is one completed pipeline invocation's contribution to the
// daily ledger.
type UsageDelta struct {
	Resonance    bool
	UsedOverride bool
	Tokens       int
	CostCents    int
	PremiumUse   bool
}

// PlatformTotals is a platform-wide rollup for one UTC date.
type PlatformTotals struct {
	ActiveUsers        int64
	Conversations      int64
	ResonanceMessages  int64
	OverrideUses       int64
	TokensUsed         int64
	EstimatedCostCents int64
}

type DailyUsageRepo interface {
	GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, usageDate string) (*types.DailyUsage, error)
	IncrementUsage(ctx context.Context, tx *gorm.DB, userID uuid.UUID, usageDate string, delta UsageDelta) (int, error)
	TotalsByDate(ctx context.Context, tx *gorm.DB, usageDate string) (*PlatformTotals, error)
	CountActiveUsers(ctx context.Context, tx *gorm.DB, usageDate string) (int64, error)
}

type dailyUsageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyUsageRepo(db *gorm.DB, baseLog *logger.Logger) DailyUsageRepo {
	repoLog := baseLog.With("repo", "DailyUsageRepo")
	return &dailyUsageRepo{db: db, log: repoLog}
}

// GetByUserAndDate returns (nil, nil) when no row exists yet; the row is
// created lazily by the first IncrementUsage of the day.
func (r *dailyUsageRepo) GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, usageDate string) (*types.DailyUsage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var usage types.DailyUsage
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, usageDate).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// IncrementUsage is a single atomic upsert: the counter arithmetic runs
// inside the database so concurrent requests for the same user and day
// never lose an update. Do not replace this with a read-modify-write.
func (r *dailyUsageRepo) IncrementUsage(ctx context.Context, tx *gorm.DB, userID uuid.UUID, usageDate string, delta UsageDelta) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	resonanceInc := 0
	if delta.Resonance {
		resonanceInc = 1
	}
	overrideInc := 0
	if delta.UsedOverride {
		overrideInc = 1
	}
	premiumInc := 0
	if delta.PremiumUse {
		premiumInc = 1
	}

	now := time.Now().UTC()
	row := &types.DailyUsage{
		ID:                 uuid.New(),
		UserID:             userID,
		UsageDate:          usageDate,
		ConversationCount:  1,
		ResonanceCount:     resonanceInc,
		OverrideCount:      overrideInc,
		TokensUsed:         delta.Tokens,
		EstimatedCostCents: delta.CostCents,
		PremiumFeatureUses: premiumInc,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"conversation_count":   gorm.Expr("conversation_count + 1"),
			"resonance_count":      gorm.Expr("resonance_count + ?", resonanceInc),
			"override_count":       gorm.Expr("override_count + ?", overrideInc),
			"tokens_used":          gorm.Expr("tokens_used + ?", delta.Tokens),
			"estimated_cost_cents": gorm.Expr("estimated_cost_cents + ?", delta.CostCents),
			"premium_feature_uses": gorm.Expr("premium_feature_uses + ?", premiumInc),
			"updated_at":           now,
		}),
	}).Create(row).Error
	if err != nil {
		return 0, err
	}

	// Re-read the authoritative count. Under concurrency it may already
	// include other requests' increments, which is the correct "count for
	// today" answer.
	var count int
	if err := transaction.WithContext(ctx).
		Model(&types.DailyUsage{}).
		Select("conversation_count").
		Where("user_id = ? AND usage_date = ?", userID, usageDate).
		Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dailyUsageRepo) TotalsByDate(ctx context.Context, tx *gorm.DB, usageDate string) (*PlatformTotals, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var totals PlatformTotals
	err := transaction.WithContext(ctx).
		Model(&types.DailyUsage{}).
		Select(
			"COALESCE(SUM(conversation_count),0) AS conversations, "+
				"COALESCE(SUM(resonance_count),0) AS resonance_messages, "+
				"COALESCE(SUM(override_count),0) AS override_uses, "+
				"COALESCE(SUM(tokens_used),0) AS tokens_used, "+
				"COALESCE(SUM(estimated_cost_cents),0) AS estimated_cost_cents").
		Where("usage_date = ?", usageDate).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *dailyUsageRepo) CountActiveUsers(ctx context.Context, tx *gorm.DB, usageDate string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.DailyUsage{}).
		Where("usage_date = ? AND conversation_count > 0", usageDate).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
