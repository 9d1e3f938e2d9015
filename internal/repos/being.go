package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/types"
)

type BeingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, beings []*types.Being) ([]*types.Being, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, beingIDs []uuid.UUID) ([]*types.Being, error)
	GetActiveByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, beingType types.BeingType) (*types.Being, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Being, error)
	IncrementCounters(ctx context.Context, tx *gorm.DB, beingID uuid.UUID, resonance bool, meaningful bool) error
	UpdateDepth(ctx context.Context, tx *gorm.DB, beingID uuid.UUID, depth types.RelationshipDepth) error
	Deactivate(ctx context.Context, tx *gorm.DB, being *types.Being) error
}

type beingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBeingRepo(db *gorm.DB, baseLog *logger.Logger) BeingRepo {
	repoLog := baseLog.With("repo", "BeingRepo")
	return &beingRepo{db: db, log: repoLog}
}

func (r *beingRepo) Create(ctx context.Context, tx *gorm.DB, beings []*types.Being) ([]*types.Being, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(beings) == 0 {
		return []*types.Being{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&beings).Error; err != nil {
		return nil, err
	}
	return beings, nil
}

func (r *beingRepo) GetByIDs(ctx context.Context, tx *gorm.DB, beingIDs []uuid.UUID) ([]*types.Being, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Being
	if len(beingIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", beingIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetActiveByUserAndType returns (nil, nil) when the user has no active
// being of that type.
func (r *beingRepo) GetActiveByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, beingType types.BeingType) (*types.Being, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var being types.Being
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND being_type = ? AND is_active = ?", userID, beingType, true).
		First(&being).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &being, nil
}

func (r *beingRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Being, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Being
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// IncrementCounters bumps the aggregate counts with in-database
// arithmetic so concurrent conversations for the same being do not lose
// updates.
func (r *beingRepo) IncrementCounters(ctx context.Context, tx *gorm.DB, beingID uuid.UUID, resonance bool, meaningful bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"conversation_count": gorm.Expr("conversation_count + 1"),
		"updated_at":         time.Now().UTC(),
	}
	if resonance {
		updates["resonance_count"] = gorm.Expr("resonance_count + 1")
	}
	if meaningful {
		updates["meaningful_moments"] = gorm.Expr("meaningful_moments + 1")
	}
	return transaction.WithContext(ctx).
		Model(&types.Being{}).
		Where("id = ?", beingID).
		Updates(updates).Error
}

func (r *beingRepo) UpdateDepth(ctx context.Context, tx *gorm.DB, beingID uuid.UUID, depth types.RelationshipDepth) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Being{}).
		Where("id = ?", beingID).
		Updates(map[string]interface{}{
			"relationship_depth": depth,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *beingRepo) Deactivate(ctx context.Context, tx *gorm.DB, being *types.Being) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Being{}).
		Where("id = ? AND is_active = ?", being.ID, true).
		Updates(map[string]interface{}{
			"is_active":       false,
			"death_timestamp": being.DeathTimestamp,
			"death_reason":    being.DeathReason,
			"legacy_data":     being.LegacyData,
			"updated_at":      time.Now().UTC(),
		}).Error
}
