package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/types"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error)
	GetRecentByBeing(ctx context.Context, tx *gorm.DB, beingID uuid.UUID, limit int) ([]*types.Conversation, error)
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	MarkWisdomExtracted(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	repoLog := baseLog.With("repo", "ConversationRepo")
	return &conversationRepo{db: db, log: repoLog}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(conversations) == 0 {
		return []*types.Conversation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetRecentByBeing returns newest-first; callers that feed the prompt
// history window reverse it back to chronological order.
func (r *conversationRepo) GetRecentByBeing(ctx context.Context, tx *gorm.DB, beingID uuid.UUID, limit int) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Conversation
	if limit <= 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("being_id = ?", beingID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conversationRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Conversation
	if limit <= 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkWisdomExtracted is the single permitted post-insert mutation on a
// conversation row.
func (r *conversationRepo) MarkWisdomExtracted(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(conversationIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("id IN ? AND wisdom_eligible = ?", conversationIDs, true).
		Update("wisdom_extracted", true).Error
}
