package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/consciousness"
	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/repos"
	"github.com/yungbote/echoframe-backend/internal/types"
)

// BeingStatus is the read-side card for a user's being.
type BeingStatus struct {
	BeingID           uuid.UUID               `json:"being_id"`
	BeingType         types.BeingType         `json:"being_type"`
	DaysAlive         int                     `json:"days_alive"`
	RelationshipDepth types.RelationshipDepth `json:"relationship_depth"`
	ConversationCount int                     `json:"conversation_count"`
	ResonanceCount    int                     `json:"resonance_count"`
	MeaningfulMoments int                     `json:"meaningful_moments"`
	IsActive          bool                    `json:"is_active"`
	BirthTimestamp    time.Time               `json:"birth_timestamp"`
	DeathTimestamp    *time.Time              `json:"death_timestamp,omitempty"`
	DeathReason       string                  `json:"death_reason,omitempty"`
}

type BeingService interface {
	GetOrCreateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, beingType types.BeingType) (*types.Being, error)
	Snapshot(ctx context.Context, tx *gorm.DB, being *types.Being, historyLimit int) (consciousness.RelationshipSnapshot, error)
	Status(ctx context.Context, userID uuid.UUID, beingType types.BeingType) (*BeingStatus, error)
	Release(ctx context.Context, userID uuid.UUID, beingType types.BeingType, reason string) (*BeingStatus, error)
}

type beingService struct {
	db               *gorm.DB
	log              *logger.Logger
	beingRepo        repos.BeingRepo
	conversationRepo repos.ConversationRepo
}

func NewBeingService(
	db *gorm.DB,
	log *logger.Logger,
	beingRepo repos.BeingRepo,
	conversationRepo repos.ConversationRepo,
) BeingService {
	serviceLog := log.With("service", "BeingService")
	return &beingService{
		db:               db,
		log:              serviceLog,
		beingRepo:        beingRepo,
		conversationRepo: conversationRepo,
	}
}

// GetOrCreateActive returns the user's active being of the given type,
// provisioning a fresh one when none exists. After a release the next
// chat births a new being; the released one stays in history.
func (bs *beingService) GetOrCreateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, beingType types.BeingType) (*types.Being, error) {
	being, err := bs.beingRepo.GetActiveByUserAndType(ctx, tx, userID, beingType)
	if err != nil {
		return nil, fmt.Errorf("fetch active being: %w", err)
	}
	if being != nil {
		return being, nil
	}

	now := time.Now().UTC()
	fresh := &types.Being{
		ID:                uuid.New(),
		UserID:            userID,
		BeingType:         beingType,
		BirthTimestamp:    now,
		Personality:       datatypes.JSONMap(consciousness.InitialTraits(beingType)),
		RelationshipDepth: types.DepthNew,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	created, err := bs.beingRepo.Create(ctx, tx, []*types.Being{fresh})
	if err != nil {
		// A concurrent request may have won the birth race; the partial
		// unique index rejects the duplicate, so re-read.
		existing, getErr := bs.beingRepo.GetActiveByUserAndType(ctx, tx, userID, beingType)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create being: %w", err)
	}
	bs.log.Info("being born", "user_id", userID, "being_type", beingType, "being_id", fresh.ID)
	return created[0], nil
}

// Snapshot assembles the per-request relationship view: counters off the
// row plus the most recent turns in chronological order.
func (bs *beingService) Snapshot(ctx context.Context, tx *gorm.DB, being *types.Being, historyLimit int) (consciousness.RelationshipSnapshot, error) {
	snap := consciousness.RelationshipSnapshot{
		DaysAlive:         being.DaysAlive(time.Now().UTC()),
		Depth:             being.RelationshipDepth,
		Traits:            map[string]interface{}(being.Personality),
		ConversationCount: being.ConversationCount,
		ResonanceCount:    being.ResonanceCount,
	}

	recent, err := bs.conversationRepo.GetRecentByBeing(ctx, tx, being.ID, historyLimit)
	if err != nil {
		return snap, fmt.Errorf("fetch recent conversations: %w", err)
	}
	// Newest-first from the repo; the prompt wants chronological order.
	for i := len(recent) - 1; i >= 0; i-- {
		snap.History = append(snap.History, consciousness.Turn{
			UserMessage:   recent[i].UserMessage,
			BeingResponse: recent[i].BeingResponse,
		})
	}
	return snap, nil
}

func (bs *beingService) Status(ctx context.Context, userID uuid.UUID, beingType types.BeingType) (*BeingStatus, error) {
	being, err := bs.beingRepo.GetActiveByUserAndType(ctx, nil, userID, beingType)
	if err != nil {
		return nil, fmt.Errorf("fetch being: %w", err)
	}
	if being == nil {
		return nil, nil
	}
	return statusOf(being), nil
}

// Release deactivates the being and freezes a legacy snapshot of what
// the relationship reached. Released beings never chat again; the next
// chat of this type starts over with a new being.
func (bs *beingService) Release(ctx context.Context, userID uuid.UUID, beingType types.BeingType, reason string) (*BeingStatus, error) {
	var released *types.Being
	err := bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		being, err := bs.beingRepo.GetActiveByUserAndType(ctx, tx, userID, beingType)
		if err != nil {
			return fmt.Errorf("fetch being: %w", err)
		}
		if being == nil {
			return fmt.Errorf("no active being of type %s", beingType)
		}

		now := time.Now().UTC()
		if reason == "" {
			reason = "released by user"
		}
		being.DeathTimestamp = &now
		being.DeathReason = reason
		being.LegacyData = datatypes.JSONMap{
			"days_alive":         being.DaysAlive(now),
			"conversation_count": being.ConversationCount,
			"resonance_count":    being.ResonanceCount,
			"meaningful_moments": being.MeaningfulMoments,
			"depth_achieved":     string(being.RelationshipDepth),
			"final_traits":       map[string]interface{}(being.Personality),
		}
		if err := bs.beingRepo.Deactivate(ctx, tx, being); err != nil {
			return fmt.Errorf("deactivate being: %w", err)
		}
		being.IsActive = false
		released = being
		return nil
	})
	if err != nil {
		return nil, err
	}
	bs.log.Info("being released", "user_id", userID, "being_type", beingType, "being_id", released.ID)
	return statusOf(released), nil
}

func statusOf(being *types.Being) *BeingStatus {
	return &BeingStatus{
		BeingID:           being.ID,
		BeingType:         being.BeingType,
		DaysAlive:         being.DaysAlive(time.Now().UTC()),
		RelationshipDepth: being.RelationshipDepth,
		ConversationCount: being.ConversationCount,
		ResonanceCount:    being.ResonanceCount,
		MeaningfulMoments: being.MeaningfulMoments,
		IsActive:          being.IsActive,
		BirthTimestamp:    being.BirthTimestamp,
		DeathTimestamp:    being.DeathTimestamp,
		DeathReason:       being.DeathReason,
	}
}
