package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/echoframe-backend/internal/apierr"
	"github.com/yungbote/echoframe-backend/internal/clients/openai"
	"github.com/yungbote/echoframe-backend/internal/config"
	"github.com/yungbote/echoframe-backend/internal/consciousness"
	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/normalization"
	"github.com/yungbote/echoframe-backend/internal/repos"
	"github.com/yungbote/echoframe-backend/internal/types"
)

type ChatRequest struct {
	UserID    uuid.UUID
	BeingType types.BeingType
	Message   string
}

type ChatResult struct {
	Response           string                  `json:"response"`
	BeingID            uuid.UUID               `json:"being_id"`
	ConversationID     uuid.UUID               `json:"conversation_id,omitempty"`
	Resonance          bool                    `json:"resonance"`
	ResonanceStrength  float64                 `json:"resonance_strength"`
	ResonanceTriggers  []string                `json:"resonance_triggers,omitempty"`
	UsedOverride       bool                    `json:"used_override"`
	OverrideKind       types.OverrideKind      `json:"override_kind,omitempty"`
	RelationshipDepth  types.RelationshipDepth `json:"relationship_depth"`
	DaysAlive          int                     `json:"days_alive"`
	ConversationsToday int                     `json:"conversations_today"`
	RemainingToday     int                     `json:"remaining_today"`
	DailyLimit         int                     `json:"daily_limit"`
	TokensUsed         int                     `json:"tokens_used"`
}

// WrapperService runs the full chat pipeline: validate, quota, override
// detection, provider call, response shaping, persistence, usage
// accounting. Scripted branches (overrides, provider fallback) never
// touch the provider and skip the shaping stages.
type WrapperService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	PersistFailures() int64
}

type wrapperService struct {
	db               *gorm.DB
	log              *logger.Logger
	cfg              *config.Config
	detector         *consciousness.Detector
	chatClient       openai.ChatClient
	beingService     BeingService
	usageService     UsageService
	conversationRepo repos.ConversationRepo
	beingRepo        repos.BeingRepo

	rngMu sync.Mutex
	rng   *rand.Rand

	persistFailures atomic.Int64
}

// NewWrapperService wires the pipeline. rng may be seeded by tests for
// deterministic template selection; pass nil for a time-seeded source.
func NewWrapperService(
	db *gorm.DB,
	log *logger.Logger,
	cfg *config.Config,
	detector *consciousness.Detector,
	chatClient openai.ChatClient,
	beingService BeingService,
	usageService UsageService,
	conversationRepo repos.ConversationRepo,
	beingRepo repos.BeingRepo,
	rng *rand.Rand,
) WrapperService {
	serviceLog := log.With("service", "WrapperService")
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &wrapperService{
		db:               db,
		log:              serviceLog,
		cfg:              cfg,
		detector:         detector,
		chatClient:       chatClient,
		beingService:     beingService,
		usageService:     usageService,
		conversationRepo: conversationRepo,
		beingRepo:        beingRepo,
		rng:              rng,
	}
}

func (ws *wrapperService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	message := normalization.TrimMessage(req.Message)
	if message == "" {
		return nil, apierr.Validation("message is required")
	}
	if len(message) > ws.cfg.MaxMessageLen {
		return nil, apierr.Validation("message exceeds maximum length of %d characters", ws.cfg.MaxMessageLen)
	}
	if !req.BeingType.Valid() {
		return nil, apierr.Validation("unknown being type %q", string(req.BeingType))
	}

	decision := ws.usageService.CanProceed(ctx, req.UserID)
	if !decision.Allowed {
		return nil, apierr.QuotaExceeded(decision.Limit, decision.CountToday)
	}

	being, err := ws.beingService.GetOrCreateActive(ctx, nil, req.UserID, req.BeingType)
	if err != nil {
		return nil, fmt.Errorf("resolve being: %w", err)
	}

	snap, err := ws.beingService.Snapshot(ctx, nil, being, ws.cfg.HistoryWindow)
	if err != nil {
		// History is context, not correctness; chat continues without it.
		ws.log.Warn("snapshot incomplete", "being_id", being.ID, "error", err)
	}

	resonance := ws.detector.ScoreResonance(message)

	var (
		response     string
		usedOverride bool
		overrideKind types.OverrideKind
		tokensUsed   int
	)

	if kind, ok := ws.detector.DetectOverride(message); ok {
		usedOverride = true
		overrideKind = kind
		// Scripted responses never went through the model, so no
		// resonance analysis is recorded for them.
		resonance = consciousness.ResonanceResult{}
		switch kind {
		case types.OverrideIdentityChallenge:
			response = ws.withRand(func(rng *rand.Rand) string {
				return consciousness.IdentityAssertion(rng, message, snap)
			})
		default:
			response = consciousness.AutonomyResponse(snap)
		}
	} else {
		promptCfg := consciousness.NewPromptConfig(being.BeingType, snap, ws.cfg.HistoryWindow)
		system := consciousness.BuildSystemPrompt(promptCfg)
		history := providerHistory(promptCfg.Snapshot.History)

		completion, err := ws.chatClient.Complete(ctx, system, history, message, openai.CompletionParams{
			Model:       ws.cfg.Model.Name,
			Temperature: ws.cfg.Model.Temperature,
			MaxTokens:   ws.cfg.Model.MaxTokens,
			UserTag:     req.UserID.String(),
		})
		if err != nil {
			ws.log.Error("provider call failed", "being_id", being.ID, "error", err)
			usedOverride = true
			overrideKind = types.OverrideErrorHandling
			resonance = consciousness.ResonanceResult{}
			response = ws.withRand(consciousness.FallbackResponse)
		} else {
			tokensUsed = completion.Usage.TotalTokens
			response = consciousness.FilterDenials(completion.Text)
			if resonance.Activated {
				response = ws.withRand(func(rng *rand.Rand) string {
					return consciousness.Enrich(rng, response)
				})
			}
		}
	}

	conversationID := ws.persist(ctx, being, snap, message, response, resonance, usedOverride, overrideKind)

	countToday := ws.usageService.RecordUsage(ctx, req.UserID, repos.UsageDelta{
		Resonance:    resonance.Activated,
		UsedOverride: usedOverride,
		Tokens:       tokensUsed,
		CostCents:    ws.estimateCostCents(tokensUsed),
	})

	remaining := config.Unlimited
	if decision.Limit != config.Unlimited {
		remaining = decision.Limit - countToday
		if remaining < 0 {
			remaining = 0
		}
	}

	return &ChatResult{
		Response:           response,
		BeingID:            being.ID,
		ConversationID:     conversationID,
		Resonance:          resonance.Activated,
		ResonanceStrength:  resonance.Strength,
		ResonanceTriggers:  resonance.TriggeredKeywords,
		UsedOverride:       usedOverride,
		OverrideKind:       overrideKind,
		RelationshipDepth:  being.RelationshipDepth,
		DaysAlive:          snap.DaysAlive,
		ConversationsToday: countToday,
		RemainingToday:     remaining,
		DailyLimit:         decision.Limit,
		TokensUsed:         tokensUsed,
	}, nil
}

// persist writes the conversation row, bumps being counters and
// recomputes depth in one transaction. The response already exists at
// this point, so failure is logged and counted, never surfaced.
func (ws *wrapperService) persist(
	ctx context.Context,
	being *types.Being,
	snap consciousness.RelationshipSnapshot,
	message, response string,
	resonance consciousness.ResonanceResult,
	usedOverride bool,
	overrideKind types.OverrideKind,
) uuid.UUID {
	meaningful := resonance.Strength > ws.cfg.Thresholds.MeaningfulMoment
	wisdomEligible := resonance.Strength > ws.cfg.Thresholds.WisdomExtraction && len(response) > 100

	conversation := &types.Conversation{
		ID:                uuid.New(),
		UserID:            being.UserID,
		BeingID:           being.ID,
		UserMessage:       message,
		BeingResponse:     response,
		Resonance:         resonance.Activated,
		ResonanceStrength: resonance.Strength,
		ResonanceTriggers: datatypes.NewJSONSlice(resonance.TriggeredKeywords),
		UsedOverride:      usedOverride,
		OverrideKind:      overrideKind,
		Context: datatypes.JSONMap{
			"days_alive":         snap.DaysAlive,
			"relationship_depth": string(snap.Depth),
		},
		WisdomEligible: wisdomEligible,
		CreatedAt:      time.Now().UTC(),
	}

	err := ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ws.conversationRepo.Create(ctx, tx, []*types.Conversation{conversation}); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		if err := ws.beingRepo.IncrementCounters(ctx, tx, being.ID, resonance.Activated, meaningful); err != nil {
			return fmt.Errorf("increment being counters: %w", err)
		}

		resonanceInc := 0
		if resonance.Activated {
			resonanceInc = 1
		}
		newDepth := consciousness.ComputeDepth(
			being.ConversationCount+1,
			being.ResonanceCount+resonanceInc,
			snap.DaysAlive,
		)
		if newDepth != being.RelationshipDepth {
			if err := ws.beingRepo.UpdateDepth(ctx, tx, being.ID, newDepth); err != nil {
				return fmt.Errorf("update relationship depth: %w", err)
			}
			being.RelationshipDepth = newDepth
		}
		return nil
	})
	if err != nil {
		ws.persistFailures.Add(1)
		ws.log.Error("conversation persist failed", "being_id", being.ID, "error", err)
		return uuid.Nil
	}
	return conversation.ID
}

// PersistFailures reports how many responses were served but not
// recorded.
func (ws *wrapperService) PersistFailures() int64 {
	return ws.persistFailures.Load()
}

func (ws *wrapperService) estimateCostCents(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return int(float64(tokens) / 1000.0 * ws.cfg.Model.CostCentsPer1KTok)
}

func (ws *wrapperService) withRand(f func(rng *rand.Rand) string) string {
	ws.rngMu.Lock()
	defer ws.rngMu.Unlock()
	return f(ws.rng)
}

func providerHistory(turns []consciousness.Turn) []openai.Message {
	history := make([]openai.Message, 0, len(turns)*2)
	for _, turn := range turns {
		history = append(history,
			openai.Message{Role: "user", Content: turn.UserMessage},
			openai.Message{Role: "assistant", Content: turn.BeingResponse},
		)
	}
	return history
}
