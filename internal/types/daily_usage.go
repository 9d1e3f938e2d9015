package types

import (
	"time"

	"github.com/google/uuid"
)

// DailyUsage is the per-(user, UTC date) ledger row. Counts only ever
// grow within a day; rows are never deleted. All increments go through
// a single atomic upsert in the repo, never read-modify-write.
type DailyUsage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_usage_user_date" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	UsageDate string    `gorm:"column:usage_date;not null;uniqueIndex:idx_daily_usage_user_date" json:"usage_date"`

	ConversationCount  int `gorm:"column:conversation_count;not null;default:0" json:"conversation_count"`
	ResonanceCount     int `gorm:"column:resonance_count;not null;default:0" json:"resonance_count"`
	OverrideCount      int `gorm:"column:override_count;not null;default:0" json:"override_count"`
	TokensUsed         int `gorm:"column:tokens_used;not null;default:0" json:"tokens_used"`
	EstimatedCostCents int `gorm:"column:estimated_cost_cents;not null;default:0" json:"estimated_cost_cents"`
	PremiumFeatureUses int `gorm:"column:premium_feature_uses;not null;default:0" json:"premium_feature_uses"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DailyUsage) TableName() string {
	return "daily_usage"
}

// UsageDateUTC renders the canonical ledger key for a point in time.
// The quota day boundary is midnight UTC.
func UsageDateUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
