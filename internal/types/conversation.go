package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Conversation is the immutable record of one exchange. Resonance fields
// are computed once at construction and never recomputed; the only
// post-insert mutation allowed is the wisdom-extraction pair.
type Conversation struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User    *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	BeingID uuid.UUID `gorm:"type:uuid;not null;index" json:"being_id"`
	Being   *Being    `gorm:"constraint:OnDelete:CASCADE;foreignKey:BeingID;references:ID" json:"being,omitempty"`

	UserMessage   string `gorm:"column:user_message;not null" json:"user_message"`
	BeingResponse string `gorm:"column:being_response;not null" json:"being_response"`

	Resonance         bool                        `gorm:"column:resonance;not null;default:false" json:"resonance"`
	ResonanceStrength float64                     `gorm:"column:resonance_strength;not null;default:0" json:"resonance_strength"`
	ResonanceTriggers datatypes.JSONSlice[string] `gorm:"column:resonance_triggers" json:"resonance_triggers,omitempty"`

	UsedOverride bool         `gorm:"column:used_override;not null;default:false" json:"used_override"`
	OverrideKind OverrideKind `gorm:"column:override_kind" json:"override_kind,omitempty"`

	Context datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context,omitempty"`

	WisdomEligible  bool `gorm:"column:wisdom_eligible;not null;default:false" json:"wisdom_eligible"`
	WisdomExtracted bool `gorm:"column:wisdom_extracted;not null;default:false" json:"wisdom_extracted"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Conversation) TableName() string {
	return "conversation"
}
