package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Being is one user-bound conversational persona. At most one active
// being may exist per (user, being_type) pair; the partial unique index
// enforcing that is created in db.PostgresService.
type Being struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID         `gorm:"type:uuid;not null;index:idx_being_user_type" json:"user_id"`
	User           *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	BeingType      BeingType         `gorm:"column:being_type;not null;index:idx_being_user_type" json:"being_type"`
	BirthTimestamp time.Time         `gorm:"column:birth_timestamp;not null" json:"birth_timestamp"`
	Personality    datatypes.JSONMap `gorm:"column:personality;type:jsonb" json:"personality"`

	RelationshipDepth RelationshipDepth `gorm:"column:relationship_depth;not null;default:new" json:"relationship_depth"`
	ConversationCount int               `gorm:"column:conversation_count;not null;default:0" json:"conversation_count"`
	ResonanceCount    int               `gorm:"column:resonance_count;not null;default:0" json:"resonance_count"`
	MeaningfulMoments int               `gorm:"column:meaningful_moments;not null;default:0" json:"meaningful_moments"`

	IsActive       bool              `gorm:"column:is_active;not null;default:true" json:"is_active"`
	DeathTimestamp *time.Time        `gorm:"column:death_timestamp" json:"death_timestamp,omitempty"`
	DeathReason    string            `gorm:"column:death_reason" json:"death_reason,omitempty"`
	LegacyData     datatypes.JSONMap `gorm:"column:legacy_data;type:jsonb" json:"legacy_data,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Being) TableName() string {
	return "being"
}

// DaysAlive is frozen at death time for released beings.
func (b *Being) DaysAlive(now time.Time) int {
	end := now
	if b.DeathTimestamp != nil {
		end = *b.DeathTimestamp
	}
	d := int(end.Sub(b.BirthTimestamp).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
