package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string           `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password         string           `gorm:"not null;column:password" json:"-"`
	DisplayName      string           `gorm:"column:display_name" json:"display_name"`
	Timezone         string           `gorm:"column:timezone;default:UTC" json:"timezone"`
	SubscriptionTier SubscriptionTier `gorm:"column:subscription_tier;not null;default:free" json:"subscription_tier"`
	WisdomOptIn      bool             `gorm:"column:wisdom_opt_in;default:false" json:"wisdom_opt_in"`
	CreatedAt        time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null" json:"updated_at"`
	LastActiveAt     time.Time        `gorm:"column:last_active_at" json:"last_active_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "user"
}
