package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contributor is the per-item roster row for one actor. At most one row per
// work item carries is_primary = true, and that row's user id must equal the
// item's primary_diver_id.
type Contributor struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkItemID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contributor_pair" json:"work_item_id"`
	WorkItem           *WorkItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:WorkItemID;references:ID" json:"work_item,omitempty"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contributor_pair" json:"user_id"`
	User               *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	IsPrimary          bool      `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	EnergyContributed  int       `gorm:"column:energy_contributed;not null;default:0" json:"energy_contributed"`
	FirstContributedAt time.Time `gorm:"column:first_contributed_at;not null;default:now()" json:"first_contributed_at"`
	LastContributedAt  time.Time `gorm:"column:last_contributed_at;not null;default:now()" json:"last_contributed_at"`
}

func (Contributor) TableName() string { return "contributor" }
