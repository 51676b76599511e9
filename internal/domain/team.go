package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team owns streams. TotalCrystals is denormalized: it must equal the sum of
// crystal_count across the team's streams and is mutated only inside work
// item aggregate commits.
type Team struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	TotalCrystals int64     `gorm:"column:total_crystals;not null;default:0" json:"total_crystals"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Team) TableName() string { return "team" }

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// TeamMember joins users onto teams. Membership is the authorization unit:
// every engine operation requires the actor to be a member of the team that
// owns the target stream.
type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_member_pair" json:"team_id"`
	Team      *Team     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TeamID;references:ID" json:"team,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_member_pair" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Role      string    `gorm:"column:role;not null;default:'member'" json:"role"`
	JoinedAt  time.Time `gorm:"column:joined_at;not null;default:now()" json:"joined_at"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TeamMember) TableName() string { return "team_member" }
