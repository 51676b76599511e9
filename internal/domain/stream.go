package domain

import (
	"time"

	"github.com/google/uuid"
)

// StreamState is the stream's own lifecycle, independent of its items.
type StreamState string

const (
	StreamFlowing StreamState = "flowing"
	StreamFrozen  StreamState = "frozen"
)

// Stream is an organizational bucket of work items. ItemCount and
// CrystalCount summarize the item rows underneath it; they are written only
// by work item aggregate commits, never directly by callers.
type Stream struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TeamID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"team_id"`
	Team         *Team       `gorm:"constraint:OnDelete:CASCADE;foreignKey:TeamID;references:ID" json:"team,omitempty"`
	Name         string      `gorm:"column:name;not null" json:"name"`
	Description  string      `gorm:"column:description" json:"description"`
	State        StreamState `gorm:"column:state;not null;default:'flowing'" json:"state"`
	ItemCount    int64       `gorm:"column:item_count;not null;default:0" json:"item_count"`
	CrystalCount int64       `gorm:"column:crystal_count;not null;default:0" json:"crystal_count"`
	CreatedAt    time.Time   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Stream) TableName() string { return "stream" }
