package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WorkItem is a unit of work inside exactly one stream. StreamID is immutable
// after creation. PrimaryDiverID mirrors the contributor ledger: it always
// equals the user id of the single is_primary contributor row, or is null
// when the item has no contributors.
type WorkItem struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StreamID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"stream_id"`
	Stream         *Stream        `gorm:"constraint:OnDelete:CASCADE;foreignKey:StreamID;references:ID" json:"stream,omitempty"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description" json:"description"`
	EnergyState    EnergyState    `gorm:"column:energy_state;not null;default:'dormant';index" json:"energy_state"`
	EnergyLevel    int            `gorm:"column:energy_level;not null;default:0" json:"energy_level"`
	Depth          Depth          `gorm:"column:depth;not null;default:'shallow'" json:"depth"`
	StreamPosition float64        `gorm:"column:stream_position;not null;default:0" json:"stream_position"`
	PrimaryDiverID *uuid.UUID     `gorm:"type:uuid;index" json:"primary_diver_id,omitempty"`
	Tags           datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`

	// Set exactly once, never cleared.
	KindledAt      *time.Time `gorm:"column:kindled_at" json:"kindled_at,omitempty"`
	CrystallizedAt *time.Time `gorm:"column:crystallized_at" json:"crystallized_at,omitempty"`

	// Frozen at the moment of crystallization.
	CrystalFacets     *int `gorm:"column:crystal_facets" json:"crystal_facets,omitempty"`
	CrystalBrilliance *int `gorm:"column:crystal_brilliance" json:"crystal_brilliance,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (WorkItem) TableName() string { return "work_item" }
