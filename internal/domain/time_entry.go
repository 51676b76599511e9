package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is one recorded work session. DurationSeconds is written only
// when the entry is stopped; running totals are always derived at read time.
// The partial unique index enforces at most one open entry per
// (work_item_id, user_id) pair.
type TimeEntry struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkItemID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_open_timer,where:stopped_at IS NULL" json:"work_item_id"`
	WorkItem        *WorkItem  `gorm:"constraint:OnDelete:CASCADE;foreignKey:WorkItemID;references:ID" json:"work_item,omitempty"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_open_timer,where:stopped_at IS NULL" json:"user_id"`
	User            *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	StartedAt       time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	StoppedAt       *time.Time `gorm:"column:stopped_at" json:"stopped_at,omitempty"`
	DurationSeconds *int64     `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	Description     string     `gorm:"column:description" json:"description"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (TimeEntry) TableName() string { return "time_entry" }

// Open reports whether the entry is still running.
func (e *TimeEntry) Open() bool {
	return e != nil && e.StoppedAt == nil
}
