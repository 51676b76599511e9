package db

import (
	"gorm.io/gorm"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + membership
		// =========================
		&domain.User{},
		&domain.Team{},
		&domain.TeamMember{},

		// =========================
		// Flow (streams + work items)
		// =========================
		&domain.Stream{},
		&domain.WorkItem{},
		&domain.Contributor{},
		&domain.TimeEntry{},
	)
}
