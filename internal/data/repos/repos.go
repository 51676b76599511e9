package repos

import (
	"gorm.io/gorm"

	"github.com/lumenflow/lumenflow-backend/internal/data/repos/flow"
	"github.com/lumenflow/lumenflow-backend/internal/data/repos/team"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

type UserRepo = team.UserRepo
type TeamRepo = team.TeamRepo
type TeamMemberRepo = team.TeamMemberRepo

type StreamRepo = flow.StreamRepo
type WorkItemRepo = flow.WorkItemRepo
type ContributorRepo = flow.ContributorRepo
type TimeEntryRepo = flow.TimeEntryRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return team.NewUserRepo(db, baseLog)
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	return team.NewTeamRepo(db, baseLog)
}

func NewTeamMemberRepo(db *gorm.DB, baseLog *logger.Logger) TeamMemberRepo {
	return team.NewTeamMemberRepo(db, baseLog)
}

func NewStreamRepo(db *gorm.DB, baseLog *logger.Logger) StreamRepo {
	return flow.NewStreamRepo(db, baseLog)
}

func NewWorkItemRepo(db *gorm.DB, baseLog *logger.Logger) WorkItemRepo {
	return flow.NewWorkItemRepo(db, baseLog)
}

func NewContributorRepo(db *gorm.DB, baseLog *logger.Logger) ContributorRepo {
	return flow.NewContributorRepo(db, baseLog)
}

func NewTimeEntryRepo(db *gorm.DB, baseLog *logger.Logger) TimeEntryRepo {
	return flow.NewTimeEntryRepo(db, baseLog)
}
