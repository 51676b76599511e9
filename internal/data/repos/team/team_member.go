package team

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

type TeamMemberRepo interface {
	Create(dbc dbctx.Context, rows []*domain.TeamMember) ([]*domain.TeamMember, error)
	IsMember(dbc dbctx.Context, teamID, userID uuid.UUID) (bool, error)
	ListByTeam(dbc dbctx.Context, teamID uuid.UUID) ([]*domain.TeamMember, error)
	ListTeamsForUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.TeamMember, error)
}

type teamMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamMemberRepo(db *gorm.DB, baseLog *logger.Logger) TeamMemberRepo {
	return &teamMemberRepo{db: db, log: baseLog.With("repo", "TeamMemberRepo")}
}

func (r *teamMemberRepo) Create(dbc dbctx.Context, rows []*domain.TeamMember) ([]*domain.TeamMember, error) {
	if len(rows) == 0 {
		return []*domain.TeamMember{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *teamMemberRepo) IsMember(dbc dbctx.Context, teamID, userID uuid.UUID) (bool, error) {
	if teamID == uuid.Nil || userID == uuid.Nil {
		return false, fmt.Errorf("missing team_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *teamMemberRepo) ListByTeam(dbc dbctx.Context, teamID uuid.UUID) ([]*domain.TeamMember, error) {
	if teamID == uuid.Nil {
		return nil, fmt.Errorf("missing team_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.TeamMember
	if err := txx.WithContext(dbc.Ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamMemberRepo) ListTeamsForUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.TeamMember, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.TeamMember
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
