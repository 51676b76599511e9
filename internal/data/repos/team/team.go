package team

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

type TeamRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Team) ([]*domain.Team, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Team, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Team, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Team, error)
	// AddTotalCrystals shifts the denormalized crystal counter, floored at 0.
	// Callers must hold the row lock from LockByID in the same transaction.
	AddTotalCrystals(dbc dbctx.Context, id uuid.UUID, delta int64) error
}

type teamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamRepo(db *gorm.DB, baseLog *logger.Logger) TeamRepo {
	return &teamRepo{db: db, log: baseLog.With("repo", "TeamRepo")}
}

func (r *teamRepo) Create(dbc dbctx.Context, rows []*domain.Team) ([]*domain.Team, error) {
	if len(rows) == 0 {
		return []*domain.Team{}, nil
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

func (r *teamRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Team, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Team
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *teamRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Team, error) {
	if len(ids) == 0 {
		return []*domain.Team{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Team
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teamRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Team, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out domain.Team
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *teamRepo) AddTotalCrystals(dbc dbctx.Context, id uuid.UUID, delta int64) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return fmt.Errorf("AddTotalCrystals requires dbc.Tx")
	}
	return dbc.Tx.WithContext(dbc.Ctx).
		Model(&domain.Team{}).
		Where("id = ?", id).
		Update("total_crystals", gorm.Expr("GREATEST(total_crystals + ?, 0)", delta)).Error
}
