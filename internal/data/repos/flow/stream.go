package flow

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

type StreamRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Stream) ([]*domain.Stream, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Stream, error)
	ListByTeam(dbc dbctx.Context, teamID uuid.UUID) ([]*domain.Stream, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Stream, error)
	// AddCounters shifts item_count/crystal_count together, each floored at 0.
	// Callers must hold the row lock from LockByID in the same transaction.
	AddCounters(dbc dbctx.Context, id uuid.UUID, itemDelta, crystalDelta int64) error
}

type streamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreamRepo(db *gorm.DB, baseLog *logger.Logger) StreamRepo {
	return &streamRepo{db: db, log: baseLog.With("repo", "StreamRepo")}
}

func (r *streamRepo) Create(dbc dbctx.Context, rows []*domain.Stream) ([]*domain.Stream, error) {
	if len(rows) == 0 {
		return []*domain.Stream{}, nil
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

func (r *streamRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Stream, error) {
	if len(ids) == 0 {
		return []*domain.Stream{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Stream
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *streamRepo) ListByTeam(dbc dbctx.Context, teamID uuid.UUID) ([]*domain.Stream, error) {
	if teamID == uuid.Nil {
		return nil, fmt.Errorf("missing team_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Stream
	if err := txx.WithContext(dbc.Ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *streamRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.Stream, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out domain.Stream
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *streamRepo) AddCounters(dbc dbctx.Context, id uuid.UUID, itemDelta, crystalDelta int64) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return fmt.Errorf("AddCounters requires dbc.Tx")
	}
	updates := map[string]any{}
	if itemDelta != 0 {
		updates["item_count"] = gorm.Expr("GREATEST(item_count + ?, 0)", itemDelta)
	}
	if crystalDelta != 0 {
		updates["crystal_count"] = gorm.Expr("GREATEST(crystal_count + ?, 0)", crystalDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return dbc.Tx.WithContext(dbc.Ctx).
		Model(&domain.Stream{}).
		Where("id = ?", id).
		Updates(updates).Error
}
