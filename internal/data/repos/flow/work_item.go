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

type WorkItemRepo interface {
	Create(dbc dbctx.Context, rows []*domain.WorkItem) ([]*domain.WorkItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.WorkItem, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.WorkItem, error)
	ListByStream(dbc dbctx.Context, streamID uuid.UUID) ([]*domain.WorkItem, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.WorkItem, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type workItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkItemRepo(db *gorm.DB, baseLog *logger.Logger) WorkItemRepo {
	return &workItemRepo{db: db, log: baseLog.With("repo", "WorkItemRepo")}
}

func (r *workItemRepo) Create(dbc dbctx.Context, rows []*domain.WorkItem) ([]*domain.WorkItem, error) {
	if len(rows) == 0 {
		return []*domain.WorkItem{}, nil
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

func (r *workItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.WorkItem, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.WorkItem
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *workItemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.WorkItem, error) {
	if len(ids) == 0 {
		return []*domain.WorkItem{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.WorkItem
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *workItemRepo) ListByStream(dbc dbctx.Context, streamID uuid.UUID) ([]*domain.WorkItem, error) {
	if streamID == uuid.Nil {
		return nil, fmt.Errorf("missing stream_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.WorkItem
	if err := txx.WithContext(dbc.Ctx).
		Where("stream_id = ?", streamID).
		Order("stream_position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *workItemRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*domain.WorkItem, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out domain.WorkItem
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *workItemRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&domain.WorkItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *workItemRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&domain.WorkItem{}).Error
}
