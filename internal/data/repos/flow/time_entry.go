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

type TimeEntryRepo interface {
	Create(dbc dbctx.Context, rows []*domain.TimeEntry) ([]*domain.TimeEntry, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.TimeEntry, error)
	ListByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.TimeEntry, error)
	// LockOpenByPair takes the open entry for the pair with a row lock, or
	// returns nil when no timer is running.
	LockOpenByPair(dbc dbctx.Context, workItemID, userID uuid.UUID) (*domain.TimeEntry, error)
	// SumStoppedSeconds totals duration_seconds over stopped entries.
	SumStoppedSeconds(dbc dbctx.Context, workItemID uuid.UUID) (int64, error)
	ListOpenByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.TimeEntry, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
	DeleteByItem(dbc dbctx.Context, workItemID uuid.UUID) error
}

type timeEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimeEntryRepo(db *gorm.DB, baseLog *logger.Logger) TimeEntryRepo {
	return &timeEntryRepo{db: db, log: baseLog.With("repo", "TimeEntryRepo")}
}

func (r *timeEntryRepo) Create(dbc dbctx.Context, rows []*domain.TimeEntry) ([]*domain.TimeEntry, error) {
	if len(rows) == 0 {
		return []*domain.TimeEntry{}, nil
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

func (r *timeEntryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.TimeEntry, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.TimeEntry
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

func (r *timeEntryRepo) ListByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.TimeEntry, error) {
	if workItemID == uuid.Nil {
		return nil, fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.TimeEntry
	if err := txx.WithContext(dbc.Ctx).
		Where("work_item_id = ?", workItemID).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *timeEntryRepo) LockOpenByPair(dbc dbctx.Context, workItemID, userID uuid.UUID) (*domain.TimeEntry, error) {
	if workItemID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing work_item_id or user_id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockOpenByPair requires dbc.Tx")
	}
	var out []*domain.TimeEntry
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("work_item_id = ? AND user_id = ? AND stopped_at IS NULL", workItemID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *timeEntryRepo) SumStoppedSeconds(dbc dbctx.Context, workItemID uuid.UUID) (int64, error) {
	if workItemID == uuid.Nil {
		return 0, fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var total *int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.TimeEntry{}).
		Select("SUM(duration_seconds)").
		Where("work_item_id = ? AND stopped_at IS NOT NULL", workItemID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *timeEntryRepo) ListOpenByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.TimeEntry, error) {
	if workItemID == uuid.Nil {
		return nil, fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.TimeEntry
	if err := txx.WithContext(dbc.Ctx).
		Where("work_item_id = ? AND stopped_at IS NULL", workItemID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *timeEntryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
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
		Model(&domain.TimeEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *timeEntryRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&domain.TimeEntry{}).Error
}

func (r *timeEntryRepo) DeleteByItem(dbc dbctx.Context, workItemID uuid.UUID) error {
	if workItemID == uuid.Nil {
		return fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("work_item_id = ?", workItemID).
		Delete(&domain.TimeEntry{}).Error
}
