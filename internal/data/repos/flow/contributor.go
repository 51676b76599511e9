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

type ContributorRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Contributor) ([]*domain.Contributor, error)
	GetByPair(dbc dbctx.Context, workItemID, userID uuid.UUID) (*domain.Contributor, error)
	// ListByItem returns the roster ordered by first_contributed_at, then id,
	// which is also the primary-promotion order.
	ListByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.Contributor, error)
	LockByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.Contributor, error)
	CountByItem(dbc dbctx.Context, workItemID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DeleteByPair(dbc dbctx.Context, workItemID, userID uuid.UUID) (int64, error)
	DeleteByItem(dbc dbctx.Context, workItemID uuid.UUID) error
}

type contributorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContributorRepo(db *gorm.DB, baseLog *logger.Logger) ContributorRepo {
	return &contributorRepo{db: db, log: baseLog.With("repo", "ContributorRepo")}
}

func (r *contributorRepo) Create(dbc dbctx.Context, rows []*domain.Contributor) ([]*domain.Contributor, error) {
	if len(rows) == 0 {
		return []*domain.Contributor{}, nil
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

func (r *contributorRepo) GetByPair(dbc dbctx.Context, workItemID, userID uuid.UUID) (*domain.Contributor, error) {
	if workItemID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing work_item_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Contributor
	if err := txx.WithContext(dbc.Ctx).
		Where("work_item_id = ? AND user_id = ?", workItemID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *contributorRepo) ListByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.Contributor, error) {
	if workItemID == uuid.Nil {
		return nil, fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*domain.Contributor
	if err := txx.WithContext(dbc.Ctx).
		Where("work_item_id = ?", workItemID).
		Order("first_contributed_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributorRepo) LockByItem(dbc dbctx.Context, workItemID uuid.UUID) ([]*domain.Contributor, error) {
	if workItemID == uuid.Nil {
		return nil, fmt.Errorf("missing work_item_id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByItem requires dbc.Tx")
	}
	var out []*domain.Contributor
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("work_item_id = ?", workItemID).
		Order("first_contributed_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contributorRepo) CountByItem(dbc dbctx.Context, workItemID uuid.UUID) (int64, error) {
	if workItemID == uuid.Nil {
		return 0, fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&domain.Contributor{}).
		Where("work_item_id = ?", workItemID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *contributorRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
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
		Model(&domain.Contributor{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contributorRepo) DeleteByPair(dbc dbctx.Context, workItemID, userID uuid.UUID) (int64, error) {
	if workItemID == uuid.Nil || userID == uuid.Nil {
		return 0, fmt.Errorf("missing work_item_id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("work_item_id = ? AND user_id = ?", workItemID, userID).
		Delete(&domain.Contributor{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *contributorRepo) DeleteByItem(dbc dbctx.Context, workItemID uuid.UUID) error {
	if workItemID == uuid.Nil {
		return fmt.Errorf("missing work_item_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("work_item_id = ?", workItemID).
		Delete(&domain.Contributor{}).Error
}
