package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
)

// TxRunner is the commit boundary for lifecycle writes. Everything a single
// operation changes happens inside one InTx call.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// NewGormTxRunner returns the production runner. Tests substitute doubles to
// inject begin or commit failures.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return gormTxRunner{db: db}
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
