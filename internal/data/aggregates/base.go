package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// BaseDeps carries the write-side plumbing every lifecycle operation shares:
// the transaction runner, the energy-state CAS guard, and the hook sink.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	return d
}

// executeWrite runs one lifecycle operation inside a transaction. The item,
// stream, and team rows an operation touches commit together or not at all;
// the returned error always carries an aggregate error code.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}

	start := time.Now()
	mapped := MapError(op, deps.Runner.InTx(ctx, fn))
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case domainagg.IsCode(mapped, domainagg.CodeConflict):
		outcome = string(domainagg.CodeConflict)
		deps.Hooks.IncConflict(op)
	case domainagg.IsCode(mapped, domainagg.CodeRetryable):
		outcome = string(domainagg.CodeRetryable)
		deps.Hooks.IncRetry(op)
	case mapped != nil:
		outcome = outcomeLabel(mapped)
		if deps.Log != nil {
			deps.Log.Debug("aggregate write failed", "op", op, "code", outcome, "duration_ms", elapsed.Milliseconds())
		}
	}
	deps.Hooks.ObserveOperation(op, outcome, elapsed)
	return mapped
}

func outcomeLabel(err error) string {
	if code := strings.TrimSpace(string(domainagg.CodeOf(err))); code != "" {
		return code
	}
	return "failure"
}
