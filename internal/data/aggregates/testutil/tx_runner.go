package testutil

import (
	"context"
	"sync"

	"github.com/lumenflow/lumenflow-backend/internal/data/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
)

// InjectedTxRunner is a test double for aggregate write tests. It counts
// begin/commit/rollback calls and can inject failures at each boundary
// without a real database.
type InjectedTxRunner struct {
	mu sync.Mutex

	FailBegin  error
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.mu.Lock()
			r.RollbackCalls++
			r.mu.Unlock()
			return err
		}
	}
	if failCommit != nil {
		r.mu.Lock()
		r.RollbackCalls++
		r.mu.Unlock()
		return failCommit
	}
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
	return nil
}
