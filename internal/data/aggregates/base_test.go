package aggregates

import (
	"context"
	"sync"
	"testing"
	"time"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
)

type countingRunner struct {
	mu        sync.Mutex
	calls     int
	bodyErr   error
	runnerErr error
}

func (r *countingRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.runnerErr != nil {
		return r.runnerErr
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			return err
		}
	}
	return r.bodyErr
}

type recordingHooks struct {
	mu         sync.Mutex
	operations []string
	statuses   []string
	conflicts  []string
	retries    []string
}

func (h *recordingHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operations = append(h.operations, name)
	h.statuses = append(h.statuses, status)
}

func (h *recordingHooks) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conflicts = append(h.conflicts, name)
}

func (h *recordingHooks) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retries = append(h.retries, name)
}

func TestExecuteWriteSuccess(t *testing.T) {
	runner := &countingRunner{}
	hooks := &recordingHooks{}
	deps := BaseDeps{Runner: runner, Hooks: hooks, CASGuard: CASGuard{}}

	var ran bool
	err := executeWrite(context.Background(), deps, "Flow.Test", func(dbc dbctx.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ran {
		t.Fatalf("body should run")
	}
	if runner.calls != 1 {
		t.Fatalf("runner calls: want=1 got=%d", runner.calls)
	}
	if len(hooks.statuses) != 1 || hooks.statuses[0] != "success" {
		t.Fatalf("hook statuses: %v", hooks.statuses)
	}
}

func TestExecuteWriteMapsBodyError(t *testing.T) {
	runner := &countingRunner{}
	hooks := &recordingHooks{}
	deps := BaseDeps{Runner: runner, Hooks: hooks, CASGuard: CASGuard{}}

	err := executeWrite(context.Background(), deps, "Flow.Test", func(dbc dbctx.Context) error {
		return InvariantError("invalid transition")
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("want invariant_violation, got: %v", err)
	}
	if len(hooks.conflicts) != 0 {
		t.Fatalf("no conflict hook expected: %v", hooks.conflicts)
	}
}

func TestExecuteWriteCountsConflicts(t *testing.T) {
	runner := &countingRunner{}
	hooks := &recordingHooks{}
	deps := BaseDeps{Runner: runner, Hooks: hooks, CASGuard: CASGuard{}}

	err := executeWrite(context.Background(), deps, "Flow.Test", func(dbc dbctx.Context) error {
		return RequireCASSuccess(false, "stale")
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got: %v", err)
	}
	if len(hooks.conflicts) != 1 || hooks.conflicts[0] != "Flow.Test" {
		t.Fatalf("conflict hook: %v", hooks.conflicts)
	}
}

func TestExecuteWriteCountsRetries(t *testing.T) {
	runner := &countingRunner{runnerErr: RetryableError("deadlock detected")}
	hooks := &recordingHooks{}
	deps := BaseDeps{Runner: runner, Hooks: hooks, CASGuard: CASGuard{}}

	err := executeWrite(context.Background(), deps, "Flow.Test", nil)
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("want retryable, got: %v", err)
	}
	if len(hooks.retries) != 1 {
		t.Fatalf("retry hook: %v", hooks.retries)
	}
}
