package aggregates

import (
	"testing"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := RequireCASSuccess(false, "stale state")
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	if !domainagg.IsCode(MapError("test", err), domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got: %v", err)
	}
}

func TestRequireStateAllowed(t *testing.T) {
	if err := RequireStateAllowed("kindling", "kindling", "blazing"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := RequireStateAllowed("crystallized", "kindling", "blazing")
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	if !domainagg.IsCode(MapError("test", err), domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got: %v", err)
	}
}
