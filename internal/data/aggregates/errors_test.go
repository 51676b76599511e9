package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
)

func TestMapErrorSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want domainagg.ErrorCode
	}{
		{ValidationError("bad input"), domainagg.CodeValidation},
		{InvariantError("bad edge"), domainagg.CodeInvariantViolation},
		{ConflictError("lost race"), domainagg.CodeConflict},
		{RetryableError("try again"), domainagg.CodeRetryable},
		{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{context.Canceled, domainagg.CodeRetryable},
		{context.DeadlineExceeded, domainagg.CodeRetryable},
		{errors.New("something broke"), domainagg.CodeInternal},
	}
	for _, c := range cases {
		mapped := MapError("test.op", c.err)
		if !domainagg.IsCode(mapped, c.want) {
			t.Fatalf("MapError(%v): want=%s got=%s", c.err, c.want, domainagg.CodeOf(mapped))
		}
	}
}

func TestMapErrorPostgresCodes(t *testing.T) {
	cases := []struct {
		sqlstate string
		want     domainagg.ErrorCode
	}{
		{"23505", domainagg.CodeConflict},
		{"23503", domainagg.CodePreconditionFailed},
		{"40001", domainagg.CodeRetryable},
		{"40P01", domainagg.CodeRetryable},
		{"55P03", domainagg.CodeRetryable},
	}
	for _, c := range cases {
		mapped := MapError("test.op", &pgconn.PgError{Code: c.sqlstate})
		if !domainagg.IsCode(mapped, c.want) {
			t.Fatalf("sqlstate %s: want=%s got=%s", c.sqlstate, c.want, domainagg.CodeOf(mapped))
		}
	}
}

func TestMapErrorPassesThroughDomainErrors(t *testing.T) {
	orig := domainagg.NewError(domainagg.CodeNotAuthorized, "op", "nope", nil)
	if mapped := MapError("other.op", orig); mapped != orig {
		t.Fatalf("domain errors must pass through unchanged")
	}
}

func TestMapErrorNil(t *testing.T) {
	if MapError("test.op", nil) != nil {
		t.Fatalf("nil must map to nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("sqlstate 23505 is a unique violation")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "idx_open_timer"`)) {
		t.Fatalf("message match should detect unique violation")
	}
	if IsUniqueViolation(errors.New("connection refused")) {
		t.Fatalf("unrelated error is not a unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a unique violation")
	}
}
