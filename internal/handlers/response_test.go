package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
)

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code domainagg.ErrorCode
		want int
	}{
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeNotAuthorized, http.StatusForbidden},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodeInvariantViolation, http.StatusConflict},
		{domainagg.CodePreconditionFailed, http.StatusConflict},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
		{domainagg.CodeInternal, http.StatusInternalServerError},
		{domainagg.ErrorCode("unknown"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForCode(tc.code); got != tc.want {
			t.Errorf("statusForCode(%s): want=%d got=%d", tc.code, tc.want, got)
		}
	}
}

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("coded error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		err := domainagg.NewError(domainagg.CodeNotFound, "Flow.WorkItem.GetWorkItem", "work item not found", nil)
		RespondDomainError(c, err)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status: want=404 got=%d", rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if env.Error.Code != "not_found" {
			t.Fatalf("code: want=not_found got=%s", env.Error.Code)
		}
	})

	t.Run("wrapped coded error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		inner := domainagg.NewError(domainagg.CodeConflict, "Flow.WorkItem.TransitionState", "energy state changed concurrently", nil)
		RespondDomainError(c, fmt.Errorf("transition: %w", inner))

		if rec.Code != http.StatusConflict {
			t.Fatalf("status: want=409 got=%d", rec.Code)
		}
	})

	t.Run("plain error falls through as 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondDomainError(c, errors.New("boom"))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status: want=500 got=%d", rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if env.Error.Code != "internal" {
			t.Fatalf("code: want=internal got=%s", env.Error.Code)
		}
	})
}
