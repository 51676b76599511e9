package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/pkg/ctxutil"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authTestRouter(t *testing.T) (*gin.Engine, *ctxutil.RequestData) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	am := NewAuthMiddleware(log, testSecret, nil)

	captured := &ctxutil.RequestData{}
	r := gin.New()
	r.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			*captured = *rd
		}
		c.Status(http.StatusOK)
	})
	return r, captured
}

func TestRequireAuthValidToken(t *testing.T) {
	r, captured := authTestRouter(t)

	actorID := uuid.New()
	teamID := uuid.New()
	token := signToken(t, Claims{
		TeamID: teamID.String(),
		Email:  "diver@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if captured.ActorID != actorID {
		t.Fatalf("actor_id: want=%s got=%s", actorID, captured.ActorID)
	}
	if captured.TeamID != teamID {
		t.Fatalf("team_id: want=%s got=%s", teamID, captured.TeamID)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	r, captured := authTestRouter(t)

	actorID := uuid.New()
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: actorID.String()},
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	if captured.ActorID != actorID {
		t.Fatalf("actor_id: want=%s got=%s", actorID, captured.ActorID)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	r, _ := authTestRouter(t)

	run := func(t *testing.T, header string) int {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("missing token", func(t *testing.T) {
		if got := run(t, ""); got != http.StatusUnauthorized {
			t.Fatalf("want=401 got=%d", got)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
		}, "other-secret")
		if got := run(t, "Bearer "+token); got != http.StatusUnauthorized {
			t.Fatalf("want=401 got=%d", got)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}, testSecret)
		if got := run(t, "Bearer "+token); got != http.StatusUnauthorized {
			t.Fatalf("want=401 got=%d", got)
		}
	})

	t.Run("non-uuid subject", func(t *testing.T) {
		token := signToken(t, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
		}, testSecret)
		if got := run(t, "Bearer "+token); got != http.StatusUnauthorized {
			t.Fatalf("want=401 got=%d", got)
		}
	})
}
