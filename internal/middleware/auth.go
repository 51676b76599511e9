package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/pkg/ctxutil"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
	"github.com/lumenflow/lumenflow-backend/internal/services"
)

// Claims carries the actor identity. Token issuance belongs to the identity
// provider; this boundary only verifies.
type Claims struct {
	TeamID string `json:"team_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log       *logger.Logger
	secretKey []byte
	users     services.UserService
}

// NewAuthMiddleware builds the bearer-token boundary. users may be nil to
// skip just-in-time provisioning of local user rows.
func NewAuthMiddleware(log *logger.Logger, secretKey string, users services.UserService) *AuthMiddleware {
	return &AuthMiddleware{
		log:       log.With("middleware", "AuthMiddleware"),
		secretKey: []byte(secretKey),
		users:     users,
	}
}

// RequireAuth verifies the bearer token and stashes the resolved actor in
// the request context as RequestData.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		claims, err := am.verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		actorID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject in token"})
			return
		}
		if am.users != nil {
			if err := am.users.EnsureUser(c.Request.Context(), actorID, claims.Email, claims.Name); err != nil {
				am.log.Warn("user provisioning failed", "error", err, "user_id", actorID)
			}
		}
		rd := &ctxutil.RequestData{ActorID: actorID}
		if claims.TeamID != "" {
			if teamID, err := uuid.Parse(claims.TeamID); err == nil {
				rd.TeamID = teamID
			}
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return am.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return c.Query("token")
}
