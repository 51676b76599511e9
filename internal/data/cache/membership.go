package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// MembershipCache is a read-through cache for team membership checks.
// A nil *MembershipCache is valid and always misses, so callers never
// depend on redis for correctness.
type MembershipCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewMembershipCache connects to REDIS_ADDR. Returns (nil, nil) when the
// address is unset; that disables caching rather than failing startup.
func NewMembershipCache(log *logger.Logger) (*MembershipCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := 60 * time.Second
	if raw := strings.TrimSpace(os.Getenv("MEMBERSHIP_CACHE_TTL_SECONDS")); raw != "" {
		var secs int
		if _, err := fmt.Sscanf(raw, "%d", &secs); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	return &MembershipCache{
		log: log.With("service", "MembershipCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *MembershipCache) Client() *goredis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func key(teamID, userID uuid.UUID) string {
	return "lf:member:" + teamID.String() + ":" + userID.String()
}

// Get returns (isMember, found). Any redis error degrades to a miss.
func (c *MembershipCache) Get(ctx context.Context, teamID, userID uuid.UUID) (bool, bool) {
	if c == nil || c.rdb == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, key(teamID, userID)).Result()
	if err != nil {
		if err != goredis.Nil && c.log != nil {
			c.log.Warn("membership cache read failed", "error", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *MembershipCache) Set(ctx context.Context, teamID, userID uuid.UUID, isMember bool) {
	if c == nil || c.rdb == nil {
		return
	}
	val := "0"
	if isMember {
		val = "1"
	}
	if err := c.rdb.Set(ctx, key(teamID, userID), val, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Warn("membership cache write failed", "error", err)
	}
}

// Invalidate drops the pair after a roster change.
func (c *MembershipCache) Invalidate(ctx context.Context, teamID, userID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(teamID, userID)).Err(); err != nil && c.log != nil {
		c.log.Warn("membership cache invalidate failed", "error", err)
	}
}

func (c *MembershipCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
