package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/echoframe-backend/internal/logger"
)

// UsageCache is an optional fast path for quota reads. The relational
// ledger stays authoritative; every cache failure degrades to the DB,
// and DB failures fail open. Counts expire shortly after the UTC day
// they belong to.
type UsageCache interface {
	GetCountToday(ctx context.Context, userID uuid.UUID, usageDate string) (int, bool)
	SetCountToday(ctx context.Context, userID uuid.UUID, usageDate string, count int)
	Close() error
}

type usageCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewUsageCache(log *logger.Logger) (UsageCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
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

	return &usageCache{
		log: log.With("service", "RedisUsageCache"),
		rdb: rdb,
	}, nil
}

func usageKey(userID uuid.UUID, usageDate string) string {
	return "usage:" + usageDate + ":" + userID.String()
}

func (c *usageCache) GetCountToday(ctx context.Context, userID uuid.UUID, usageDate string) (int, bool) {
	val, err := c.rdb.Get(ctx, usageKey(userID, usageDate)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("usage cache read failed", "error", err)
		}
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *usageCache) SetCountToday(ctx context.Context, userID uuid.UUID, usageDate string, count int) {
	// Expire a little past the UTC day boundary; a stale value only ever
	// under- or over-counts by what the DB would have said anyway.
	if err := c.rdb.Set(ctx, usageKey(userID, usageDate), count, 26*time.Hour).Err(); err != nil {
		c.log.Debug("usage cache write failed", "error", err)
	}
}

func (c *usageCache) Close() error {
	return c.rdb.Close()
}
