package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "pbl:generation:"

// releaseScript deletes the lease only when this instance still owns it, so an expired
// lease re-acquired by another instance is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard holds a lease per learner in Redis. Leases expire after ttl, which bounds
// how long a crashed process can block regeneration.
type RedisGuard struct {
	rdb   goredis.UniversalClient
	ttl   time.Duration
	owner string
}

func NewRedisGuard(rdb goredis.UniversalClient, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisGuard{rdb: rdb, ttl: ttl, owner: uuid.NewString()}
}

func (g *RedisGuard) TryAdmit(ctx context.Context, learnerID string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, keyPrefix+learnerID, g.owner, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire generation lease: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, learnerID string) error {
	if err := releaseScript.Run(ctx, g.rdb, []string{keyPrefix + learnerID}, g.owner).Err(); err != nil {
		return fmt.Errorf("release generation lease: %w", err)
	}
	return nil
}

// NewRedisClient dials and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
