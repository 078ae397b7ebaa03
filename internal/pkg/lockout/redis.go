package lockout

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// releaseScript decrements without resurrecting an expired key and drops the
// key once it reaches zero.
var releaseScript = redis.NewScript(`
local n = redis.call('GET', KEYS[1])
if not n then
	return 0
end
if tonumber(n) <= 1 then
	redis.call('DEL', KEYS[1])
	return 0
end
return redis.call('DECR', KEYS[1])
`)

// Redis keeps counters in Redis so every instance shares the same view.
type Redis struct {
	client redis.UniversalClient
	prefix string
	cfg    Config
}

// NewRedis creates a Redis backed limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{
		client: client,
		prefix: "lockout:",
		cfg:    cfg.normalize(),
	}
}

// Reserve increments the counter and starts the window in one MULTI/EXEC.
// Refused attempts are given back so the counter stays at the allowance.
func (r *Redis) Reserve(ctx context.Context, key string) (bool, error) {
	fk := r.prefix + key

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fk)
		pipe.ExpireNX(ctx, fk, r.cfg.Window)
		return nil
	})
	if err != nil {
		return false, err
	}

	if incr.Val() <= int64(r.cfg.MaxFailures) {
		return true, nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{fk}).Err(); err != nil {
		return false, err
	}
	return false, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, r.client, []string{r.prefix + key}).Err()
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
