package locker

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a cross-process Locker. Each lock is a key set with NX and a TTL
// holding a random token; release deletes the key only while the token matches.
//
// The TTL is not extended while a workflow runs. A holder that outlives it
// loses exclusion. The status checks made on rows read FOR UPDATE inside the
// transaction, and the unique (period, period_value) index on profit sharings,
// still reject the duplicate write. Release reports such an expiry in the log.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *logrus.Entry
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *logrus.Entry) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	name := r.prefix + key
	token := uuid.NewString()
	wait := r.retry

	for {
		ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		if wait < time.Second {
			wait *= 2
		}
	}

	held := time.Now()
	return func() {
		r.release(name, token, time.Since(held))
	}, nil
}

func (r *Redis) release(name, token string, held time.Duration) {
	logger := r.logger.WithFields(logrus.Fields{"lock": name, "held": held.String()})

	deleted, err := releaseScript.Run(context.Background(), r.client, []string{name}, token).Int64()
	if err != nil {
		logger.WithError(err).Error("Failed to release lock")
		return
	}
	if deleted == 0 {
		logger.WithField("ttl", r.ttl.String()).Warn("Lock expired before release")
	}
}
