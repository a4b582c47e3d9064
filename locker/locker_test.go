package locker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedSerialisesSameKey(t *testing.T) {
	k := NewKeyed()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, BalanceKey("u1"))
			if !assert.NoError(t, err) {
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, k.locks)
}

func TestKeyedRespectsContext(t *testing.T) {
	k := NewKeyed()
	unlock, err := k.Lock(context.Background(), "period:profit:quarter:2024-Q4")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = k.Lock(ctx, "period:profit:quarter:2024-Q4")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := k.Lock(context.Background(), "period:profit:quarter:2025-Q1")
	require.NoError(t, err)
	other()
}

func TestLockAllReleasesOnFailure(t *testing.T) {
	k := NewKeyed()
	held, err := k.Lock(context.Background(), "b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = LockAll(ctx, k, "a", "b")
	require.Error(t, err)
	held()

	unlock, err := LockAll(context.Background(), k, "a", "b")
	require.NoError(t, err)
	unlock()
}

func TestRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedis(client, "ledger:lock:", time.Minute, logrus.NewEntry(logrus.New()))

	unlock, err := l.Lock(context.Background(), DepositKey("d1"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("ledger:lock:deposit:d1"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, DepositKey("d1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("ledger:lock:deposit:d1"))

	again, err := l.Lock(context.Background(), DepositKey("d1"))
	require.NoError(t, err)
	again()
}

func TestRedisUnlockKeepsForeignToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger, hook := test.NewNullLogger()
	l := NewRedis(client, "", time.Minute, logrus.NewEntry(logger))

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	require.NoError(t, mr.Set("k", "someone-else"))
	unlock()

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Lock expired before release", hook.LastEntry().Message)
}

func TestRedisReleaseErrorIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger, hook := test.NewNullLogger()
	l := NewRedis(client, "ledger:lock:", time.Minute, logrus.NewEntry(logger))

	unlock, err := l.Lock(context.Background(), BalanceKey("u1"))
	require.NoError(t, err)

	mr.Close()
	unlock()

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "Failed to release lock", hook.LastEntry().Message)
	assert.Equal(t, "ledger:lock:balance:u1", hook.LastEntry().Data["lock"])
}

func TestRedisExpiredLockIsReported(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger, hook := test.NewNullLogger()
	l := NewRedis(client, "", time.Second, logrus.NewEntry(logger))

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("k"))
	unlock()

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Lock expired before release", hook.LastEntry().Message)
}
