// Package locker provides per-entity mutual exclusion for ledger workflows.
package locker

import (
	"context"
	"sync"
)

type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases the lock and is safe to call once.
	Lock(ctx context.Context, key string) (func(), error)
}

func BalanceKey(userID string) string         { return "balance:" + userID }
func DepositKey(id string) string             { return "deposit:" + id }
func ReferralKey(id string) string            { return "referral:" + id }
func TransactionKey(id string) string         { return "transaction:" + id }
func DistributionKey(sharingID string) string { return "distribution:" + sharingID }
func CardKey(id string) string                { return "card:" + id }
func CardNumberKey(number string) string      { return "card-number:" + number }

func PeriodKey(job, kind, value string) string {
	return "period:" + job + ":" + kind + ":" + value
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Keyed is an in-process Locker holding one channel-based mutex per key.
// Entries are dropped once nobody holds or waits on them.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(key, e)
		})
	}, nil
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// LockAll acquires keys in the given order and returns a func releasing them
// in reverse. On failure nothing stays held.
func LockAll(ctx context.Context, l Locker, keys ...string) (func(), error) {
	unlocks := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, key := range keys {
		unlock, err := l.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}

	return releaseAll, nil
}
