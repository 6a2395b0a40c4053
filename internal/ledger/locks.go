package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// lockTable hands out one exclusive lock per balance slot. Waiters on
// the same slot are served as the runtime schedules them; disjoint slots
// never contend. Entries are reference-counted so the table does not
// grow with every slot ever touched.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]*slotLock
}

type slotLock struct {
	sem  chan struct{} // capacity 1: holding the token = holding the lock
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]*slotLock)}
}

// acquire takes the exclusive lock for one slot key, waiting at most
// wait. Returns ErrLockTimeout when the budget elapses and the context
// error when the caller is cancelled first.
func (t *lockTable) acquire(ctx context.Context, key domain.SlotKey, wait time.Duration) error {
	t.mu.Lock()
	sl, ok := t.slots[key.String()]
	if !ok {
		sl = &slotLock{sem: make(chan struct{}, 1)}
		t.slots[key.String()] = sl
	}
	sl.refs++
	t.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case sl.sem <- struct{}{}:
		return nil
	case <-timer.C:
		t.drop(key)
		return fmt.Errorf("%w: slot %s after %s", domain.ErrLockTimeout, key, wait)
	case <-ctx.Done():
		t.drop(key)
		return ctx.Err()
	}
}

// release returns the lock for one slot key.
func (t *lockTable) release(key domain.SlotKey) {
	t.mu.Lock()
	sl := t.slots[key.String()]
	t.mu.Unlock()

	<-sl.sem
	t.drop(key)
}

// acquireAll takes the locks for every key, deduplicated and in
// canonical key order, so that two operations locking overlapping slot
// sets can never deadlock against each other. On failure every lock
// already taken is released and the first error is returned.
func (t *lockTable) acquireAll(ctx context.Context, wait time.Duration, keys ...domain.SlotKey) error {
	ordered := orderKeys(keys)

	for i, key := range ordered {
		if err := t.acquire(ctx, key, wait); err != nil {
			for j := i - 1; j >= 0; j-- {
				t.release(ordered[j])
			}
			return err
		}
	}

	return nil
}

// releaseAll returns the locks taken by acquireAll.
func (t *lockTable) releaseAll(keys ...domain.SlotKey) {
	for _, key := range orderKeys(keys) {
		t.release(key)
	}
}

// drop decrements a key's refcount and evicts the entry when nobody
// holds or waits on it anymore.
func (t *lockTable) drop(key domain.SlotKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sl := t.slots[key.String()]
	sl.refs--
	if sl.refs == 0 {
		delete(t.slots, key.String())
	}
}

// orderKeys returns the keys deduplicated and sorted by their canonical
// string form.
func orderKeys(keys []domain.SlotKey) []domain.SlotKey {
	seen := make(map[string]bool, len(keys))
	ordered := make([]domain.SlotKey, 0, len(keys))

	for _, key := range keys {
		if !seen[key.String()] {
			seen[key.String()] = true
			ordered = append(ordered, key)
		}
	}

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})

	return ordered
}
