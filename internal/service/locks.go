package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// TaskLocks allows at most one in-flight write per task id.
type TaskLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewTaskLocks() *TaskLocks {
	return &TaskLocks{locks: make(map[string]*keyedLock)}
}

// Lock acquires the locks for ids in sorted order and returns the release
// func. It gives up when ctx is done.
func (l *TaskLocks) Lock(ctx context.Context, ids ...string) (func(), error) {
	sorted := uniqueSorted(ids)
	held := make([]string, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}
	for _, id := range sorted {
		if err := l.acquire(ctx, id); err != nil {
			release()
			return nil, err
		}
		held = append(held, id)
	}
	return release, nil
}

func (l *TaskLocks) acquire(ctx context.Context, id string) error {
	l.mu.Lock()
	k, ok := l.locks[id]
	if !ok {
		k = &keyedLock{sem: semaphore.NewWeighted(1)}
		l.locks[id] = k
	}
	k.refs++
	l.mu.Unlock()

	if err := k.sem.Acquire(ctx, 1); err != nil {
		l.mu.Lock()
		l.unref(id, k)
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *TaskLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.locks[id]
	if !ok {
		return
	}
	k.sem.Release(1)
	l.unref(id, k)
}

func (l *TaskLocks) unref(id string, k *keyedLock) {
	k.refs--
	if k.refs == 0 {
		delete(l.locks, id)
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
