package store

import (
	"context"
	"sync"
	"time"

	"signupgate/pkg/platform/sentinel"
)

// InMemoryStepLock is the single-process StepLock. Locks expire after their
// TTL so a crashed caller cannot hold a step forever.
type InMemoryStepLock struct {
	mu    sync.Mutex
	held  map[string]lease
	now   func() time.Time
	seqNo uint64
}

type lease struct {
	seq       uint64
	expiresAt time.Time
}

func NewInMemoryStepLock() *InMemoryStepLock {
	return &InMemoryStepLock{held: make(map[string]lease), now: time.Now}
}

func (l *InMemoryStepLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expiresAt) {
		return nil, sentinel.ErrLocked
	}
	l.seqNo++
	mine := l.seqNo
	l.held[key] = lease{seq: mine, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.seq == mine {
			delete(l.held, key)
		}
		return nil
	}, nil
}
