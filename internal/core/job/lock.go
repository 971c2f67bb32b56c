package job

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker for single-instance deployments.
// Entries expire after their ttl like the redis lock does; ttl <= 0 never expires.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]uint64
	until map[string]time.Time
	next  uint64
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]uint64{}, until: map[string]time.Time{}}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.until[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return nil, false, nil
	}
	l.next++
	token := l.next
	l.held[key] = token
	l.until[key] = time.Time{}
	if ttl > 0 {
		l.until[key] = now.Add(ttl)
	}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key] == token {
			delete(l.held, key)
			delete(l.until, key)
		}
		return nil
	}, true, nil
}
