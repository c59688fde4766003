package auth

import (
	"context"
	"sync"
	"time"
)

// ResetLedger remembers redeemed password reset tokens until they expire,
// which makes reset links single-use.
type ResetLedger interface {
	// Consume marks tokenID as used until the given instant. It returns false
	// when the token was already consumed.
	Consume(ctx context.Context, tokenID string, until time.Time) (bool, error)
	// Release forgets tokenID so the token can be redeemed again.
	Release(ctx context.Context, tokenID string) error
}

// MemoryResetLedger is a process-local ResetLedger.
type MemoryResetLedger struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

// NewMemoryResetLedger builds an empty ledger; a nil clock means time.Now.
func NewMemoryResetLedger(now func() time.Time) *MemoryResetLedger {
	if now == nil {
		now = time.Now
	}
	return &MemoryResetLedger{used: make(map[string]time.Time), now: now}
}

func (l *MemoryResetLedger) Consume(_ context.Context, tokenID string, until time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, exp := range l.used {
		if !now.Before(exp) {
			delete(l.used, id)
		}
	}
	if _, seen := l.used[tokenID]; seen {
		return false, nil
	}
	l.used[tokenID] = until
	return true, nil
}

func (l *MemoryResetLedger) Release(_ context.Context, tokenID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.used, tokenID)
	return nil
}
