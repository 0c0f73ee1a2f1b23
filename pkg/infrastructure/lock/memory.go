package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// MemoryLocker is an in-process PlanLocker. Held keys expire after their ttl so a
// crashed holder cannot block planning forever.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]lease
	now   func() time.Time
	token uint64
}

type lease struct {
	token   uint64
	expires time.Time
}

// NewMemoryLocker creates an empty in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held: make(map[string]lease),
		now:  time.Now,
	}
}

var _ repositories.PlanLocker = (*MemoryLocker)(nil)

// Acquire takes key for ttl or fails with CONFLICT while another holder has it
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (repositories.ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.held[key]; ok && now.Before(current.expires) {
		return nil, apperrors.ErrConflict(fmt.Sprintf("planning already in progress for %s", key)).
			WithDetail("lock", key)
	}

	l.token++
	token := l.token
	l.held[key] = lease{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// an expired lease may already belong to someone else
		if current, ok := l.held[key]; ok && current.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
