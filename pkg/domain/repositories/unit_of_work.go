package repositories

import (
	"context"
	"time"
)

// Tx exposes the repositories bound to one open transaction
type Tx interface {
	WorkOrders() WorkOrderRepository
	Requisitions() RequisitionRepository
	PlanRuns() PlanRunRepository
	Sequences() SequenceRepository
}

// UnitOfWork runs fn in a single all-or-nothing transaction.
// A non-nil error from fn rolls back every write made through tx.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// ReleaseFunc releases a lock obtained from a PlanLocker
type ReleaseFunc func(ctx context.Context) error

// PlanLocker serializes planning per key. Acquire fails with CONFLICT when the key is held.
type PlanLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}
