package postgres

import (
	"context"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/pkg/errors"
)

const DefaultLockKey = 99887766

type Options struct {
	database.CommonOptions
	LockKey int64
	NoLock  bool
}

// Locker holds a session level advisory lock for the duration of an operation
type Locker struct {
	lockKey int64
	noLock  bool
}

var _ sqlgateway.Locker = (*Locker)(nil)

func NewLocker(lockKey int64, noLock bool) *Locker {
	return &Locker{lockKey: lockKey, noLock: noLock}
}

func (l *Locker) Lock(ctx context.Context, ex sqlgateway.LockExecutor) error {
	if l.noLock {
		return nil
	}

	if _, err := ex.ExecContext(ctx, "SELECT pg_advisory_lock($1)", l.lockKey); err != nil {
		return errors.Wrapf(err, "could not obtain [%d] exclusive PostgreSQL advisory lock", l.lockKey)
	}

	return nil
}

func (l *Locker) Unlock(ctx context.Context, ex sqlgateway.LockExecutor) error {
	if l.noLock {
		return nil
	}

	if _, err := ex.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockKey); err != nil {
		return errors.Wrapf(err, "could not release [%d] exclusive PostgreSQL advisory lock", l.lockKey)
	}

	return nil
}
