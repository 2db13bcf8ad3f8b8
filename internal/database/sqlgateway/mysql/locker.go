package mysql

import (
	"context"
	"database/sql"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/database/sqlgateway"
	"github.com/pkg/errors"
)

const DefaultLockKey = "blueprint_migrations"
const DefaultLockSeconds = 3

var (
	ErrLockNotAcquired = errors.New("exclusive MySQL DB lock was not acquired")
	ErrLockNotHeld     = errors.New("exclusive MySQL DB lock was not held by this connection")
)

type Options struct {
	database.CommonOptions
	LockKey string
	LockFor int
	NoLock  bool
	Charset string
}

// Locker holds a named MySQL lock for the duration of an operation
type Locker struct {
	lockKey string
	lockFor int
	noLock  bool
}

var _ sqlgateway.Locker = (*Locker)(nil)

func NewLocker(lockKey string, lockFor int, noLock bool) *Locker {
	return &Locker{lockKey: lockKey, lockFor: lockFor, noLock: noLock}
}

// Lock waits up to lockFor seconds for the named lock,
// GET_LOCK returns 0 on timeout and NULL on error without failing the statement
func (l *Locker) Lock(ctx context.Context, ex sqlgateway.LockExecutor) error {
	if l.noLock {
		return nil
	}

	var acquired sql.NullInt64
	if err := ex.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.lockKey, l.lockFor).Scan(&acquired); err != nil {
		return errors.Wrapf(err, "could not obtain [%s] exclusive MySQL DB lock for [%d] seconds", l.lockKey, l.lockFor)
	}

	if !acquired.Valid || acquired.Int64 != 1 {
		return errors.Wrapf(ErrLockNotAcquired, "[%s] within [%d] seconds", l.lockKey, l.lockFor)
	}

	return nil
}

func (l *Locker) Unlock(ctx context.Context, ex sqlgateway.LockExecutor) error {
	if l.noLock {
		return nil
	}

	var released sql.NullInt64
	if err := ex.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", l.lockKey).Scan(&released); err != nil {
		return errors.Wrapf(err, "could not release [%s] exclusive MySQL DB lock", l.lockKey)
	}

	if !released.Valid || released.Int64 != 1 {
		return errors.Wrapf(ErrLockNotHeld, "[%s]", l.lockKey)
	}

	return nil
}
