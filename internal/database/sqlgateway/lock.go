package sqlgateway

import (
	"context"
)

// NullLocker is used where the database takes care of exclusive access itself, e.g. SQLite
type NullLocker struct{}

func (NullLocker) Lock(context.Context, LockExecutor) error {
	return nil
}

func (NullLocker) Unlock(context.Context, LockExecutor) error {
	return nil
}
