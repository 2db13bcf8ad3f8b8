package source

import (
	"context"

	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
)

var ErrNoMigrations = errors.New("no migrations")

// Filter restricts selected migrations to the given orders, empty means all
type Filter struct {
	Versions []migration.Order
}

type Selector interface {
	Select(ctx context.Context, f Filter) (migration.Migrations, error)
}

// Source is a selector that can also scaffold new migrations
type Source interface {
	Selector

	IsValid() bool
	Init() error
	AlreadyExists(name string) bool
	Create(name string, withRollback bool) (string, error)
}

func filterMigrations(migrations migration.Migrations, f Filter) migration.Migrations {
	if len(f.Versions) == 0 {
		return migrations
	}

	var result migration.Migrations
	for _, m := range migrations {
		if migration.InOrders(m.Version.Order, f.Versions) {
			result = append(result, m)
		}
	}

	return result
}
