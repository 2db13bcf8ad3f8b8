package source

import (
	"context"

	"github.com/denismitr/blueprint/migration"
)

// InMemorySource serves migrations defined in Go code.
// Migrations are built anew on every Select so runs never share state.
type InMemorySource struct {
	factories []migration.Factory
}

var _ Selector = (*InMemorySource)(nil)

func NewInMemorySource(factories ...migration.Factory) (*InMemorySource, error) {
	// build once to fail early on invalid keys and duplicate versions
	if _, err := migration.NewMigrations(factories...); err != nil {
		return nil, err
	}

	return &InMemorySource{factories: factories}, nil
}

func (s *InMemorySource) Select(ctx context.Context, f Filter) (migration.Migrations, error) {
	if len(s.factories) == 0 {
		return nil, ErrNoMigrations
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	migrations, err := migration.NewMigrations(s.factories...)
	if err != nil {
		return nil, err
	}

	return filterMigrations(migrations, f), nil
}
