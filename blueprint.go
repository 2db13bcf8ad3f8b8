package blueprint

import (
	"context"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/internal/source"
	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
)

var (
	ErrGatewayNotInitialized = errors.New("database gateway has not been initialized")
	ErrNoChangesRequired     = database.ErrNoChangesRequired
	ErrNoMigrations          = source.ErrNoMigrations
)

type (
	CloserFunc func() error

	// State of a single migration, see Migrator.Status
	State = database.State
)

type Migrator struct {
	lg       logger.Logger
	gateway  database.Gateway
	selector source.Selector
}

// NewMigrator creates a migrator configured with option callbacks,
// a database option is required, the migrations are read from
// the default local folder when no source option is given
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			if m.gateway != nil {
				if closeErr := m.gateway.Close(); closeErr != nil {
					m.lg.Error(closeErr)
				}
			}

			return nil, nil, err
		}
	}

	if m.gateway == nil {
		return nil, nil, ErrGatewayNotInitialized
	}

	if m.selector == nil {
		m.selector = source.NewLocalFileSource(source.DefaultMigrationsFolder, m.lg)
	}

	m.gateway.SetLogger(m.lg)
	if s, ok := m.selector.(interface{ SetLogger(logger.Logger) }); ok {
		s.SetLogger(m.lg)
	}

	return m, m.close, nil
}

// Migrate applies pending migrations in ascending order as a single batch,
// ErrNoChangesRequired is returned when there is nothing to migrate
func (m *Migrator) Migrate(ctx context.Context, cfs ...ActionConfigurator) (migration.Migrations, error) {
	act := newAction(cfs)

	migrations, err := m.selector.Select(ctx, act.filter())
	if err != nil {
		m.lg.Error(err)
		return nil, errors.Wrap(err, "could not select migrations")
	}

	migrated, err := m.gateway.Migrate(ctx, migrations, act.plan())
	if err != nil {
		if !errors.Is(err, ErrNoChangesRequired) {
			m.lg.Error(err)
		}

		return nil, err
	}

	return migrated, nil
}

// Rollback reverts migrations in descending order, by default
// only the migrations of the last batch are reverted
func (m *Migrator) Rollback(ctx context.Context, cfs ...ActionConfigurator) (migration.Migrations, error) {
	act := newAction(cfs)

	migrations, err := m.selector.Select(ctx, act.filter())
	if err != nil {
		m.lg.Error(err)
		return nil, errors.Wrap(err, "could not rollback migrations")
	}

	executed, err := m.gateway.Rollback(ctx, migrations, act.plan())
	if err != nil {
		if !errors.Is(err, ErrNoChangesRequired) {
			m.lg.Error(err)
		}

		return nil, err
	}

	return executed, nil
}

// Refresh first rolls back the migrations and then migrates them again
func (m *Migrator) Refresh(ctx context.Context, cfs ...ActionConfigurator) (migration.Migrations, migration.Migrations, error) {
	act := newAction(cfs)

	migrations, err := m.selector.Select(ctx, act.filter())
	if err != nil {
		m.lg.Error(err)
		return nil, nil, errors.Wrap(err, "could not refresh migrations")
	}

	rolledBack, migrated, err := m.gateway.Refresh(ctx, migrations, act.plan())
	if err != nil {
		if !errors.Is(err, ErrNoChangesRequired) {
			m.lg.Error(err)
		}

		return nil, nil, err
	}

	return rolledBack, migrated, nil
}

// Status lists every known migration together with versions recorded
// in the migrations table that are no longer known to the source
func (m *Migrator) Status(ctx context.Context) ([]State, error) {
	migrations, err := m.selector.Select(ctx, source.Filter{})
	if err != nil && !errors.Is(err, source.ErrNoMigrations) {
		m.lg.Error(err)
		return nil, errors.Wrap(err, "could not read migrations status")
	}

	versions, err := m.gateway.ReadVersions(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, errors.Wrap(err, "could not read migrated versions")
	}

	return database.StatusOf(migrations, versions), nil
}

// Source returns the migrator selector if it implements the full source.Source interface
func (m *Migrator) Source() source.Source {
	if s, ok := m.selector.(source.Source); ok {
		return s
	}

	return nil
}

func (m *Migrator) close() error {
	if m.gateway == nil {
		return ErrGatewayNotInitialized
	}

	if err := m.gateway.Close(); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}
