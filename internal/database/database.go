package database

import (
	"context"

	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
)

var ErrNoChangesRequired = errors.New("no changes to the database required")
var ErrMigrationVersionNotSpecified = errors.New("migration version not specified")

const (
	DefaultMigrationsTable = "migrations"

	OperationRollback = "rollback"
	OperationMigrate  = "migrate"
	OperationRefresh  = "refresh"
	OperationStatus   = "status"

	ASC  = "ASC"
	DESC = "DESC"
)

type CommonOptions struct {
	MigrationsTable string
}

// Plan narrows down the migrations an operation is applied to.
// Steps limits the number of migrations, Versions restricts them to the given orders.
type Plan struct {
	Steps    int
	Versions []migration.Order
}

type ReadVersionsFilter struct {
	Limit int
	Sort  string
}

type versionController interface {
	ReadVersions(ctx context.Context) ([]migration.Version, error)
	ShowTables(ctx context.Context) ([]string, error)
	DropMigrationsTable(ctx context.Context) error
	CreateMigrationsTable(ctx context.Context) error
}

// Gateway applies migration plans to a database
type Gateway interface {
	SetLogger(logger.Logger)
	Migrate(ctx context.Context, migrations migration.Migrations, p Plan) (migration.Migrations, error)
	Rollback(ctx context.Context, migrations migration.Migrations, p Plan) (migration.Migrations, error)
	Refresh(ctx context.Context, migrations migration.Migrations, p Plan) (migration.Migrations, migration.Migrations, error)
	Close() error

	versionController
}

type ConnCloser func() error

// NextBatch returns the batch number for the next migrate run
func NextBatch(migratedVersions []migration.Version) migration.Batch {
	return LastBatch(migratedVersions) + 1
}

// LastBatch returns the highest batch among migrated versions, 0 if there are none
func LastBatch(migratedVersions []migration.Version) migration.Batch {
	var last migration.Batch
	for _, v := range migratedVersions {
		if v.Batch > last {
			last = v.Batch
		}
	}
	return last
}

// ScheduleForMigration picks not yet migrated migrations in ascending order
func ScheduleForMigration(
	migrations migration.Migrations,
	migratedVersions []migration.Version,
	p Plan,
) migration.Migrations {
	var scheduled migration.Migrations

	for i := range migrations {
		if migration.InVersions(migrations[i].Version.Order, migratedVersions) {
			continue
		}

		if len(p.Versions) > 0 && !migration.InOrders(migrations[i].Version.Order, p.Versions) {
			continue
		}

		if p.Steps != 0 && len(scheduled) >= p.Steps {
			break
		}

		scheduled = append(scheduled, migrations[i])
	}

	return scheduled
}

// ScheduleForRollback picks migrated migrations in descending order.
// With an empty plan only the last batch is scheduled.
func ScheduleForRollback(
	migrations migration.Migrations,
	migratedVersions []migration.Version,
	p Plan,
) migration.Migrations {
	var lastBatch migration.Batch
	if p.Steps == 0 && len(p.Versions) == 0 {
		lastBatch = LastBatch(migratedVersions)
	}

	return scheduleMigrated(migrations, migratedVersions, p, lastBatch)
}

// ScheduleForRefresh picks all migrated migrations in descending order,
// unless the plan limits them
func ScheduleForRefresh(
	migrations migration.Migrations,
	migratedVersions []migration.Version,
	p Plan,
) migration.Migrations {
	return scheduleMigrated(migrations, migratedVersions, p, 0)
}

func scheduleMigrated(
	migrations migration.Migrations,
	migratedVersions []migration.Version,
	p Plan,
	onlyBatch migration.Batch,
) migration.Migrations {
	migrated := make(map[migration.Order]migration.Version, len(migratedVersions))
	for _, v := range migratedVersions {
		migrated[v.Order] = v
	}

	var scheduled migration.Migrations

	for i := len(migrations) - 1; i >= 0; i-- {
		v, ok := migrated[migrations[i].Version.Order]
		if !ok {
			continue
		}

		if len(p.Versions) > 0 && !migration.InOrders(v.Order, p.Versions) {
			continue
		}

		if onlyBatch != 0 && v.Batch != onlyBatch {
			continue
		}

		if p.Steps != 0 && len(scheduled) >= p.Steps {
			break
		}

		migrations[i].Version.Batch = v.Batch
		migrations[i].Version.MigratedAt = v.MigratedAt
		scheduled = append(scheduled, migrations[i])
	}

	return scheduled
}
