package sqlgateway

import (
	"context"
	"database/sql"
	"time"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
)

type ClockFunc func() time.Time

// SQLGateway runs migrations against a database/sql connection.
// Every operation is executed under an exclusive lock and inside a single transaction.
type SQLGateway struct {
	connector       Connector
	locker          Locker
	dialect         Dialect
	lg              logger.Logger
	clock           ClockFunc
	migrationsTable string
}

var _ database.Gateway = (*SQLGateway)(nil)

func New(connector Connector, locker Locker, dialect Dialect, migrationsTable string) *SQLGateway {
	if locker == nil {
		locker = NullLocker{}
	}

	if migrationsTable == "" {
		migrationsTable = database.DefaultMigrationsTable
	}

	return &SQLGateway{
		connector:       connector,
		locker:          locker,
		dialect:         dialect,
		lg:              &logger.NullLogger{},
		clock:           time.Now,
		migrationsTable: migrationsTable,
	}
}

func (g *SQLGateway) SetLogger(lg logger.Logger) {
	g.lg = lg
}

func (g *SQLGateway) SetClock(clock ClockFunc) {
	g.clock = clock
}

func (g *SQLGateway) Close() error {
	return g.connector.Close()
}

func (g *SQLGateway) Migrate(
	ctx context.Context,
	migrations migration.Migrations,
	p database.Plan,
) (migration.Migrations, error) {
	var migrated migration.Migrations

	f := func(tx *sql.Tx, migratedVersions []migration.Version) error {
		scheduled := database.ScheduleForMigration(migrations, migratedVersions, p)

		if len(scheduled) == 0 {
			return database.ErrNoChangesRequired
		}

		batch := database.NextBatch(migratedVersions)

		for i := range scheduled {
			if err := g.migrateOne(ctx, tx, scheduled[i], batch); err != nil {
				return err
			}

			g.lg.Successf("migrated: %s", scheduled[i].Version)

			migrated = append(migrated, scheduled[i])
		}

		return nil
	}

	if err := g.execUnderLock(ctx, database.OperationMigrate, f); err != nil {
		return nil, err
	}

	return migrated, nil
}

func (g *SQLGateway) Rollback(
	ctx context.Context,
	migrations migration.Migrations,
	p database.Plan,
) (migration.Migrations, error) {
	var rolledBack migration.Migrations

	f := func(tx *sql.Tx, migratedVersions []migration.Version) error {
		scheduled := database.ScheduleForRollback(migrations, migratedVersions, p)

		if len(scheduled) == 0 {
			return database.ErrNoChangesRequired
		}

		for i := range scheduled {
			g.lg.Debugf("rolling back %s", scheduled[i].Version)

			if err := g.rollbackOne(ctx, tx, scheduled[i]); err != nil {
				return err
			}

			g.lg.Successf("rolled back: %s", scheduled[i].Version)

			rolledBack = append(rolledBack, scheduled[i])
		}

		return nil
	}

	if err := g.execUnderLock(ctx, database.OperationRollback, f); err != nil {
		return nil, err
	}

	return rolledBack, nil
}

// Refresh rolls back migrated versions and applies them again in a new batch
func (g *SQLGateway) Refresh(
	ctx context.Context,
	migrations migration.Migrations,
	p database.Plan,
) (migration.Migrations, migration.Migrations, error) {
	var rolledBack migration.Migrations
	var migrated migration.Migrations

	f := func(tx *sql.Tx, migratedVersions []migration.Version) error {
		scheduled := database.ScheduleForRefresh(migrations, migratedVersions, p)

		if len(scheduled) == 0 {
			return database.ErrNoChangesRequired
		}

		for i := range scheduled {
			g.lg.Debugf("rolling back %s", scheduled[i].Version)

			if err := g.rollbackOne(ctx, tx, scheduled[i]); err != nil {
				return err
			}

			rolledBack = append(rolledBack, scheduled[i])
			g.lg.Successf("rolled back: %s", scheduled[i].Version)
		}

		var remaining []migration.Version
		for _, v := range migratedVersions {
			if !migration.InVersions(v.Order, versionsOf(rolledBack)) {
				remaining = append(remaining, v)
			}
		}

		batch := database.NextBatch(remaining)

		for i := len(scheduled) - 1; i >= 0; i-- {
			g.lg.Debugf("migrating %s", scheduled[i].Version)

			if err := g.migrateOne(ctx, tx, scheduled[i], batch); err != nil {
				return err
			}

			migrated = append(migrated, scheduled[i])
			g.lg.Successf("migrated: %s", scheduled[i].Version)
		}

		return nil
	}

	if err := g.execUnderLock(ctx, database.OperationRefresh, f); err != nil {
		return nil, nil, err
	}

	return rolledBack, migrated, nil
}

// ReadVersions returns migrated versions in ascending order,
// a missing migrations table means nothing has been migrated yet
func (g *SQLGateway) ReadVersions(ctx context.Context) ([]migration.Version, error) {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	exists, err := NewStore(conn, g.dialect, g.lg).HasTable(ctx, g.migrationsTable)
	if err != nil {
		return nil, errors.Wrapf(err, "could not check migrations table [%s]", g.migrationsTable)
	}

	if !exists {
		return nil, nil
	}

	return g.readVersions(ctx, conn, database.ReadVersionsFilter{Sort: database.ASC})
}

func (g *SQLGateway) CreateMigrationsTable(ctx context.Context) error {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return err
	}

	return g.createMigrationsTable(ctx, conn)
}

func (g *SQLGateway) DropMigrationsTable(ctx context.Context) error {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return err
	}

	q := g.dialect.DropQuery()
	g.lg.SQL(q)

	if _, err := conn.ExecContext(ctx, q); err != nil {
		return errors.Wrapf(g.dialect.ClassifyError("drop", err), "could not drop migrations table [%s]", g.migrationsTable)
	}

	return nil
}

func (g *SQLGateway) ShowTables(ctx context.Context) ([]string, error) {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, g.dialect.ShowTablesQuery())
	if err != nil {
		return nil, errors.Wrap(g.dialect.ClassifyError("show tables", err), "could not list all tables")
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			g.lg.Error(closeErr)
		}
	}()

	var result []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, errors.Wrap(err, "could not scan table name")
		}

		result = append(result, table)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "show tables rows error")
	}

	return result, nil
}

func (g *SQLGateway) createMigrationsTable(ctx context.Context, ex CtxExecutor) error {
	q := g.dialect.InitQuery()
	g.lg.SQL(q)

	if _, err := ex.ExecContext(ctx, q); err != nil {
		return errors.Wrapf(
			g.dialect.ClassifyError("init", err),
			"could not create migrations table [%s]", g.migrationsTable,
		)
	}

	return nil
}

func (g *SQLGateway) execUnderLock(
	ctx context.Context,
	operation string,
	f func(*sql.Tx, []migration.Version) error,
) error {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return err
	}

	if err := g.locker.Lock(ctx, conn); err != nil {
		return errors.Wrap(g.dialect.ClassifyError("lock", err), "database lock failed")
	}

	if err := g.createMigrationsTable(ctx, conn); err != nil {
		return g.handleError(ctx, conn, err, nil)
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		err = errors.Wrapf(
			g.dialect.ClassifyError("begin", err),
			"could not start transaction to execute [%s] operation", operation,
		)
		return g.handleError(ctx, conn, err, nil)
	}

	migratedVersions, err := g.readVersions(ctx, tx, database.ReadVersionsFilter{Sort: database.ASC})
	if err != nil {
		return g.handleError(ctx, conn, errors.Wrapf(err, "operation [%s] failed", operation), tx)
	}

	if err := f(tx, migratedVersions); err != nil {
		if errors.Is(err, database.ErrNoChangesRequired) {
			return g.handleError(ctx, conn, err, tx)
		}

		return g.handleError(ctx, conn, errors.Wrapf(err, "operation [%s] failed", operation), tx)
	}

	if err := tx.Commit(); err != nil {
		err = errors.Wrapf(g.dialect.ClassifyError("commit", err), "could not commit [%s] operation", operation)
		return g.handleError(ctx, conn, err, nil)
	}

	if err := g.locker.Unlock(ctx, conn); err != nil {
		return errors.Wrap(err, "database unlock failed")
	}

	return nil
}

func (g *SQLGateway) migrateOne(ctx context.Context, tx *sql.Tx, m *migration.Migration, batch migration.Batch) error {
	if m.Version.Order == 0 {
		return database.ErrMigrationVersionNotSpecified
	}

	if err := m.Apply(ctx, NewStore(tx, g.dialect, g.lg)); err != nil {
		return errors.Wrapf(err, "could not migrate [%s]", m.Key)
	}

	m.Version.Batch = batch
	m.Version.MigratedAt = g.clock().UTC()

	insertQuery, args, err := g.dialect.InsertQuery(m.Version)
	if err != nil {
		return err
	}

	g.lg.SQL(insertQuery, args...)

	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		return errors.Wrapf(g.dialect.ClassifyError("insert", err), "could not insert migration %s", m.Version)
	}

	return nil
}

func (g *SQLGateway) rollbackOne(ctx context.Context, tx *sql.Tx, m *migration.Migration) error {
	if m.Version.Order == 0 {
		return database.ErrMigrationVersionNotSpecified
	}

	if err := m.Revert(ctx, NewStore(tx, g.dialect, g.lg)); err != nil {
		return errors.Wrapf(err, "could not rollback [%s]", m.Key)
	}

	removeQuery, args, err := g.dialect.RemoveQuery(m.Version)
	if err != nil {
		return err
	}

	g.lg.SQL(removeQuery, args...)

	if _, err := tx.ExecContext(ctx, removeQuery, args...); err != nil {
		return errors.Wrapf(g.dialect.ClassifyError("delete", err), "could not remove migration %s", m.Version)
	}

	return nil
}

func (g *SQLGateway) readVersions(
	ctx context.Context,
	q CtxQuerier,
	f database.ReadVersionsFilter,
) ([]migration.Version, error) {
	query, err := g.dialect.ReadVersionsQuery(f)
	if err != nil {
		return nil, err
	}

	g.lg.SQL(query)

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(g.dialect.ClassifyError("read versions", err), "could not read migration versions")
	}

	defer func() {
		if err := rows.Close(); err != nil {
			g.lg.Error(err)
		}
	}()

	var result []migration.Version

	for rows.Next() {
		var v migration.Version
		if err := rows.Scan(&v.Order, &v.Batch, &v.Name, &v.MigratedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan migration version")
		}

		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read migration versions iteration failed")
	}

	return result, nil
}

func (g *SQLGateway) handleError(ctx context.Context, ex LockExecutor, err error, tx *sql.Tx) error {
	result := err

	if tx != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			g.lg.Error(errors.Wrap(rollbackErr, "transaction rollback failed"))
		}
	}

	if unlockErr := g.locker.Unlock(ctx, ex); unlockErr != nil {
		g.lg.Error(errors.Wrap(unlockErr, "database unlock failed"))
	}

	return result
}

func versionsOf(migrations migration.Migrations) []migration.Version {
	result := make([]migration.Version, 0, len(migrations))
	for _, m := range migrations {
		result = append(result, m.Version)
	}
	return result
}
