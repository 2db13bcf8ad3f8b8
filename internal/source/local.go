package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const DefaultMigrationsFolder = "./migrations"

const (
	migrateFileExtension  = ".migrate.sql"
	rollbackFileExtension = ".rollback.sql"

	maxConcurrentReads = 8
)

var (
	ErrNotAMigrationFile       = errors.New("not a migration file")
	ErrMissingMigrateFile      = errors.New("rollback file has no matching migrate file")
	ErrMigrationAlreadyExists  = errors.New("migration already exists")
	ErrMigrationsFolderMissing = errors.New("migrations folder does not exist")
)

type migrationFiles struct {
	key         string
	hasMigrate  bool
	hasRollback bool
}

// LocalFileSource reads <key>.migrate.sql and optional <key>.rollback.sql pairs from a folder
type LocalFileSource struct {
	folder string
	lg     logger.Logger
	clock  migration.ClockFunc
}

var _ Source = (*LocalFileSource)(nil)

func NewLocalFileSource(folder string, lg logger.Logger) *LocalFileSource {
	if folder == "" {
		folder = DefaultMigrationsFolder
	}

	if lg == nil {
		lg = &logger.NullLogger{}
	}

	return &LocalFileSource{folder: folder, lg: lg, clock: time.Now}
}

func (lfs *LocalFileSource) SetLogger(lg logger.Logger) {
	lfs.lg = lg
}

func (lfs *LocalFileSource) SetClock(clock migration.ClockFunc) {
	lfs.clock = clock
}

func (lfs *LocalFileSource) Folder() string {
	return lfs.folder
}

func (lfs *LocalFileSource) IsValid() bool {
	info, err := os.Stat(lfs.folder)
	if err != nil {
		return false
	}

	return info.IsDir()
}

// Init creates the migrations folder if it does not exist
func (lfs *LocalFileSource) Init() error {
	if err := os.MkdirAll(lfs.folder, 0755); err != nil {
		return errors.Wrapf(err, "could not create migrations folder [%s]", lfs.folder)
	}

	return nil
}

// AlreadyExists reports whether a migration with the given name is in the folder
func (lfs *LocalFileSource) AlreadyExists(name string) bool {
	files, err := lfs.scan()
	if err != nil {
		return false
	}

	normalized := migration.NormalizeName(name)
	for _, f := range files {
		if _, n, err := migration.ParseKey(f.key); err == nil && n == normalized {
			return true
		}
	}

	return false
}

// Create scaffolds empty migrate and, if requested, rollback files and returns the new key
func (lfs *LocalFileSource) Create(name string, withRollback bool) (string, error) {
	if !lfs.IsValid() {
		return "", errors.Wrapf(ErrMigrationsFolderMissing, "[%s]", lfs.folder)
	}

	if lfs.AlreadyExists(name) {
		return "", errors.Wrapf(ErrMigrationAlreadyExists, "[%s]", name)
	}

	key, err := migration.GenerateKey(lfs.clock, name)
	if err != nil {
		return "", err
	}

	paths := []string{filepath.Join(lfs.folder, key+migrateFileExtension)}
	if withRollback {
		paths = append(paths, filepath.Join(lfs.folder, key+rollbackFileExtension))
	}

	for _, path := range paths {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return "", errors.Wrapf(err, "could not create file [%s]", path)
		}

		lfs.lg.Debugf("created file %s", path)
	}

	return key, nil
}

// Select reads matching migrations concurrently and returns them sorted by order
func (lfs *LocalFileSource) Select(ctx context.Context, f Filter) (migration.Migrations, error) {
	files, err := lfs.scan()
	if err != nil {
		return nil, err
	}

	var selected []migrationFiles
	for _, mf := range files {
		order, _, err := migration.ParseKey(mf.key)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration file in [%s]", lfs.folder)
		}

		if !mf.hasMigrate {
			return nil, errors.Wrapf(ErrMissingMigrateFile, "[%s]", mf.key)
		}

		if len(f.Versions) > 0 && !migration.InOrders(order, f.Versions) {
			continue
		}

		selected = append(selected, mf)
	}

	if len(selected) == 0 {
		return nil, errors.Wrapf(ErrNoMigrations, "in folder [%s]", lfs.folder)
	}

	factories := make([]migration.Factory, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i := range selected {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			factory, err := lfs.readOne(selected[i])
			if err != nil {
				lfs.lg.Error(err)
				return err
			}

			factories[i] = factory
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return migration.NewMigrations(factories...)
}

func (lfs *LocalFileSource) scan() ([]migrationFiles, error) {
	entries, err := os.ReadDir(lfs.folder)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read migrations from folder [%s]", lfs.folder)
	}

	byKey := make(map[string]*migrationFiles)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		key, isRollback, err := convertFileNameToKey(entry.Name())
		if err != nil {
			lfs.lg.Debugf("skipping file %s: %s", entry.Name(), err.Error())
			continue
		}

		mf, ok := byKey[key]
		if !ok {
			mf = &migrationFiles{key: key}
			byKey[key] = mf
		}

		if isRollback {
			mf.hasRollback = true
		} else {
			mf.hasMigrate = true
		}
	}

	result := make([]migrationFiles, 0, len(byKey))
	for _, mf := range byKey {
		result = append(result, *mf)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].key < result[j].key })

	return result, nil
}

func (lfs *LocalFileSource) readOne(mf migrationFiles) (migration.Factory, error) {
	up := filepath.Join(lfs.folder, mf.key+migrateFileExtension)
	migrateContents, err := os.ReadFile(up)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read file [%s]", up)
	}

	var rollbackContents []byte
	if mf.hasRollback {
		down := filepath.Join(lfs.folder, mf.key+rollbackFileExtension)
		rollbackContents, err = os.ReadFile(down)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read file [%s]", down)
		}
	}

	m, err := migration.FromScripts(
		mf.key,
		SplitStatements(string(migrateContents)),
		SplitStatements(string(rollbackContents)),
	)()
	if err != nil {
		return nil, err
	}

	return func() (*migration.Migration, error) { return m, nil }, nil
}

// SplitStatements splits a script into statements ending with a semicolon at the end of a line,
// lines holding only a comment are dropped
func SplitStatements(contents string) []string {
	var statements []string
	var current []string

	flush := func() {
		stmt := strings.TrimSpace(strings.Join(current, "\n"))
		stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(contents, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		current = append(current, strings.TrimRight(line, " \t\r"))
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	flush()

	return statements
}

func convertFileNameToKey(name string) (string, bool, error) {
	switch {
	case strings.HasSuffix(name, migrateFileExtension):
		return strings.TrimSuffix(name, migrateFileExtension), false, nil
	case strings.HasSuffix(name, rollbackFileExtension):
		return strings.TrimSuffix(name, rollbackFileExtension), true, nil
	default:
		return "", false, ErrNotAMigrationFile
	}
}
