package cli

import (
	"context"

	"github.com/denismitr/blueprint"
	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/internal/source"
	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
)

var (
	ErrFolderInvalid        = errors.New("migrations folder is invalid")
	ErrSourceTypeIsNotValid = errors.New("source type does not support creating migrations")
)

type (
	CloserFunc func() error

	ActionConfig struct {
		Steps    int
		Versions []string
	}

	App struct {
		migrator *blueprint.Migrator
	}
)

// NewFromYaml creates the app from a configuration file
func NewFromYaml(path string, p logger.Printer, opts ...blueprint.OptionFunc) (*App, CloserFunc, error) {
	cfg, err := ConfigFromYaml(path)
	if err != nil {
		return nil, nil, err
	}

	return New(cfg, p, opts...)
}

// New creates the app, migrations are read from the configured
// local folder unless a source option is given
func New(cfg Config, p logger.Printer, opts ...blueprint.OptionFunc) (*App, CloserFunc, error) {
	m, closer, err := createMigrator(cfg, p, opts...)
	if err != nil {
		return nil, nil, err
	}

	return &App{migrator: m}, closer, nil
}

// CreateMigration scaffolds a new migration in the local folder and returns its key
func (app *App) CreateMigration(name string, withRollback bool) (string, error) {
	s := app.migrator.Source()
	if s == nil {
		return "", ErrSourceTypeIsNotValid
	}

	if !s.IsValid() {
		return "", ErrFolderInvalid
	}

	return s.Create(name, withRollback)
}

func (app *App) Migrate(ctx context.Context, cfg ActionConfig) (migration.Migrations, error) {
	configurators, err := blueprint.CreateConfigurators(cfg.Steps, cfg.Versions)
	if err != nil {
		return nil, err
	}

	return app.migrator.Migrate(ctx, configurators...)
}

func (app *App) Rollback(ctx context.Context, cfg ActionConfig) (migration.Migrations, error) {
	configurators, err := blueprint.CreateConfigurators(cfg.Steps, cfg.Versions)
	if err != nil {
		return nil, err
	}

	return app.migrator.Rollback(ctx, configurators...)
}

func (app *App) Refresh(ctx context.Context, cfg ActionConfig) (migration.Migrations, migration.Migrations, error) {
	configurators, err := blueprint.CreateConfigurators(cfg.Steps, cfg.Versions)
	if err != nil {
		return nil, nil, err
	}

	return app.migrator.Refresh(ctx, configurators...)
}

func (app *App) Status(ctx context.Context) ([]blueprint.State, error) {
	return app.migrator.Status(ctx)
}

// InitFolder creates the migrations folder
func InitFolder(folder string) error {
	return source.NewLocalFileSource(folder, nil).Init()
}
