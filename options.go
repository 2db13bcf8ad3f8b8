package blueprint

import (
	"github.com/denismitr/blueprint/internal/logger"
	"github.com/denismitr/blueprint/internal/source"
	"github.com/denismitr/blueprint/migration"
)

type OptionFunc func(*Migrator) error

func UseColorLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColorLogger(p, printSQL, printDebug)
		return nil
	}
}

func UseLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewBWLogger(p, printSQL, printDebug)
		return nil
	}
}

// UseLocalFolderSource reads <key>.migrate.sql and <key>.rollback.sql files from the folder
func UseLocalFolderSource(folder string) OptionFunc {
	return func(m *Migrator) error {
		m.selector = source.NewLocalFileSource(folder, m.lg)
		return nil
	}
}

// UseInMemorySource uses migrations defined in Go code
func UseInMemorySource(factories ...migration.Factory) OptionFunc {
	return func(m *Migrator) error {
		s, err := source.NewInMemorySource(factories...)
		if err != nil {
			return err
		}

		m.selector = s
		return nil
	}
}
