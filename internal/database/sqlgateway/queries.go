package sqlgateway

import (
	"fmt"
	"strings"

	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/migration"
	"github.com/pkg/errors"
)

// ValidateVersion checks the version is complete before it gets recorded
func ValidateVersion(v migration.Version) error {
	if v.Order == 0 {
		return errors.Wrap(migration.ErrMigrationIsMalformed, "version order must be greater than 0")
	}

	if v.Batch == 0 {
		return errors.Wrap(migration.ErrMigrationIsMalformed, "version batch must be greater than 0")
	}

	if v.Name == "" {
		return errors.Wrap(migration.ErrMigrationIsMalformed, "version name must be specified")
	}

	if v.MigratedAt.IsZero() {
		return errors.Wrap(migration.ErrMigrationIsMalformed, "version migrated_at must be specified")
	}

	return nil
}

// ReadVersionsQuery appends ordering and limit to the select query
func ReadVersionsQuery(selectSQL, orderColumn string, f database.ReadVersionsFilter) (string, error) {
	var b strings.Builder
	b.WriteString(selectSQL)

	switch f.Sort {
	case database.DESC:
		b.WriteString(" ORDER BY " + orderColumn + " DESC")
	case database.ASC, "":
		b.WriteString(" ORDER BY " + orderColumn + " ASC")
	default:
		return "", errors.Errorf("invalid sort direction [%s]", f.Sort)
	}

	if f.Limit < 0 {
		return "", errors.Errorf("invalid limit [%d]", f.Limit)
	}

	if f.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", f.Limit))
	}

	return b.String(), nil
}
