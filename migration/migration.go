package migration

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/denismitr/blueprint/schema"
	"github.com/pkg/errors"
)

var (
	ErrInvalidMigrationKey  = errors.New("invalid migration key")
	ErrMigrationIsMalformed = errors.New("migration is malformed")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
)

type (
	// Order is the sequence key of a migration, e.g. 20250822000005
	Order uint64

	// Batch groups migrations applied by a single run
	Batch uint

	Version struct {
		Order      Order
		Batch      Batch
		Name       string
		MigratedAt time.Time
	}

	// Func is one direction of a migration unit
	Func func(ctx context.Context, s schema.Store) error

	Migration struct {
		Key     string
		Version Version
		Apply   Func
		Revert  Func
	}

	ClockFunc func() time.Time
	Factory   func() (*Migration, error)
)

const (
	MinOrderLength = 9
	MaxOrderLength = 14

	datetimeKeyLayout = "2006_01_02_150405"
)

var (
	datetimeKeyRegexp = regexp.MustCompile(`^(\d{4})_(\d{2})_(\d{2})_(\d{6})_([a-z0-9_]+)$`)
	compactKeyRegexp  = regexp.MustCompile(`^(\d{9,14})_([a-z0-9_]+)$`)
)

// ParseKey splits a migration key into its order and name.
//
//	2025_08_22_000005_create_stocks_table -> 20250822000005, create_stocks_table
//	1596897167_create_items_table         -> 1596897167, create_items_table
func ParseKey(key string) (Order, string, error) {
	var digits, name string

	if m := datetimeKeyRegexp.FindStringSubmatch(key); m != nil {
		digits = m[1] + m[2] + m[3] + m[4]
		name = m[5]
	} else if m := compactKeyRegexp.FindStringSubmatch(key); m != nil {
		digits = m[1]
		name = m[2]
	} else {
		return 0, "", errors.Wrapf(ErrInvalidMigrationKey, "[%s]", key)
	}

	order, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || order == 0 {
		return 0, "", errors.Wrapf(ErrInvalidMigrationKey, "[%s] has invalid order", key)
	}

	if strings.Trim(name, "_") == "" {
		return 0, "", errors.Wrapf(ErrInvalidMigrationKey, "[%s] has no name", key)
	}

	return Order(order), name, nil
}

// ParseOrder accepts either a bare order or a full migration key
func ParseOrder(s string) (Order, error) {
	s = strings.TrimSpace(s)
	if len(s) >= MinOrderLength && len(s) <= MaxOrderLength {
		if order, err := strconv.ParseUint(s, 10, 64); err == nil && order > 0 {
			return Order(order), nil
		}
	}

	order, _, err := ParseKey(s)
	if err != nil {
		return 0, err
	}

	return order, nil
}

// Key builds a migration key from the version, used when only
// the migrations table record is available
func (v Version) Key() string {
	return fmt.Sprintf("%d_%s", v.Order, v.Name)
}

func (v Version) String() string {
	return fmt.Sprintf("version: %d, batch: %d, name: %s", v.Order, v.Batch, v.Name)
}

// New creates a migration factory from an apply and revert pair,
// a nil revert makes the migration revert into a no-op
func New(key string, apply, revert Func) Factory {
	return func() (*Migration, error) {
		order, name, err := ParseKey(key)
		if err != nil {
			return nil, err
		}

		if apply == nil {
			return nil, errors.Wrapf(ErrMigrationIsMalformed, "migration [%s] has no apply function", key)
		}

		r := revert
		if r == nil {
			r = noop
		}

		return &Migration{
			Key:     key,
			Version: Version{Order: order, Name: name},
			Apply:   apply,
			Revert:  r,
		}, nil
	}
}

// CreateTable creates the table on apply and drops it if it exists on revert
func CreateTable(key, table string, build func(t *schema.Blueprint)) Factory {
	return New(
		key,
		func(ctx context.Context, s schema.Store) error {
			return schema.Create(ctx, s, schema.Define(table, build))
		},
		func(ctx context.Context, s schema.Store) error {
			return schema.DropIfExists(ctx, s, table)
		},
	)
}

// FromScripts creates a migration executing raw SQL statements in order
func FromScripts(key string, migrate, rollback []string) Factory {
	return New(key, execScripts(key, migrate), execScripts(key, rollback))
}

func execScripts(key string, scripts []string) Func {
	return func(ctx context.Context, s schema.Store) error {
		for _, script := range scripts {
			if strings.TrimSpace(script) == "" {
				continue
			}

			if err := s.Exec(ctx, script); err != nil {
				return errors.Wrapf(err, "could not execute script of migration [%s]", key)
			}
		}

		return nil
	}
}

func noop(context.Context, schema.Store) error {
	return nil
}

// GenerateKey creates a new datetime based key for the migration name
func GenerateKey(cf ClockFunc, name string) (string, error) {
	name = NormalizeName(name)
	if name == "" {
		return "", errors.Wrap(ErrInvalidMigrationKey, "migration name must be specified")
	}

	key := cf().UTC().Format(datetimeKeyLayout) + "_" + name
	if _, _, err := ParseKey(key); err != nil {
		return "", err
	}

	return key, nil
}

// NormalizeName turns a human readable name into the name part of a key
func NormalizeName(name string) string {
	return strings.Trim(strings.ToLower(strings.Join(strings.Fields(name), "_")), "_")
}

type Migrations []*Migration

// NewMigrations builds migrations sorted by order,
// two migrations with the same order are rejected
func NewMigrations(factories ...Factory) (Migrations, error) {
	migrations := make(Migrations, 0, len(factories))
	seen := make(map[Order]string, len(factories))

	for i := range factories {
		m, err := factories[i]()
		if err != nil {
			return nil, err
		}

		if other, ok := seen[m.Version.Order]; ok {
			return nil, errors.Wrapf(ErrDuplicateVersion, "[%s] and [%s]", other, m.Key)
		}
		seen[m.Version.Order] = m.Key

		migrations = append(migrations, m)
	}

	sort.Sort(migrations)

	return migrations, nil
}

func (m Migrations) Keys() []string {
	result := make([]string, 0, len(m))
	for i := range m {
		result = append(result, m[i].Key)
	}
	return result
}

func (m Migrations) Len() int {
	return len(m)
}

func (m Migrations) Less(i, j int) bool {
	return m[i].Version.Order < m[j].Version.Order
}

func (m Migrations) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func InVersions(order Order, versions []Version) bool {
	for _, v := range versions {
		if v.Order == order {
			return true
		}
	}

	return false
}

func InOrders(order Order, orders []Order) bool {
	for _, o := range orders {
		if o == order {
			return true
		}
	}

	return false
}
