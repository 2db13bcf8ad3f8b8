package database

import (
	"sort"

	"github.com/denismitr/blueprint/migration"
)

// State describes a single migration as seen by both the source and the migrations table
type State struct {
	Key     string
	Version migration.Version
	Applied bool
	// Orphaned is set for versions recorded in the migrations table
	// that no known migration corresponds to
	Orphaned bool
}

// StatusOf merges known migrations with migrated versions into a list sorted by order
func StatusOf(migrations migration.Migrations, migratedVersions []migration.Version) []State {
	migrated := make(map[migration.Order]migration.Version, len(migratedVersions))
	for _, v := range migratedVersions {
		migrated[v.Order] = v
	}

	result := make([]State, 0, len(migrations))
	known := make(map[migration.Order]struct{}, len(migrations))

	for _, m := range migrations {
		known[m.Version.Order] = struct{}{}

		s := State{Key: m.Key, Version: m.Version}
		if v, ok := migrated[m.Version.Order]; ok {
			s.Applied = true
			s.Version.Batch = v.Batch
			s.Version.MigratedAt = v.MigratedAt
		}

		result = append(result, s)
	}

	for _, v := range migratedVersions {
		if _, ok := known[v.Order]; !ok {
			result = append(result, State{Key: v.Key(), Version: v, Applied: true, Orphaned: true})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Version.Order < result[j].Version.Order
	})

	return result
}
