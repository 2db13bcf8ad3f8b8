package blueprint

import (
	"testing"

	"github.com/denismitr/blueprint/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_createConfigurators(t *testing.T) {
	tt := []struct {
		name                  string
		expectedConfigurators int
		steps                 int
		versions              []string
		expectedVersions      []migration.Order
	}{
		{
			name:                  "zero values",
			expectedConfigurators: 0,
		},
		{
			name:                  "both params",
			expectedConfigurators: 2,
			steps:                 3,
			versions:              []string{"1234567890", "1234567899"},
			expectedVersions:      []migration.Order{1234567890, 1234567899},
		},
		{
			name:                  "only versions",
			expectedConfigurators: 1,
			steps:                 0,
			versions:              []string{"20250822000005", "2025_08_22_000004_create_items_table"},
			expectedVersions:      []migration.Order{20250822000005, 20250822000004},
		},
		{
			name:                  "only steps",
			expectedConfigurators: 1,
			steps:                 4,
			versions:              []string{},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			configurators, err := CreateConfigurators(tc.steps, tc.versions)
			require.NoError(t, err)
			assert.Len(t, configurators, tc.expectedConfigurators)

			a := newAction(configurators)

			assert.Equal(t, tc.steps, a.steps)
			assert.Equal(t, tc.expectedVersions, a.versions)
			assert.Equal(t, tc.expectedVersions, a.plan().Versions)
			assert.Equal(t, tc.expectedVersions, a.filter().Versions)
		})
	}

	t.Run("invalid version", func(t *testing.T) {
		_, err := CreateConfigurators(0, []string{"create_items_table"})
		assert.Error(t, err)
	})
}

func Test_action(t *testing.T) {
	t.Parallel()

	t.Run("versions and steps", func(t *testing.T) {
		a := Action{}

		WithSteps(3)(&a)
		WithVersions(20250822000004, 20250822000005)(&a)

		assert.Equal(t, 3, a.steps)
		require.Len(t, a.versions, 2)
		assert.Equal(t, migration.Order(20250822000004), a.versions[0])
		assert.Equal(t, migration.Order(20250822000005), a.versions[1])
		assert.Equal(t, 3, a.plan().Steps)
	})
}
