package blueprint

import (
	"github.com/denismitr/blueprint/internal/database"
	"github.com/denismitr/blueprint/internal/source"
	"github.com/denismitr/blueprint/migration"
)

type ActionConfigurator func(a *Action)

// Action narrows down migrations an operation is applied to
type Action struct {
	steps    int
	versions []migration.Order
}

func WithSteps(steps int) ActionConfigurator {
	return func(a *Action) {
		a.steps = steps
	}
}

func WithVersions(versions ...migration.Order) ActionConfigurator {
	return func(a *Action) {
		a.versions = versions
	}
}

// CreateConfigurators builds configurators from command line values,
// versions may be given either as orders or as full migration keys
func CreateConfigurators(steps int, versionStrings []string) ([]ActionConfigurator, error) {
	var configurators []ActionConfigurator
	if steps > 0 {
		configurators = append(configurators, WithSteps(steps))
	}

	if len(versionStrings) > 0 {
		var versions []migration.Order
		for _, s := range versionStrings {
			order, err := migration.ParseOrder(s)
			if err != nil {
				return nil, err
			}

			versions = append(versions, order)
		}

		configurators = append(configurators, WithVersions(versions...))
	}

	return configurators, nil
}

func newAction(cfs []ActionConfigurator) *Action {
	act := new(Action)
	for _, f := range cfs {
		f(act)
	}

	return act
}

func (a *Action) filter() source.Filter {
	return source.Filter{Versions: a.versions}
}

func (a *Action) plan() database.Plan {
	return database.Plan{Steps: a.steps, Versions: a.versions}
}
