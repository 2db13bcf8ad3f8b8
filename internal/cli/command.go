package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/denismitr/blueprint"
	"github.com/logrusorgru/aurora/v3"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

const operationTimeout = 120 * time.Second

const usage = `usage: %s [flags] migrate|rollback|refresh|status|init|create <name>

flags:
`

// Command is a command line program running migrations,
// Source replaces the local folder migrations when set
type Command struct {
	Name   string
	Source blueprint.OptionFunc
	Out    io.Writer
}

// Run parses the arguments and executes the command, returning the exit code
func (c Command) Run(args []string) int {
	fs := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	fs.SetOutput(c.Out)

	cfgPath := fs.String("config", DefaultConfigFile, "path to the configuration file")
	databaseURL := fs.String("db", "", "database url, overrides the configuration file")
	folder := fs.String("folder", "", "local migrations folder, overrides the configuration file")
	steps := fs.Int("steps", 0, "number of migrations to apply or revert")
	versions := fs.StringSlice("versions", nil, "comma separated migration versions or keys")
	noRollback := fs.Bool("no-rollback", false, "create migration without a rollback file")

	fs.Usage = func() {
		fmt.Fprintf(c.Out, usage, c.Name)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd := fs.Arg(0)

	if cmd == "init" {
		return c.report(c.init(*cfgPath, *folder), "initialized")
	}

	cfg := DefaultConfig()
	if FileExists(*cfgPath) {
		var err error
		if cfg, err = ConfigFromYaml(*cfgPath); err != nil {
			return c.report(err, "")
		}
	}

	if *databaseURL != "" {
		cfg.DatabaseURL = *databaseURL
	}

	if *folder != "" {
		cfg.MigrationsFolder = *folder
	}

	var opts []blueprint.OptionFunc
	if c.Source != nil {
		opts = append(opts, c.Source)
	}

	app, closer, err := New(cfg, log.New(c.Out, "", 0), opts...)
	if err != nil {
		return c.report(err, "")
	}

	defer func() {
		if closeErr := closer(); closeErr != nil {
			c.fail(closeErr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	act := ActionConfig{Steps: *steps, Versions: *versions}

	switch cmd {
	case "migrate":
		migrated, err := app.Migrate(ctx, act)
		if errors.Is(err, blueprint.ErrNoChangesRequired) {
			return c.report(nil, "nothing to migrate")
		}
		return c.report(err, fmt.Sprintf("migrated %d migration(s)", len(migrated)))
	case "rollback":
		rolledBack, err := app.Rollback(ctx, act)
		if errors.Is(err, blueprint.ErrNoChangesRequired) {
			return c.report(nil, "nothing to rollback")
		}
		return c.report(err, fmt.Sprintf("rolled back %d migration(s)", len(rolledBack)))
	case "refresh":
		_, migrated, err := app.Refresh(ctx, act)
		if errors.Is(err, blueprint.ErrNoChangesRequired) {
			return c.report(nil, "nothing to refresh")
		}
		return c.report(err, fmt.Sprintf("refreshed %d migration(s)", len(migrated)))
	case "status":
		states, err := app.Status(ctx)
		if err != nil {
			return c.report(err, "")
		}
		c.printStatus(states)
		return 0
	case "create":
		if fs.NArg() < 2 {
			return c.report(errors.New("migration name must be specified"), "")
		}
		key, err := app.CreateMigration(strings.Join(fs.Args()[1:], " "), !*noRollback)
		return c.report(err, "created "+key)
	default:
		fs.Usage()
		return c.report(errors.Errorf("unknown command [%s]", cmd), "")
	}
}

func (c Command) init(cfgPath, folder string) error {
	cfg := DefaultConfig()

	if FileExists(cfgPath) {
		var err error
		if cfg, err = ConfigFromYaml(cfgPath); err != nil {
			return err
		}
	} else if err := InitCfg(cfgPath); err != nil {
		return err
	}

	if folder != "" {
		cfg.MigrationsFolder = folder
	}

	if c.Source != nil {
		return nil
	}

	return InitFolder(cfg.MigrationsFolder)
}

func (c Command) printStatus(states []blueprint.State) {
	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSTATUS\tBATCH\tMIGRATED AT")

	for _, s := range states {
		status := aurora.Yellow("pending").String()
		batch, migratedAt := "-", "-"

		if s.Applied {
			status = aurora.Green("applied").String()
			batch = fmt.Sprintf("%d", s.Version.Batch)
			migratedAt = s.Version.MigratedAt.Format(time.RFC3339)
		}

		if s.Orphaned {
			status = aurora.Red("missing").String()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Key, status, batch, migratedAt)
	}

	_ = w.Flush()
}

func (c Command) report(err error, success string) int {
	if err != nil {
		c.fail(err)
		return 1
	}

	fmt.Fprintln(c.Out, aurora.Green(c.Name+": "), success)
	return 0
}

func (c Command) fail(err error) {
	fmt.Fprintln(c.Out, aurora.Red(c.Name+": "), err.Error())
}
