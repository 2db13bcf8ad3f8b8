package cli

import (
	"io/ioutil"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const DefaultConfigFile = "blueprint.yaml"

var (
	ErrDatabaseURLMissing       = errors.New("database url was not defined")
	ErrMigrationsFolderNotSet   = errors.New("migrations folder was not defined")
	ErrUnsupportedConfigVersion = errors.New("unsupported configuration file version")
)

var envPlaceholder = regexp.MustCompile(`%%([A-Za-z_][A-Za-z0-9_]*)%%`)

const configFileStub = `version: "1"
migrations:
  database_url: "%%DATABASE_URL%%"
  local_folder: ./migrations
  migrations_table: migrations
  no_lock: false
logging:
  sql: true
  debug: false
  color: true
`

type (
	Logging struct {
		SQL   bool
		Debug bool
		Color bool
	}

	Config struct {
		DatabaseURL      string
		MigrationsFolder string
		MigrationsTable  string
		NoLock           bool
		Logging          Logging
	}

	migrations struct {
		DatabaseURL     string `yaml:"database_url"`
		LocalFolder     string `yaml:"local_folder"`
		MigrationsTable string `yaml:"migrations_table"`
		NoLock          bool   `yaml:"no_lock"`
	}

	logging struct {
		SQL   *bool `yaml:"sql"`
		Debug *bool `yaml:"debug"`
		Color *bool `yaml:"color"`
	}

	configFile struct {
		Version    string     `yaml:"version"`
		Migrations migrations `yaml:"migrations"`
		Logging    logging    `yaml:"logging"`
	}
)

// DefaultConfig is used when no configuration file is present
func DefaultConfig() Config {
	return Config{
		MigrationsFolder: "./migrations",
		Logging:          Logging{SQL: true, Color: true},
	}
}

// ConfigFromYaml reads the configuration file, %%NAME%% placeholders
// are replaced with values of the corresponding environment variables
func ConfigFromYaml(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not open blueprint configuration file")
	}

	defer f.Close()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not read blueprint configuration file")
	}

	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return Config{}, errors.Wrap(err, "could not parse blueprint configuration file")
	}

	if cfgFile.Version != "" && cfgFile.Version != "1" {
		return Config{}, errors.Wrapf(ErrUnsupportedConfigVersion, "[%s]", cfgFile.Version)
	}

	cfg := DefaultConfig()
	cfg.DatabaseURL = substituteEnv(cfgFile.Migrations.DatabaseURL)
	cfg.MigrationsTable = substituteEnv(cfgFile.Migrations.MigrationsTable)
	cfg.NoLock = cfgFile.Migrations.NoLock

	if folder := substituteEnv(cfgFile.Migrations.LocalFolder); folder != "" {
		cfg.MigrationsFolder = folder
	}

	if cfgFile.Logging.SQL != nil {
		cfg.Logging.SQL = *cfgFile.Logging.SQL
	}
	if cfgFile.Logging.Debug != nil {
		cfg.Logging.Debug = *cfgFile.Logging.Debug
	}
	if cfgFile.Logging.Color != nil {
		cfg.Logging.Color = *cfgFile.Logging.Color
	}

	return cfg, nil
}

// Validate checks the configuration has everything a migrator needs
func (cfg Config) Validate() error {
	if cfg.DatabaseURL == "" {
		return ErrDatabaseURLMissing
	}

	if cfg.MigrationsFolder == "" {
		return ErrMigrationsFolderNotSet
	}

	return nil
}

func substituteEnv(value string) string {
	return strings.TrimSpace(envPlaceholder.ReplaceAllStringFunc(value, func(placeholder string) string {
		return os.Getenv(strings.Trim(placeholder, "%"))
	}))
}

// InitCfg writes a configuration file stub, an existing file is left untouched
func InitCfg(path string) error {
	if FileExists(path) {
		return errors.Errorf("configuration file [%s] already exists", path)
	}

	if err := ioutil.WriteFile(path, []byte(configFileStub), 0644); err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
