// Package config loads the CLI settings from the config file, .env files
// and the environment.
package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem config and schema files are read from.
var AppFs = afero.NewOsFs()

const (
	fileName  = ".prisma-edge"
	envPrefix = "PRISMA_EDGE"
)

// Config holds the application configuration.
type Config struct {
	SchemaPath  string `mapstructure:"schema_path"`
	DatabaseURL string `mapstructure:"database_url"`
	Debug       bool   `mapstructure:"debug"`
	Strict      bool   `mapstructure:"strict"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

func newViper(dirs ...string) *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// DATABASE_URL is what the schema's env("DATABASE_URL") reads too.
	_ = v.BindEnv("database_url", envPrefix+"_DATABASE_URL", "DATABASE_URL")

	v.SetDefault("schema_path", "schema.prisma")
	v.SetDefault("debug", false)
	v.SetDefault("strict", false)
	v.SetDefault("metrics_addr", "")
	return v
}

// SearchPaths returns the directories searched for the config file.
func SearchPaths() ([]string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, errors.Wrap(err, "unable to find home directory")
	}
	return []string{".", home, filepath.Join(home, ".config", "prisma-edge")}, nil
}

// LoadConfig loads .env, .env.local and the first config file found on
// the search paths.
func LoadConfig() (*Config, error) {
	dirs, err := SearchPaths()
	if err != nil {
		return nil, err
	}
	loadDotEnv()
	return Load(dirs...)
}

// Load reads the config file from dirs. A missing file is not an error.
func Load(dirs ...string) (*Config, error) {
	v := newViper(dirs...)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "unable to read config file")
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// loadDotEnv loads .env, then lets .env.local override it.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// SaveConfig writes cfg to dir/.prisma-edge.yaml and returns the path.
func SaveConfig(cfg *Config, dir string) (string, error) {
	v := newViper()
	v.Set("schema_path", cfg.SchemaPath)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("debug", cfg.Debug)
	v.Set("strict", cfg.Strict)
	v.Set("metrics_addr", cfg.MetricsAddr)

	if err := AppFs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "unable to create %s", dir)
	}
	path := filepath.Join(dir, fileName+".yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return "", errors.Wrap(err, "unable to write config file")
	}
	return path, nil
}
