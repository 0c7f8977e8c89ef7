// Package config loads snirf-reconcile settings from flags, environment,
// .env files and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scigolib/snirf/internal/logging"
)

// EnvPrefix is prepended to every environment variable, e.g. SNIRF_SOURCE.
const EnvPrefix = "SNIRF"

// ConfigName is the config file searched in $HOME and the working directory.
const ConfigName = ".snirf-reconcile"

// Config holds the settings of one CLI invocation.
type Config struct {
	Source string
	Target string
	DryRun bool
	Output string

	Verbose   bool
	Quiet     bool
	NoColor   bool
	LogLevel  string
	LogFormat string

	// ConfigFile is the config file actually read, empty if none.
	ConfigFile string
}

// flagKeys maps viper keys to the flag names that override them.
var flagKeys = map[string]string{
	"source":     "source",
	"target":     "target",
	"dry_run":    "dry-run",
	"output":     "output",
	"verbose":    "verbose",
	"quiet":      "quiet",
	"no_color":   "no-color",
	"log.level":  "log-level",
	"log.format": "log-format",
}

// Load resolves configuration in order of precedence:
// 1. Flags that were set on the command line
// 2. SNIRF_* environment variables
// 3. .env and .env.local in the working directory
// 4. The config file (configFile, or .snirf-reconcile.yaml in $HOME or .)
// 5. Defaults
//
// An explicit configFile that cannot be read is an error; a missing default
// config file is not. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	loadEnvFiles(".env", ".env.local")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dry_run", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	return &Config{
		Source:     v.GetString("source"),
		Target:     v.GetString("target"),
		DryRun:     v.GetBool("dry_run"),
		Output:     v.GetString("output"),
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		LogLevel:   v.GetString("log.level"),
		LogFormat:  v.GetString("log.format"),
		ConfigFile: v.ConfigFileUsed(),
	}, nil
}

// Logging returns the logger configuration implied by c. --quiet wins over
// --verbose, and both win over the configured level.
func (c *Config) Logging() logging.Config {
	cfg := logging.Config{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		NoColor: c.NoColor || os.Getenv("NO_COLOR") != "",
	}
	switch {
	case c.Quiet:
		cfg.Level = "warn"
	case c.Verbose:
		cfg.Level = "debug"
	}
	return cfg
}

// loadEnvFiles loads .env files into the process environment. Variables that
// are already set are left alone; missing files are skipped.
func loadEnvFiles(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}
