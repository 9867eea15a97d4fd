// Package config loads run settings from flags, environment and an optional
// .branchdiff.yaml file, and resolves the branch pairs to compare.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

const (
	// FileName is looked up in the repository root and the working directory.
	FileName = ".branchdiff"
	// EnvPrefix prefixes every environment override, e.g. BRANCHDIFF_NO_PULL.
	EnvPrefix = "BRANCHDIFF"
)

// Report formats.
const (
	FormatNotebook = "ipynb"
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// DefaultPairs are compared when no pairs are configured.
var DefaultPairs = []model.BranchPair{
	{From: "development", To: "build"},
	{From: "development", To: "master"},
	{From: "development", To: "preprod"},
	{From: "preprod", To: "master"},
}

// Config is the resolved run configuration.
type Config struct {
	Repo          string        `mapstructure:"repo" validate:"required"`
	Pairs         []string      `mapstructure:"pairs" validate:"dive,required"`
	PairsFile     string        `mapstructure:"pairs_file" validate:"omitempty,file"`
	Bidirectional bool          `mapstructure:"bidirectional"`
	NoPull        bool          `mapstructure:"no_pull"`
	Output        string        `mapstructure:"output"`
	Format        string        `mapstructure:"format" validate:"oneof=ipynb md json"`
	Exclude       []string      `mapstructure:"exclude" validate:"dive,globpattern"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"min=0"`
	LogLevel      string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON       bool          `mapstructure:"log_json"`
	LogFile       string        `mapstructure:"log_file"`
	Preview       bool          `mapstructure:"preview"`
	Browse        bool          `mapstructure:"browse"`
}

// flagKeys maps config keys to their command-line flag names.
var flagKeys = map[string]string{
	"repo":          "repo",
	"pairs":         "pairs",
	"pairs_file":    "pairs-file",
	"bidirectional": "bidirectional",
	"no_pull":       "no-pull",
	"output":        "output",
	"format":        "format",
	"exclude":       "exclude",
	"timeout":       "timeout",
	"log_level":     "log-level",
	"log_json":      "json-logs",
	"log_file":      "log-file",
	"preview":       "preview",
	"browse":        "browse",
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("repo", ".")
	v.SetDefault("format", FormatNotebook)
	v.SetDefault("timeout", 2*time.Minute)
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees environment values for keys viper knows about
	for key := range flagKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// BindFlags lets any flag that is present in fs override its config key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and returns the validated config.
// An explicit file must exist; otherwise .branchdiff.{yaml,yml,json,toml}
// is searched in the repository directory and then the working directory.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(v.GetString("repo"))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	_ = validate.RegisterValidation("globpattern", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("invalid '%s': rule '%s'", e.Field(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// OutputPath returns the report destination. Without an explicit output the
// report is named after the repository directory.
func (c *Config) OutputPath(repoRoot string) string {
	if c.Output != "" {
		return c.Output
	}
	return fmt.Sprintf("%s_comparison_report.%s", filepath.Base(repoRoot), c.Format)
}
