// Package config loads the auto singleton settings from defaults, an optional
// autosingleton.yaml file, AUTOSINGLETON_* environment variables and flags.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/toutaio/toutago-autosingleton/catalogue"
)

const (
	// EnvPrefix prefixes every environment variable read by the loader.
	EnvPrefix = "AUTOSINGLETON"

	// FileName is the config file name searched in the working directory, without extension.
	FileName = "autosingleton"
)

// Keys shared with command line flags.
const (
	KeyRoot             = "root"
	KeyCatalogue        = "catalogue"
	KeyAutomaticRefresh = "automatic_refresh"
	KeyLogChanges       = "log_changes"
	KeyAssetFolder      = "folders.asset"
	KeyComponentFolder  = "folders.component"
	KeyLogLevel         = "log.level"
	KeyLogEncoding      = "log.encoding"
)

// Folders overrides the default folders new singleton assets are created in.
type Folders struct {
	Asset     string `mapstructure:"asset"`
	Component string `mapstructure:"component"`
}

// Log configures the process logger.
type Log struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=console json"`
}

// Config holds every setting of the tooling and the runtime loader.
type Config struct {
	// Root is the asset root directory.
	Root string `mapstructure:"root" validate:"required"`

	// Catalogue is the catalogue path relative to Root.
	Catalogue string `mapstructure:"catalogue" validate:"required"`

	// AutomaticRefresh reconciles after every change of the asset tree.
	AutomaticRefresh bool `mapstructure:"automatic_refresh"`

	// LogChanges dumps the reconciliation report after each processor.
	LogChanges bool `mapstructure:"log_changes"`

	Folders Folders `mapstructure:"folders"`
	Log     Log     `mapstructure:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Root:             "Assets",
		Catalogue:        catalogue.DefaultPath,
		AutomaticRefresh: true,
		LogChanges:       true,
		Log: Log{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// SetDefaults registers the built-in settings on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyRoot, d.Root)
	v.SetDefault(KeyCatalogue, d.Catalogue)
	v.SetDefault(KeyAutomaticRefresh, d.AutomaticRefresh)
	v.SetDefault(KeyLogChanges, d.LogChanges)
	v.SetDefault(KeyAssetFolder, d.Folders.Asset)
	v.SetDefault(KeyComponentFolder, d.Folders.Component)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogEncoding, d.Log.Encoding)
}

// NewViper returns a viper instance with defaults and environment binding.
// file is read when set; otherwise autosingleton.yaml is searched in the
// working directory and silently skipped when absent.
func NewViper(fs afero.Fs, file string) (*viper.Viper, error) {
	v := viper.New()
	if fs != nil {
		v.SetFs(fs)
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the settings from file, the environment and defaults.
func Load(fs afero.Fs, file string) (*Config, error) {
	v, err := NewViper(fs, file)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid config"),
			"log.level must be one of debug, info, warn, error and log.encoding one of console, json")
	}
	return nil
}
