// Package config holds the settings of the trialgrid command.
//
// Settings come, from lowest to highest priority, from the built-in
// defaults, a trialgrid.yaml file, .env files and TRIALGRID_ environment
// variables, and command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings.
// TRIALGRID_OUTPUT_DPI sets output.dpi.
const EnvPrefix = "TRIALGRID"

// ErrInvalidConfig is returned when the settings do not validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete configuration.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Output   OutputConfig   `mapstructure:"output"`
	Record   RecordConfig   `mapstructure:"record"`
	Log      LogConfig      `mapstructure:"log"`
	Preview  PreviewConfig  `mapstructure:"preview"`
}

// InputConfig locates the trial data.
type InputConfig struct {
	// Path is the trial data file. Its extension selects the loader.
	Path string `mapstructure:"path"`

	// Variable names the array, column or table holding the trial codes.
	Variable string `mapstructure:"variable"`
}

// ProtocolConfig selects the experiment protocol.
type ProtocolConfig struct {
	// Path is a protocol YAML file. Empty selects the built-in protocol.
	Path string `mapstructure:"path"`
}

// OutputConfig controls the figure.
type OutputConfig struct {
	Path string `mapstructure:"path"`

	// Format is "png" or "svg". Empty selects the format from Path.
	Format string `mapstructure:"format"`

	DPI         float64 `mapstructure:"dpi"`
	WidthIn     float64 `mapstructure:"width_in"`
	HeightIn    float64 `mapstructure:"height_in"`
	Transparent bool    `mapstructure:"transparent"`
	Background  string  `mapstructure:"background"`
}

// RecordConfig controls the SQLite recording of rendered layouts.
type RecordConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Path is the database file. Empty creates a uniquely named file.
	Path string `mapstructure:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PreviewConfig controls the preview server.
type PreviewConfig struct {
	// Port is the port to listen on. Zero picks a free port.
	Port int  `mapstructure:"port"`
	Open bool `mapstructure:"open"`
}

// Default returns the configuration of the standard 15 by 6 inch figure.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:     "trial_types.mat",
			Variable: "trial_types",
		},
		Output: OutputConfig{
			Path:        "visualization_white_fonts.png",
			DPI:         600,
			WidthIn:     15,
			HeightIn:    6,
			Transparent: true,
			Background:  "#000000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("input.path", defaults.Input.Path)
	v.SetDefault("input.variable", defaults.Input.Variable)

	v.SetDefault("protocol.path", defaults.Protocol.Path)

	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.dpi", defaults.Output.DPI)
	v.SetDefault("output.width_in", defaults.Output.WidthIn)
	v.SetDefault("output.height_in", defaults.Output.HeightIn)
	v.SetDefault("output.transparent", defaults.Output.Transparent)
	v.SetDefault("output.background", defaults.Output.Background)

	v.SetDefault("record.enabled", defaults.Record.Enabled)
	v.SetDefault("record.path", defaults.Record.Path)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("preview.port", defaults.Preview.Port)
	v.SetDefault("preview.open", defaults.Preview.Open)
}

// Setup prepares v to read the configuration. It loads the given .env files,
// or ".env" when none are given, and skips those that do not exist. The
// config file is configFile, or trialgrid.yaml in the working directory when
// configFile is empty; a missing trialgrid.yaml is not an error.
func Setup(v *viper.Viper, configFile string, envFiles ...string) error {
	SetDefaults(v)

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, f := range envFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("trialgrid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !(configFile == "" && errors.As(err, &notFound)) {
		return fmt.Errorf("read config: %w", err)
	}

	return nil
}

// Load reads the configuration from v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}

	return &cfg, nil
}
