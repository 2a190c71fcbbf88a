// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables viper reads,
// e.g. ATESIM_SIM_REPS overrides sim.reps.
const envPrefix = "ATESIM"

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Sim    SimConfig    `mapstructure:"sim" yaml:"sim"`
}

// LoggerConfig controls the zap logger and optional rotating log file.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SimConfig carries the experiment parameters. Seed drives the fixed-design
// run; RedrawSeed drives the redraw-design run so the two experiments stay
// independently reproducible within one invocation.
type SimConfig struct {
	Design     string  `mapstructure:"design" yaml:"design"`
	N          int     `mapstructure:"n" yaml:"n"`
	NTreat     int     `mapstructure:"ntreat" yaml:"ntreat"`
	Reps       int     `mapstructure:"reps" yaml:"reps"`
	Seed       int64   `mapstructure:"seed" yaml:"seed"`
	RedrawSeed int64   `mapstructure:"redraw_seed" yaml:"redraw_seed"`
	Tau0       float64 `mapstructure:"tau0" yaml:"tau0"`
	Workers    int     `mapstructure:"workers" yaml:"workers"`
	Output     string  `mapstructure:"output" yaml:"output"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "atesim")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// Simulation defaults
	v.SetDefault("sim.design", "both")
	v.SetDefault("sim.n", 1000)
	v.SetDefault("sim.ntreat", 500)
	v.SetDefault("sim.reps", 800)
	v.SetDefault("sim.seed", 12345)
	v.SetDefault("sim.redraw_seed", 54321)
	v.SetDefault("sim.tau0", 0.2)
	v.SetDefault("sim.workers", 1)
	v.SetDefault("sim.output", "")
}

// NewDefaultConfig returns a Config populated purely from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	// Unmarshal of defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from cfgFile (or discovers atesim.yaml in the
// working directory and the home directory), layers environment variables
// on top, and validates the result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("atesim")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found; defaults and env vars apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects malformed configuration before any experiment runs.
// Nothing is clamped; bad values are reported back to the caller.
func (c *Config) Validate() error {
	s := c.Sim
	switch s.Design {
	case "fixed", "redraw", "both":
	default:
		return fmt.Errorf("sim.design must be fixed, redraw or both, got %q", s.Design)
	}
	if s.N <= 0 {
		return fmt.Errorf("sim.n must be a positive integer, got %d", s.N)
	}
	if s.NTreat < 1 || s.NTreat > s.N-1 {
		return fmt.Errorf("sim.ntreat must be in [1, %d], got %d", s.N-1, s.NTreat)
	}
	if s.Reps <= 0 {
		return fmt.Errorf("sim.reps must be a positive integer, got %d", s.Reps)
	}
	if s.Workers < 0 {
		return fmt.Errorf("sim.workers must be non-negative, got %d", s.Workers)
	}
	return nil
}
