// Package config provides Viper-based configuration loading for the damage
// calculator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the profile store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig points at the YAML content directories.
type ContentConfig struct {
	Characters string `mapstructure:"characters"`
	Weapons    string `mapstructure:"weapons"`
	Artifacts  string `mapstructure:"artifacts"`
	Rules      string `mapstructure:"rules"`
}

// EngineConfig tunes attribute resolution and damage evaluation.
type EngineConfig struct {
	// AttrCalc recomputes attributes from components when true; when false
	// a declared panel on the profile is used as-is.
	AttrCalc bool `mapstructure:"attr_calc"`
	// DefaultEnemyLevel is used when a scenario does not name one.
	DefaultEnemyLevel int `mapstructure:"default_enemy_level"`
	// CritMode is "expected" or "discrete".
	CritMode string `mapstructure:"crit_mode"`
	// ScriptInstructionLimit caps the Lua instructions of one evaluation.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// DataSources lists the sources whose profiles count as carrying data.
	DataSources []string `mapstructure:"data_sources"`
}

// CalcServerConfig holds gRPC listener settings for the calculator service.
type CalcServerConfig struct {
	GRPCHost        string        `mapstructure:"grpc_host"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (c CalcServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GRPCHost, c.GRPCPort)
}

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Content    ContentConfig    `mapstructure:"content"`
	Engine     EngineConfig     `mapstructure:"engine"`
	CalcServer CalcServerConfig `mapstructure:"calcserver"`
}

// Validate checks every section and returns all violations joined.
//
// Postcondition: Returns nil if the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	errs = append(errs, validateDatabase(c.Database)...)
	errs = append(errs, validateLogging(c.Logging)...)
	errs = append(errs, validateContent(c.Content)...)
	errs = append(errs, validateEngine(c.Engine)...)
	errs = append(errs, validateCalcServer(c.CalcServer)...)
	return errors.Join(errs...)
}

func validateDatabase(d DatabaseConfig) []error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("database.host must not be empty"))
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, errors.New("database.user must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("database.name must not be empty"))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Errorf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", d.MinConns, d.MaxConns))
	}
	return errs
}

func validateLogging(l LoggingConfig) []error {
	var errs []error
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn, or error; got %q", l.Level))
	}
	switch l.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console; got %q", l.Format))
	}
	return errs
}

func validateContent(c ContentConfig) []error {
	var errs []error
	for name, dir := range map[string]string{
		"characters": c.Characters,
		"weapons":    c.Weapons,
		"artifacts":  c.Artifacts,
		"rules":      c.Rules,
	} {
		if dir == "" {
			errs = append(errs, fmt.Errorf("content.%s must not be empty", name))
		}
	}
	return errs
}

func validateEngine(e EngineConfig) []error {
	var errs []error
	if e.DefaultEnemyLevel < 1 || e.DefaultEnemyLevel > 200 {
		errs = append(errs, fmt.Errorf("engine.default_enemy_level must be 1-200, got %d", e.DefaultEnemyLevel))
	}
	switch e.CritMode {
	case "expected", "discrete":
	default:
		errs = append(errs, fmt.Errorf("engine.crit_mode must be expected or discrete; got %q", e.CritMode))
	}
	if e.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Errorf("engine.script_instruction_limit must be >= 0, got %d", e.ScriptInstructionLimit))
	}
	return errs
}

func validateCalcServer(c CalcServerConfig) []error {
	var errs []error
	if c.GRPCHost == "" {
		errs = append(errs, errors.New("calcserver.grpc_host must not be empty"))
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("calcserver.grpc_port must be 1-65535, got %d", c.GRPCPort))
	}
	return errs
}

// Load reads configuration from the YAML file at path, applies DMGCALC_
// environment overrides, and validates the result.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a validated Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}
	return LoadFromViper(v)
}

// LoadFromViper unmarshals and validates configuration from an existing
// Viper instance.
//
// Precondition: v must not be nil.
// Postcondition: Returns a validated Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix("DMGCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dmgcalc")
	v.SetDefault("database.name", "dmgcalc")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("content.characters", "content/characters")
	v.SetDefault("content.weapons", "content/weapons")
	v.SetDefault("content.artifacts", "content/artifacts")
	v.SetDefault("content.rules", "content/rules")

	v.SetDefault("engine.attr_calc", true)
	v.SetDefault("engine.default_enemy_level", 91)
	v.SetDefault("engine.crit_mode", "expected")
	v.SetDefault("engine.script_instruction_limit", 0)
	v.SetDefault("engine.data_sources", []string{"enka", "change", "miao"})

	v.SetDefault("calcserver.grpc_host", "127.0.0.1")
	v.SetDefault("calcserver.grpc_port", 50061)
	v.SetDefault("calcserver.shutdown_timeout", 10*time.Second)
}
