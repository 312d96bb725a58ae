// Package config loads the importer daemon's configuration the way the
// teacher's pkg/config does: defaults, then a YAML file, then IXF_*
// environment variables, validated with go-playground/validator/v10.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// Config is the importer daemon's full static configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (IXF_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Database  store.Config    `mapstructure:"database" yaml:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Mail      MailConfig      `mapstructure:"mail" yaml:"mail"`
	Tickets   TicketConfig    `mapstructure:"tickets" yaml:"tickets"`
	Notify    NotifyConfig    `mapstructure:"notify" yaml:"notify"`

	// PostmortemLimit caps a post-mortem report (spec.md §6 IXF_POSTMORTEM_LIMIT).
	PostmortemLimit int `mapstructure:"postmortem_limit" validate:"omitempty,min=1" yaml:"postmortem_limit"`
}

// LoggingConfig controls logger output, mirroring internal/logger.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing export.
type TelemetryConfig struct {
	Enabled  bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// MailConfig configures the SMTP transport the Notifier sends through.
// Debug, when true, swaps in notify.DebugMailer instead of real SMTP —
// the Go equivalent of original_source/ixf.py's MAIL_DEBUG setting.
type MailConfig struct {
	Debug    bool   `mapstructure:"debug" yaml:"debug"`
	Host     string `mapstructure:"host" validate:"required_unless=Debug true" yaml:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
	From     string `mapstructure:"from" validate:"required_unless=Debug true" yaml:"from"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// TicketConfig configures the ticketing system client.
type TicketConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Token   string `mapstructure:"token" yaml:"token"`
}

// NotifyConfig mirrors notify.Config: the dispatch policy spec.md §4.9
// and §6 describe as IXF_* options.
type NotifyConfig struct {
	SendTickets         bool          `mapstructure:"send_tickets" yaml:"send_tickets"`
	TicketOnConflict    bool          `mapstructure:"ticket_on_conflict" yaml:"ticket_on_conflict"`
	NotifyIXOnConflict  bool          `mapstructure:"notify_ix_on_conflict" yaml:"notify_ix_on_conflict"`
	NotifyNetOnConflict bool          `mapstructure:"notify_net_on_conflict" yaml:"notify_net_on_conflict"`
	DaysUntilTicket     int           `mapstructure:"days_until_ticket" validate:"omitempty,min=0" yaml:"days_until_ticket"`
	ParseErrorPeriod    time.Duration `mapstructure:"parse_error_period" yaml:"parse_error_period"`
	SubjectPrefix       string        `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	AdminEmail          string        `mapstructure:"admin_email" validate:"omitempty,email" yaml:"admin_email"`
}

// Load reads configuration from file, environment, and defaults, the same
// precedence order as the teacher's pkg/config.Load.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	} else {
		bindEnvOnlyOverrides(v, cfg)
	}

	cfg.Database.ApplyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns the zero-config baseline: SQLite database,
// text logging to stdout, tracing and metrics off, real mail disabled
// (debug mailer) until mail.debug is set to false (IXF_MAIL_DEBUG=false).
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Telemetry: TelemetryConfig{
			Enabled: false, Endpoint: "localhost:4317", Insecure: true, SampleRate: 1.0,
		},
		Metrics: MetricsConfig{Enabled: false, Port: 9090},
		Mail:    MailConfig{Debug: true},
		Notify: NotifyConfig{
			DaysUntilTicket:  0,
			ParseErrorPeriod: 24 * time.Hour,
			SubjectPrefix:    "[IXF]",
		},
		PostmortemLimit: 200,
		Database:        store.Config{Type: store.DatabaseTypeSQLite},
	}
}

// bindEnvOnlyOverrides applies IXF_* environment variables on top of the
// default config when no config file was found, since viper.Unmarshal
// only pulls keys that already exist somewhere in its registered config.
func bindEnvOnlyOverrides(v *viper.Viper, cfg *Config) {
	var bind func(t reflect.Type, prefix string)
	bind = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			key := f.Tag.Get("mapstructure")
			if key == "" {
				key = strings.ToLower(f.Name)
			}
			if f.Type.Kind() == reflect.Struct {
				bind(f.Type, prefix+key+".")
				continue
			}
			_ = v.BindEnv(prefix + key)
		}
	}
	bind(reflect.TypeOf(*cfg), "")
	if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		logger.Warn("config: env-only unmarshal failed, keeping defaults", "error", err)
	}
}

// Validate runs struct-tag validation over a loaded Config.
func Validate(cfg *Config) error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}

// setupViper wires IXF_* environment variables and the YAML config file
// search path, mirroring the teacher's DITTOFS_* convention.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("IXF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

// durationDecodeHook lets config files and IXF_* env vars express
// durations as "24h"/"30s" instead of raw nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ixfrecon")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ixfrecon")
}

// GetDefaultConfigPath returns the default configuration file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
