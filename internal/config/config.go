// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Engine() EngineConfig
	Centrality() CentralityConfig
	Preprocess() PreprocessConfig
	Summary() SummaryConfig
	Output() OutputConfig
	Metrics() MetricsConfig

	// Command-line overrides
	SetCentralityTopK(int)
	SetOutputFormat(string)
	SetEngineWorkerConcurrency(int)
	SetPreprocessKeyword(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	EngineCfg     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	CentralityCfg CentralityConfig `mapstructure:"centrality" yaml:"centrality"`
	PreprocessCfg PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess"`
	SummaryCfg    SummaryConfig    `mapstructure:"summary" yaml:"summary"`
	OutputCfg     OutputConfig     `mapstructure:"output" yaml:"output"`
	MetricsCfg    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// Ensures Config correctly implements the Interface at compile time.
var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig     { return c.DatabaseCfg }
func (c *Config) Engine() EngineConfig         { return c.EngineCfg }
func (c *Config) Centrality() CentralityConfig { return c.CentralityCfg }
func (c *Config) Preprocess() PreprocessConfig { return c.PreprocessCfg }
func (c *Config) Summary() SummaryConfig       { return c.SummaryCfg }
func (c *Config) Output() OutputConfig         { return c.OutputCfg }
func (c *Config) Metrics() MetricsConfig       { return c.MetricsCfg }

func (c *Config) SetCentralityTopK(k int)          { c.CentralityCfg.TopK = k }
func (c *Config) SetOutputFormat(f string)         { c.OutputCfg.Format = f }
func (c *Config) SetEngineWorkerConcurrency(w int) { c.EngineCfg.WorkerConcurrency = w }
func (c *Config) SetPreprocessKeyword(k string)    { c.PreprocessCfg.Keyword = k }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Format      string      `mapstructure:"format" yaml:"format" validate:"oneof=auto console json"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size" validate:"gte=0"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age" validate:"gte=0"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// EngineConfig configures the per-block worker pool.
type EngineConfig struct {
	WorkerConcurrency int           `mapstructure:"worker_concurrency" yaml:"worker_concurrency" validate:"gte=1"`
	BlockTimeout      time.Duration `mapstructure:"block_timeout" yaml:"block_timeout" validate:"gte=0"`
}

// CentralityConfig configures the centrality-score command.
type CentralityConfig struct {
	TopK int `mapstructure:"top_k" yaml:"top_k" validate:"gte=1"`
}

// PreprocessConfig configures sentence splitting.
type PreprocessConfig struct {
	Keyword            string `mapstructure:"keyword" yaml:"keyword" validate:"required"`
	SentenceRolePrefix string `mapstructure:"sentence_role_prefix" yaml:"sentence_role_prefix" validate:"required,startswith=:"`
}

// SummaryConfig bounds the tables of the summary command.
type SummaryConfig struct {
	MaxItems    int `mapstructure:"max_items" yaml:"max_items" validate:"gte=1"`
	MaxExamples int `mapstructure:"max_examples" yaml:"max_examples" validate:"gte=0"`
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	Format   string `mapstructure:"format" yaml:"format" validate:"oneof=table json yaml"`
	AMRWidth int    `mapstructure:"amr_width" yaml:"amr_width" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus textfile export. An empty path
// disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "auto")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "fairgraph")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Engine --
	v.SetDefault("engine.worker_concurrency", 4)
	v.SetDefault("engine.block_timeout", "0s")

	// -- Centrality --
	v.SetDefault("centrality.top_k", 10)

	// -- Preprocess --
	v.SetDefault("preprocess.keyword", "fairness")
	v.SetDefault("preprocess.sentence_role_prefix", ":snt")

	// -- Summary --
	v.SetDefault("summary.max_items", 20)
	v.SetDefault("summary.max_examples", 3)

	// -- Output --
	v.SetDefault("output.format", "table")
	v.SetDefault("output.amr_width", 80)

	// -- Database / Metrics --
	v.SetDefault("database.url", "")
	v.SetDefault("metrics.textfile", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password, so let it come from a
	// dedicated variable as well.
	_ = v.BindEnv("database.url", "FAIRGRAPH_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.LoggerCfg.LogFile != "" && c.LoggerCfg.MaxSize == 0 {
		return fmt.Errorf("logger.max_size must be positive when logger.log_file is set")
	}
	return nil
}

// describe turns a validator failure into a message keyed by the config path,
// e.g. "engine.worker_concurrency must be >= 1".
func describe(fe validator.FieldError) string {
	key := configKey(fe.Namespace())
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, fe.Param())
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "startswith":
		return fmt.Sprintf("%s must start with %q", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

// sectionKeys maps struct field names to their configuration keys.
var sectionKeys = map[string]string{
	"LoggerCfg":          "logger",
	"DatabaseCfg":        "database",
	"EngineCfg":          "engine",
	"CentralityCfg":      "centrality",
	"PreprocessCfg":      "preprocess",
	"SummaryCfg":         "summary",
	"OutputCfg":          "output",
	"MetricsCfg":         "metrics",
	"Level":              "level",
	"Format":             "format",
	"MaxSize":            "max_size",
	"MaxBackups":         "max_backups",
	"MaxAge":             "max_age",
	"WorkerConcurrency":  "worker_concurrency",
	"BlockTimeout":       "block_timeout",
	"TopK":               "top_k",
	"Keyword":            "keyword",
	"SentenceRolePrefix": "sentence_role_prefix",
	"MaxItems":           "max_items",
	"MaxExamples":        "max_examples",
	"AMRWidth":           "amr_width",
}

func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		if k, ok := sectionKeys[p]; ok {
			parts[i] = k
		}
	}
	return strings.Join(parts, ".")
}
