// Package config loads and validates the pipeline configuration.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrConfiguration indicates an invalid configuration value: a negative
// feature weight, a non-positive k, or an unknown transformation override.
var ErrConfiguration = eris.New("config: invalid configuration")

// Config holds the full application configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Keys      KeysConfig      `yaml:"keys" mapstructure:"keys"`
	Clean     CleanConfig     `yaml:"clean" mapstructure:"clean"`
	Model     ModelConfig     `yaml:"model" mapstructure:"model"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WorkspaceConfig locates the data tree and run outputs.
type WorkspaceConfig struct {
	InputDir   string `yaml:"input_dir" mapstructure:"input_dir"`
	DataDir    string `yaml:"data_dir" mapstructure:"data_dir"`
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	HashLength int    `yaml:"hash_length" mapstructure:"hash_length"`
}

// KeysConfig names the geography identity columns in the source data.
type KeysConfig struct {
	LACode   string `yaml:"la_code" mapstructure:"la_code"`
	LAName   string `yaml:"la_name" mapstructure:"la_name"`
	LSOACode string `yaml:"lsoa_code" mapstructure:"lsoa_code"`
}

// CleanConfig configures the cleaning stage.
type CleanConfig struct {
	LAsToRemove []string `yaml:"las_to_remove" mapstructure:"las_to_remove"`
}

// ModelConfig configures transformation, distance, and peer ranking.
type ModelConfig struct {
	FeatureWeights        map[string]float64 `yaml:"feature_weights" mapstructure:"feature_weights"`
	CustomTransformations map[string]string  `yaml:"custom_transformations" mapstructure:"custom_transformations"`
	Normalise             bool               `yaml:"normalise" mapstructure:"normalise"`
	Peers                 int                `yaml:"peers" mapstructure:"peers"`
	DistanceMetric        string             `yaml:"distance_metric" mapstructure:"distance_metric"`
}

// ReportConfig configures the diagnostic reports.
type ReportConfig struct {
	HighCorrelation float64  `yaml:"high_correlation" mapstructure:"high_correlation"`
	HistogramBins   int      `yaml:"histogram_bins" mapstructure:"histogram_bins"`
	ExampleLAs      []string `yaml:"example_las" mapstructure:"example_las"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PEERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("workspace.input_dir", "input")
	v.SetDefault("workspace.data_dir", "data")
	v.SetDefault("workspace.output_dir", "output")
	v.SetDefault("workspace.hash_length", 8)
	v.SetDefault("keys.la_code", "UTLA22CD")
	v.SetDefault("keys.la_name", "UTLA22NM")
	v.SetDefault("keys.lsoa_code", "LSOA21CD")
	v.SetDefault("model.normalise", true)
	v.SetDefault("model.peers", 10)
	v.SetDefault("model.distance_metric", "euclidean")
	v.SetDefault("report.high_correlation", 0.8)
	v.SetDefault("report.histogram_bins", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration values the pipeline depends on. Feature
// weights must be non-negative, at least one must be positive, and the peer
// count must be at least 1.
func (c *Config) Validate() error {
	if c.Workspace.HashLength <= 0 {
		return eris.Wrapf(ErrConfiguration, "workspace.hash_length must be positive (got %d)", c.Workspace.HashLength)
	}
	if c.Model.Peers < 1 {
		return eris.Wrapf(ErrConfiguration, "model.peers must be at least 1 (got %d)", c.Model.Peers)
	}
	if len(c.Model.FeatureWeights) == 0 {
		return eris.Wrap(ErrConfiguration, "model.feature_weights is empty")
	}
	anyPositive := false
	for feature, weight := range c.Model.FeatureWeights {
		if weight < 0 {
			return eris.Wrapf(ErrConfiguration, "negative weight %v for feature %q", weight, feature)
		}
		if weight > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		return eris.Wrap(ErrConfiguration, "all feature weights are zero")
	}
	if c.Report.HistogramBins < 1 {
		return eris.Wrapf(ErrConfiguration, "report.histogram_bins must be at least 1 (got %d)", c.Report.HistogramBins)
	}
	return nil
}

// InitLogger initializes the global zap logger. When logFile is non-empty the
// logger tees to it alongside stdout.
func InitLogger(cfg LogConfig, logFile string) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	zapCfg.OutputPaths = []string{"stdout"}
	if logFile != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, logFile)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
