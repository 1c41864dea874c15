package bodhi

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/navana-tech/bodhi-go-sdk/pkg/configutil"
	"github.com/navana-tech/bodhi-go-sdk/pkg/errorsx"
)

// ServiceConfig names the endpoint and credentials for one service account.
type ServiceConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	CustomerID string `mapstructure:"customer_id"`
}

// FileConfig is the YAML-file shape consumed by LoadConfig. String values may
// reference environment variables with ${VAR} and are expanded on load, so
// credentials stay out of checked-in config files.
type FileConfig struct {
	Service       ServiceConfig `mapstructure:"service"`
	Transcription struct {
		Settings map[string]any `mapstructure:"settings"`
	} `mapstructure:"transcription"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	PacingIntervalMS  int `mapstructure:"pacing_interval_ms"`
	DownloadTimeoutMS int `mapstructure:"download_timeout_ms"`
}

// transcriptionSettingsSchema bounds the free-form settings map before it is
// decoded, so typos surface as config errors instead of silently ignored keys.
var transcriptionSettingsSchema = configutil.Schema{
	Required: []string{"model"},
	Optional: []string{"transaction_id", "parse_number", "hotwords", "aux", "exclude_partial", "sample_rate"},
}

type transcriptionSettings struct {
	Model          string         `mapstructure:"model"`
	TransactionID  string         `mapstructure:"transaction_id"`
	ParseNumber    *bool          `mapstructure:"parse_number"`
	Hotwords       []string       `mapstructure:"hotwords"`
	Aux            map[string]any `mapstructure:"aux"`
	ExcludePartial *bool          `mapstructure:"exclude_partial"`
	SampleRate     int            `mapstructure:"sample_rate"`
}

// LoadConfig reads a YAML config file and expands environment references.
func LoadConfig(path string) (FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("service.url", "wss://bodhi.navana.ai")
	v.SetDefault("pacing_interval_ms", 0)
	v.SetDefault("download_timeout_ms", 0)

	if err := v.ReadInConfig(); err != nil {
		return FileConfig{}, errorsx.Wrap(fmt.Errorf("read config: %w", err), errorsx.ReasonConfiguration)
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return FileConfig{}, errorsx.Wrap(fmt.Errorf("unmarshal config: %w", err), errorsx.ReasonConfiguration)
	}

	cfg.Service.URL = os.ExpandEnv(cfg.Service.URL)
	cfg.Service.APIKey = os.ExpandEnv(cfg.Service.APIKey)
	cfg.Service.CustomerID = os.ExpandEnv(cfg.Service.CustomerID)
	cfg.Transcription.Settings = expandSettings(cfg.Transcription.Settings)

	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) Validate() error {
	if err := configutil.RequireString(c.Service.URL, "service.url"); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	if err := configutil.RequireString(c.Service.APIKey, "service.api_key"); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	if err := configutil.RequireString(c.Service.CustomerID, "service.customer_id"); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	return nil
}

// ClientConfig converts the file shape into client settings.
func (c FileConfig) ClientConfig() Config {
	return Config{
		ServiceURL:      c.Service.URL,
		APIKey:          c.Service.APIKey,
		CustomerID:      c.Service.CustomerID,
		PacingInterval:  time.Duration(c.PacingIntervalMS) * time.Millisecond,
		DownloadTimeout: time.Duration(c.DownloadTimeoutMS) * time.Millisecond,
	}
}

// TranscriptionConfig validates and decodes the free-form settings map into a
// per-request config.
func (c FileConfig) TranscriptionConfig() (*TranscriptionConfig, error) {
	if err := configutil.ValidateSettings(c.Transcription.Settings, transcriptionSettingsSchema); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("transcription.settings: %w", err), errorsx.ReasonConfiguration)
	}
	var settings transcriptionSettings
	if err := configutil.DecodeSettings(c.Transcription.Settings, &settings); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("transcription.settings: %w", err), errorsx.ReasonConfiguration)
	}
	if err := configutil.RequireString(settings.Model, "transcription.settings.model"); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonConfiguration)
	}
	return &TranscriptionConfig{
		Model:          settings.Model,
		TransactionID:  settings.TransactionID,
		ParseNumber:    configutil.BoolValue(settings.ParseNumber, false),
		Hotwords:       settings.Hotwords,
		Aux:            settings.Aux,
		ExcludePartial: configutil.BoolValue(settings.ExcludePartial, false),
		SampleRate:     settings.SampleRate,
	}, nil
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	default:
		return v
	}
}
