package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. WORKER_DATABASE_URL.
const EnvPrefix = "WORKER"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 30,
	"database.url":                    "",
	"database.max_open_conns":         10,
	"task.type":                       "generateAudio",
	"task.worker_count":               2,
	"task.queue_size":                 100,
	"task.backfill_interval_seconds":  60,
	"task.backfill_batch_size":        50,
	"task.error_max_length":           500,
	"llm.gemini_api_key":              "",
	"llm.model_name":                  "gemini-2.5-flash-preview-tts",
	"llm.voice_name":                  "Kore",
	"llm.timeout_seconds":             300,
	"storage.backend":                 "minio",
	"storage.bucket":                  "audio",
	"storage.endpoint":                "",
	"storage.access_key":              "",
	"storage.secret_key":              "",
	"storage.use_ssl":                 false,
	"storage.public_base_url":         "",
	"storage.azure_account_url":       "",
	"notify.enabled":                  false,
	"notify.credentials_file":         "",
	"notify.project_id":               "",
	"notify.title":                    "Audio ready",
	"notify.body_max_length":          100,
	"notify.link_base_url":            "",
	"notify.prune_invalid_tokens":     false,
	"auth.jwt_secret":                 "",
	"auth.token_lifetime_minutes":     60,
	"tracing.exporter":                "none",
	"tracing.endpoint":                "",
	"tracing.service_name":            "scry-worker",
	"tracing.sample_ratio":            1.0,
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadSections reads configuration like LoadFile but validates only the named
// top-level sections, e.g. "database". Commands that touch one dependency use
// it so unrelated settings may stay unset.
func LoadSections(path string, sections ...string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	for _, name := range sections {
		section, ok := cfg.section(name)
		if !ok {
			return nil, fmt.Errorf("unknown config section %q", name)
		}
		if err := validate.Struct(section); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) section(name string) (any, bool) {
	switch name {
	case "server":
		return &c.Server, true
	case "database":
		return &c.Database, true
	case "task":
		return &c.Task, true
	case "llm":
		return &c.LLM, true
	case "storage":
		return &c.Storage, true
	case "notify":
		return &c.Notify, true
	case "auth":
		return &c.Auth, true
	case "tracing":
		return &c.Tracing, true
	default:
		return nil, false
	}
}
