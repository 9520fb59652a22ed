package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains the operator API and process-level settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds how long shutdown waits for in-flight work.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
}

// TaskConfig controls which task records the watcher picks up and how many
// run at once.
type TaskConfig struct {
	// Type is the discriminator the watcher matches on.
	Type        string `mapstructure:"type"         validate:"required"`
	WorkerCount int    `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int    `mapstructure:"queue_size"   validate:"gt=0"`
	// BackfillIntervalSeconds is the period of the pending-task sweep.
	// Zero disables the sweep after the startup pass.
	BackfillIntervalSeconds int `mapstructure:"backfill_interval_seconds" validate:"gte=0"`
	BackfillBatchSize       int `mapstructure:"backfill_batch_size"       validate:"gt=0"`
	// ErrorMaxLength bounds the failure summary stored on a failed task.
	ErrorMaxLength int `mapstructure:"error_max_length" validate:"gt=0"`
}

// LLMConfig contains the speech generation settings.
type LLMConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key"  validate:"required"`
	ModelName      string `mapstructure:"model_name"      validate:"required"`
	VoiceName      string `mapstructure:"voice_name"      validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// StorageConfig selects and configures the artifact store.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"    validate:"required,oneof=minio azblob"`
	Bucket    string `mapstructure:"bucket"     validate:"required"`
	Endpoint  string `mapstructure:"endpoint"   validate:"required_if=Backend minio"`
	AccessKey string `mapstructure:"access_key" validate:"required_if=Backend minio"`
	SecretKey string `mapstructure:"secret_key" validate:"required_if=Backend minio"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PublicBaseURL, when set, replaces the store's own URL in artifact links
	// (for a CDN in front of the bucket).
	PublicBaseURL   string `mapstructure:"public_base_url"   validate:"omitempty,url"`
	AzureAccountURL string `mapstructure:"azure_account_url" validate:"required_if=Backend azblob,omitempty,url"`
}

// NotifyConfig configures the push notification gateway.
type NotifyConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ProjectID          string `mapstructure:"project_id"          validate:"required_if=Enabled true"`
	Title              string `mapstructure:"title"               validate:"required"`
	BodyMaxLength      int    `mapstructure:"body_max_length"     validate:"gt=0"`
	LinkBaseURL        string `mapstructure:"link_base_url"       validate:"omitempty,url"`
	PruneInvalidTokens bool   `mapstructure:"prune_invalid_tokens"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter"     validate:"oneof=none stdout otlphttp"`
	Endpoint    string  `mapstructure:"endpoint"     validate:"required_if=Exporter otlphttp"`
	ServiceName string  `mapstructure:"service_name" validate:"required"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}
