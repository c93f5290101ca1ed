package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/diagram-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Core pipeline configuration
	CacheCfg      CacheConfig         `envPrefix:"CACHE_"`
	PipelineCfg   PipelineConfig      `envPrefix:"PIPELINE_"`
	ClientCfg     ClientConfig        `envPrefix:"CLIENT_"`
	ValidationCfg ValidationConfig    `envPrefix:"VALIDATION_"`
	LimitsCfg     RequestLimitsConfig `envPrefix:"LIMITS_"`

	// Generation capability configuration
	GenerationCfg GenerationConfig `envPrefix:"GENERATION_"`
	AnthropicCfg  AnthropicConfig  `envPrefix:"ANTHROPIC_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Capacity      int           `env:"CAPACITY" envDefault:"100"`
	TTL           time.Duration `env:"TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
}

// PipelineConfig controls the feedback loop.
type PipelineConfig struct {
	MaxIterations     int  `env:"MAX_ITERATIONS" envDefault:"5"`
	ValidationEnabled bool `env:"VALIDATION_ENABLED" envDefault:"true"`
}

// ClientConfig controls the resilience layer around the pipeline.
type ClientConfig struct {
	Timeout time.Duration        `env:"TIMEOUT" envDefault:"5m"`
	Retry   pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// ValidationConfig controls the validation engine phases.
type ValidationConfig struct {
	BrowserEnabled       bool          `env:"BROWSER_ENABLED" envDefault:"true"`
	VisionEnabled        bool          `env:"VISION_ENABLED" envDefault:"false"`
	MaxConcurrentRenders int64         `env:"MAX_CONCURRENT_RENDERS" envDefault:"2"`
	RenderTimeout        time.Duration `env:"RENDER_TIMEOUT" envDefault:"30s"`
}

// RequestLimitsConfig holds inbound request limits.
type RequestLimitsConfig struct {
	MaxInstructionLength int   `env:"MAX_INSTRUCTION_LENGTH" envDefault:"8000"`
	MaxFileCount         int   `env:"MAX_FILE_COUNT" envDefault:"16"`   // Max 16 files
	MaxFileSize          int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"` // 5 MiB
}

// GenerationConfig selects and configures the generation capability.
type GenerationConfig struct {
	// Mode is "anthropic" or "service". ENABLE_MOCKS overrides both.
	Mode       string                  `env:"MODE" envDefault:"anthropic"`
	ServiceCfg GenerationServiceConfig `envPrefix:"SERVICE_"`
}

// GenerationServiceConfig configures the generic HTTP generation service.
type GenerationServiceConfig struct {
	HTTPClientConfig
	GenerateEndpoint string `env:"GENERATE_ENDPOINT" envDefault:"/v1/generate"`
}

// AnthropicConfig configures the Anthropic-backed generation and vision
// connectors.
type AnthropicConfig struct {
	APIKey          string `env:"API_KEY"`
	Model           string `env:"MODEL"`
	MaxTokens       int64  `env:"MAX_TOKENS" envDefault:"16384"`
	VisionModel     string `env:"VISION_MODEL"`
	VisionMaxTokens int64  `env:"VISION_MAX_TOKENS" envDefault:"1024"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"2m"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.PipelineCfg.MaxIterations < 1 || cfg.PipelineCfg.MaxIterations > 10 {
		errors = append(errors, fmt.Sprintf("PIPELINE_MAX_ITERATIONS must be between 1 and 10, got %d", cfg.PipelineCfg.MaxIterations))
	}

	if cfg.CacheCfg.Capacity < 1 || cfg.CacheCfg.Capacity > 10000 {
		errors = append(errors, fmt.Sprintf("CACHE_CAPACITY must be between 1 and 10000, got %d", cfg.CacheCfg.Capacity))
	}

	if cfg.CacheCfg.TTL < time.Second {
		errors = append(errors, fmt.Sprintf("CACHE_TTL must be at least 1s, got %s", cfg.CacheCfg.TTL))
	}

	if cfg.ClientCfg.Timeout < time.Second || cfg.ClientCfg.Timeout > 30*time.Minute {
		errors = append(errors, fmt.Sprintf("CLIENT_TIMEOUT must be between 1s and 30m, got %s", cfg.ClientCfg.Timeout))
	}

	if cfg.ValidationCfg.MaxConcurrentRenders < 1 || cfg.ValidationCfg.MaxConcurrentRenders > 16 {
		errors = append(errors, fmt.Sprintf("VALIDATION_MAX_CONCURRENT_RENDERS must be between 1 and 16, got %d", cfg.ValidationCfg.MaxConcurrentRenders))
	}

	if cfg.GenerationCfg.Mode != "anthropic" && cfg.GenerationCfg.Mode != "service" {
		errors = append(errors, fmt.Sprintf("GENERATION_MODE must be 'anthropic' or 'service', got %q", cfg.GenerationCfg.Mode))
	}

	if cfg.GenerationCfg.Mode == "service" && !cfg.EnableMocks && cfg.GenerationCfg.ServiceCfg.Url == "" {
		errors = append(errors, "GENERATION_SERVICE_SERVICE_URL must be set in service mode")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", errors[0])
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
