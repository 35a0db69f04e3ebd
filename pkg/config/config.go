package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Text generation provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// WhatsApp Cloud API configuration
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`

	// Notification pipeline configuration
	Notification NotificationConfig `mapstructure:"notification"`

	// Initial alert thresholds
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	Version      string `mapstructure:"version"`
}

// LLMConfig holds the OpenAI-compatible chat completion endpoint settings.
// An empty APIKey leaves text generation unconfigured; callers fall back to fixed text.
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// WhatsAppConfig holds WhatsApp Cloud API credentials
type WhatsAppConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIVersion string `mapstructure:"api_version"`
	PhoneID    string `mapstructure:"phone_id"`
	Token      string `mapstructure:"token"`
}

// NotificationConfig holds notification pipeline settings
type NotificationConfig struct {
	// Timeout in seconds applied to each external call
	Timeout        int `mapstructure:"timeout"`
	AlertMaxTokens int `mapstructure:"alert_max_tokens"`
}

// ThresholdsConfig holds the initial threshold parameters
type ThresholdsConfig struct {
	SystolicMin  float64 `mapstructure:"systolic_min"`
	SystolicMax  float64 `mapstructure:"systolic_max"`
	HeartRateMin float64 `mapstructure:"heart_rate_min"`
	HeartRateMax float64 `mapstructure:"heart_rate_max"`
	WeightDelta  float64 `mapstructure:"weight_delta"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RequestsPerMin  int  `mapstructure:"requests_per_min"`
	CleanupInterval int  `mapstructure:"cleanup_interval"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	ServiceName string `mapstructure:"service_name"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nexo")

	setDefaults(v)

	// Enable environment variable support
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.version", "1.0.0")

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")

	// WhatsApp defaults
	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com")
	v.SetDefault("whatsapp.api_version", "v14.0")

	// Notification defaults
	v.SetDefault("notification.timeout", 10)
	v.SetDefault("notification.alert_max_tokens", 300)

	// Threshold defaults
	v.SetDefault("thresholds.systolic_min", 90)
	v.SetDefault("thresholds.systolic_max", 180)
	v.SetDefault("thresholds.heart_rate_min", 50)
	v.SetDefault("thresholds.heart_rate_max", 120)
	v.SetDefault("thresholds.weight_delta", 2.0)

	// Rate limiting defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_min", 120)
	v.SetDefault("rate_limit.cleanup_interval", 3600)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.service_name", "nexo-monitor")

	// Logging defaults
	v.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with the variable names the deployment already uses
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}

	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}

	if phoneID := os.Getenv("WHATSAPP_PHONE_ID"); phoneID != "" {
		config.WhatsApp.PhoneID = phoneID
	}

	if token := os.Getenv("WHATSAPP_TOKEN"); token != "" {
		config.WhatsApp.Token = token
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration.
// Missing provider credentials are not an error: notification simply stays unconfigured.
func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Notification.Timeout <= 0 {
		return fmt.Errorf("notification timeout must be positive: %d", config.Notification.Timeout)
	}

	t := config.Thresholds
	if t.SystolicMin <= 0 || t.SystolicMax <= 0 || t.HeartRateMin <= 0 || t.HeartRateMax <= 0 || t.WeightDelta <= 0 {
		return fmt.Errorf("thresholds must be positive")
	}

	if t.SystolicMin >= t.SystolicMax {
		return fmt.Errorf("systolic_min (%v) must be below systolic_max (%v)", t.SystolicMin, t.SystolicMax)
	}

	if t.HeartRateMin >= t.HeartRateMax {
		return fmt.Errorf("heart_rate_min (%v) must be below heart_rate_max (%v)", t.HeartRateMin, t.HeartRateMax)
	}

	return nil
}
