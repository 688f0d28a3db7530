package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Security     SecurityConfig
	Tracing      TracingConfig
	Segmentation SegmentationConfig
	Environment  string
	LogLevel     string
	Version      string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig

	// Access-Control-Allow-Origin value, "*" when empty
	CORSAllowOrigin string
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SecurityConfig struct {
	// HMAC key used to verify API bearer tokens
	SecretKey string
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// "jaeger", "zipkin", "stackdriver", "datadog", "xray" or "none"
	TraceExporter string

	JaegerEndpoint       string
	ZipkinEndpoint       string
	StackdriverProjectID string
	DatadogAgentAddress  string
	DatadogAPIKey        string
	XRayRegion           string

	// General agent endpoint, used when an exporter has no dedicated address
	AgentEndpoint string

	// "prometheus", "stackdriver", "datadog", "none" or a comma-separated list
	MetricsExporter string
	PrometheusPort  int
}

type SegmentationConfig struct {
	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	// Optional JSON file replacing the built-in segment catalog
	CatalogFile string

	// Per organization limit on segmentation.evaluate
	EvaluateRateLimit  int
	EvaluateRateWindow time.Duration

	// Standard Webhooks destination; empty disables notifications
	WebhookURL    string
	WebhookSecret string
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("CORS_ALLOW_ORIGIN", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "segmentation")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "segmentation-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	v.SetDefault("SEGMENTATION_SCHEDULER_ENABLED", true)
	v.SetDefault("SEGMENTATION_SCHEDULER_INTERVAL", "24h")
	v.SetDefault("SEGMENTATION_CATALOG_FILE", "")
	v.SetDefault("SEGMENTATION_EVALUATE_RATE_LIMIT", 5)
	v.SetDefault("SEGMENTATION_EVALUATE_RATE_WINDOW", "1m")
	v.SetDefault("SEGMENTATION_WEBHOOK_URL", "")
	v.SetDefault("SEGMENTATION_WEBHOOK_SECRET", "")

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	secretKey := v.GetString("SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
			CORSAllowOrigin: v.GetString("CORS_ALLOW_ORIGIN"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Security: SecurityConfig{
			SecretKey: secretKey,
		},
		Tracing: TracingConfig{
			Enabled:              v.GetBool("TRACING_ENABLED"),
			ServiceName:          v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability:  v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			TraceExporter:        v.GetString("TRACING_TRACE_EXPORTER"),
			JaegerEndpoint:       v.GetString("TRACING_JAEGER_ENDPOINT"),
			ZipkinEndpoint:       v.GetString("TRACING_ZIPKIN_ENDPOINT"),
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),
			DatadogAgentAddress:  v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:        v.GetString("TRACING_DATADOG_API_KEY"),
			XRayRegion:           v.GetString("TRACING_XRAY_REGION"),
			AgentEndpoint:        v.GetString("TRACING_AGENT_ENDPOINT"),
			MetricsExporter:      v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:       v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Segmentation: SegmentationConfig{
			SchedulerEnabled:   v.GetBool("SEGMENTATION_SCHEDULER_ENABLED"),
			SchedulerInterval:  v.GetDuration("SEGMENTATION_SCHEDULER_INTERVAL"),
			CatalogFile:        v.GetString("SEGMENTATION_CATALOG_FILE"),
			EvaluateRateLimit:  v.GetInt("SEGMENTATION_EVALUATE_RATE_LIMIT"),
			EvaluateRateWindow: v.GetDuration("SEGMENTATION_EVALUATE_RATE_WINDOW"),
			WebhookURL:         v.GetString("SEGMENTATION_WEBHOOK_URL"),
			WebhookSecret:      v.GetString("SEGMENTATION_WEBHOOK_SECRET"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if config.Segmentation.WebhookURL != "" && config.Segmentation.WebhookSecret == "" {
		return nil, fmt.Errorf("SEGMENTATION_WEBHOOK_SECRET is required when SEGMENTATION_WEBHOOK_URL is set")
	}

	return config, nil
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
