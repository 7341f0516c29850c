package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DownloadTargetLocal = "local"
	DownloadTargetAzure = "azure"
	DownloadTargetS3    = "s3"
)

type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	ProcessEndpoint   string        `yaml:"process_endpoint"`
	ImageFieldName    string        `yaml:"image_field_name"`
	LogoPath          string        `yaml:"logo_path"`
	SubmitTimeout     time.Duration `yaml:"submit_timeout"`
	PasteFetchTimeout time.Duration `yaml:"paste_fetch_timeout"`
	MaxImageBytes     int64         `yaml:"max_image_bytes"`
	// PasteAllowedHosts limits URL pastes to these hosts; empty allows any.
	PasteAllowedHosts []string      `yaml:"paste_allowed_hosts"`

	DownloadTarget string      `yaml:"download_target"`
	DownloadDir    string      `yaml:"download_dir"`
	Azure          AzureConfig `yaml:"azure"`
	S3             S3Config    `yaml:"s3"`

	TraceExporter string `yaml:"trace_exporter"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type AzureConfig struct {
	AccountName string `yaml:"account_name"`
	AccountKey  string `yaml:"account_key"`
	Container   string `yaml:"container"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads an optional .env file, then the process environment.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:              getEnvOrDefault("HOST", "127.0.0.1"),
		Port:              getEnvOrDefault("PORT", "8080"),
		ProcessEndpoint:   getEnvOrDefault("PROCESS_ENDPOINT", "http://127.0.0.1:5000/process"),
		ImageFieldName:    getEnvOrDefault("IMAGE_FIELD_NAME", "image"),
		LogoPath:          getEnvOrDefault("LOGO_PATH", ""),
		SubmitTimeout:     parseDurationOrDefault("SUBMIT_TIMEOUT", 60*time.Second),
		PasteFetchTimeout: parseDurationOrDefault("PASTE_FETCH_TIMEOUT", 15*time.Second),
		MaxImageBytes:     parseIntOrDefault("MAX_IMAGE_BYTES", 25*1024*1024),
		PasteAllowedHosts: parseListOrDefault("PASTE_ALLOWED_HOSTS", nil),
		DownloadTarget:    getEnvOrDefault("DOWNLOAD_TARGET", DownloadTargetLocal),
		DownloadDir:       getEnvOrDefault("DOWNLOAD_DIR", "."),
		Azure: AzureConfig{
			AccountName: getEnvOrDefault("AZURE_STORAGE_ACCOUNT", ""),
			AccountKey:  getEnvOrDefault("AZURE_STORAGE_KEY", ""),
			Container:   getEnvOrDefault("AZURE_CONTAINER", "gradient-results"),
		},
		S3: S3Config{
			Endpoint:  getEnvOrDefault("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnvOrDefault("S3_ACCESS_KEY", ""),
			SecretKey: getEnvOrDefault("S3_SECRET_KEY", ""),
			Bucket:    getEnvOrDefault("S3_BUCKET", "gradient-results"),
			UseSSL:    parseBoolOrDefault("S3_USE_SSL", false),
		},
		TraceExporter: getEnvOrDefault("TRACE_EXPORTER", "none"),
		OTLPEndpoint:  getEnvOrDefault("OTLP_ENDPOINT", ""),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the non-zero fields of a YAML file onto the environment config.
func LoadFile(path string) (*Config, error) {
	cfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}

	endpoint, err := url.Parse(strings.TrimSpace(c.ProcessEndpoint))
	if err != nil || endpoint.Host == "" || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return fmt.Errorf("invalid PROCESS_ENDPOINT: %q", c.ProcessEndpoint)
	}
	if strings.TrimSpace(c.ImageFieldName) == "" {
		return fmt.Errorf("IMAGE_FIELD_NAME must not be empty")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", c.MaxImageBytes)
	}
	if c.SubmitTimeout <= 0 || c.PasteFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got submit=%s, paste_fetch=%s)", c.SubmitTimeout, c.PasteFetchTimeout)
	}

	switch strings.ToLower(strings.TrimSpace(c.DownloadTarget)) {
	case DownloadTargetLocal:
		if strings.TrimSpace(c.DownloadDir) == "" {
			return fmt.Errorf("DOWNLOAD_DIR is required for local downloads")
		}
	case DownloadTargetAzure:
		if c.Azure.AccountName == "" || c.Azure.AccountKey == "" || c.Azure.Container == "" {
			return fmt.Errorf("azure downloads require AZURE_STORAGE_ACCOUNT, AZURE_STORAGE_KEY and AZURE_CONTAINER")
		}
	case DownloadTargetS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 downloads require S3_ENDPOINT and S3_BUCKET")
		}
	default:
		return fmt.Errorf("unsupported DOWNLOAD_TARGET: %q", c.DownloadTarget)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
