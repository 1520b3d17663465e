package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio = "stdio"
	ModeFile  = "file"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultMaxRetries   = 3
	DefaultBackoffMs    = 500
	DefaultTimeoutMs    = 30000
	DefaultPerPageCost  = 0.0015
	DefaultOCRBucket    = "docsense-uploads"
	DefaultOCRRateLimit = 5.0
)

// Config holds all configuration for the docsense pipeline
type Config struct {
	// Run configuration
	Mode string // "stdio" for MCP standard I/O, "file" for one-shot analysis

	// OCR service configuration
	OCREndpoint   string
	OCRAPIKey     string
	OCRBucket     string
	OCRRateLimit  float64
	StoreEndpoint string

	// Orchestration configuration
	MaxRetries       int
	BackoffMs        int
	BackendTimeoutMs int
	PerPageCost      float64

	// Application configuration
	Version     string
	ServiceName string
	LogLevel    string
	MaxFileSize int64 // Maximum document size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:             ModeStdio,
		OCRBucket:        DefaultOCRBucket,
		OCRRateLimit:     DefaultOCRRateLimit,
		MaxRetries:       DefaultMaxRetries,
		BackoffMs:        DefaultBackoffMs,
		BackendTimeoutMs: DefaultTimeoutMs,
		PerPageCost:      DefaultPerPageCost,
		Version:          "1.0.0",
		ServiceName:      "docsense",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("DOCSENSE")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("ocrendpoint", cfg.OCREndpoint)
	viper.SetDefault("ocrapikey", cfg.OCRAPIKey)
	viper.SetDefault("ocrbucket", cfg.OCRBucket)
	viper.SetDefault("ocrratelimit", cfg.OCRRateLimit)
	viper.SetDefault("storeendpoint", cfg.StoreEndpoint)
	viper.SetDefault("maxretries", cfg.MaxRetries)
	viper.SetDefault("backoffms", cfg.BackoffMs)
	viper.SetDefault("timeoutms", cfg.BackendTimeoutMs)
	viper.SetDefault("perpagecost", cfg.PerPageCost)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'stdio' for MCP standard I/O, 'file' for one-shot analysis")
	pflag.String("ocrendpoint", cfg.OCREndpoint, "Base URL of the cloud OCR service (empty disables the cloud backend)")
	pflag.String("ocrapikey", cfg.OCRAPIKey, "API key for the cloud OCR service")
	pflag.String("ocrbucket", cfg.OCRBucket, "Object-store bucket for temporary OCR uploads")
	pflag.Float64("ocrratelimit", cfg.OCRRateLimit, "Maximum OCR requests per second")
	pflag.String("storeendpoint", cfg.StoreEndpoint, "Base URL of the object store (defaults to the OCR endpoint)")
	pflag.Int("maxretries", cfg.MaxRetries, "Maximum retries of a transient backend failure")
	pflag.Int("backoffms", cfg.BackoffMs, "Base retry backoff in milliseconds")
	pflag.Int("timeoutms", cfg.BackendTimeoutMs, "Per-backend attempt timeout in milliseconds")
	pflag.Float64("perpagecost", cfg.PerPageCost, "Cloud OCR cost per page")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "ocrendpoint", "ocrapikey", "ocrbucket", "ocrratelimit",
		"storeendpoint", "maxretries", "backoffms", "timeoutms",
		"perpagecost", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDocsense - document extraction and analysis pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # MCP stdio mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=file document.pdf         # one-shot extraction + analysis\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --ocrendpoint=https://ocr.local  # enable the cloud OCR backend\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DOCSENSE_MODE          Run mode\n")
		fmt.Fprintf(os.Stderr, "  DOCSENSE_OCRENDPOINT   OCR service base URL\n")
		fmt.Fprintf(os.Stderr, "  DOCSENSE_OCRAPIKEY     OCR service API key\n")
		fmt.Fprintf(os.Stderr, "  DOCSENSE_OCRBUCKET     Upload bucket\n")
		fmt.Fprintf(os.Stderr, "  DOCSENSE_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  DOCSENSE_MAXFILESIZE   Maximum document size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.OCREndpoint = viper.GetString("ocrendpoint")
	cfg.OCRAPIKey = viper.GetString("ocrapikey")
	cfg.OCRBucket = viper.GetString("ocrbucket")
	cfg.OCRRateLimit = viper.GetFloat64("ocrratelimit")
	cfg.StoreEndpoint = viper.GetString("storeendpoint")
	cfg.MaxRetries = viper.GetInt("maxretries")
	cfg.BackoffMs = viper.GetInt("backoffms")
	cfg.BackendTimeoutMs = viper.GetInt("timeoutms")
	cfg.PerPageCost = viper.GetFloat64("perpagecost")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")

	if cfg.StoreEndpoint == "" {
		cfg.StoreEndpoint = cfg.OCREndpoint
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeFile {
		return errors.New("mode must be either 'stdio' or 'file'")
	}

	if c.MaxRetries < 0 {
		return errors.New("maxretries cannot be negative")
	}
	if c.BackoffMs <= 0 {
		return errors.New("backoffms must be positive")
	}
	if c.BackendTimeoutMs <= 0 {
		return errors.New("timeoutms must be positive")
	}
	if c.PerPageCost < 0 {
		return errors.New("perpagecost cannot be negative")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.OCREndpoint == "" && c.OCRAPIKey != "" {
		return errors.New("ocrapikey is set but ocrendpoint is empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsStdioMode reports whether the pipeline runs as an MCP stdio server.
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsFileMode reports whether the pipeline runs one-shot over a file.
func (c *Config) IsFileMode() bool {
	return c.Mode == ModeFile
}

// CloudEnabled reports whether the cloud OCR backend is configured.
func (c *Config) CloudEnabled() bool {
	return c.OCREndpoint != ""
}
