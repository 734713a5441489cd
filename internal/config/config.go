package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"io"
	"os"
	"time"
)

const (
	DefaultAuthURL = "https://ext-api.vasttrafik.se/token"
	DefaultAPIBase = "https://ext-api.vasttrafik.se/pr/v4"
	ServiceName    = "busschema-app"
)

type Config struct {
	Environment  string
	LogLevel     zerolog.Level
	HTTPTimeout  time.Duration
	AuthURL      string
	APIBaseURL   string
	ClientID     string
	ClientSecret string
	Port         string
	LogOutput    io.Writer
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithCredentials sets the client-credentials pair used for token exchange
func WithCredentials(clientID, clientSecret string) Option {
	return func(c *Config) {
		c.ClientID = clientID
		c.ClientSecret = clientSecret
	}
}

// WithEndpoints overrides the auth and transit API locations
func WithEndpoints(authURL, apiBaseURL string) Option {
	return func(c *Config) {
		c.AuthURL = authURL
		c.APIBaseURL = apiBaseURL
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithLogOutput sends logs somewhere other than stdout
func WithLogOutput(w io.Writer) Option {
	return func(c *Config) {
		c.LogOutput = w
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment: "development",
		LogLevel:    zerolog.InfoLevel,
		HTTPTimeout: 10 * time.Second,
		AuthURL:     DefaultAuthURL,
		APIBaseURL:  DefaultAPIBase,
		Port:        "8080",
		LogOutput:   os.Stdout,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// HasCredentials reports whether both client credentials are set.
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: c.LogOutput})
		return
	}
	log.Logger = zerolog.New(c.LogOutput).
		With().
		Timestamp().
		Logger()
}

// LoadFromEnv loads configuration from environment variables, reading a .env
// file first when one exists.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	return New(
		WithEnvironment(getEnvOrDefault("ENV", "development")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithCredentials(os.Getenv("VASTTRAFIK_CLIENT_ID"), os.Getenv("VASTTRAFIK_CLIENT_SECRET")),
		WithEndpoints(
			getEnvOrDefault("VASTTRAFIK_AUTH_URL", DefaultAuthURL),
			getEnvOrDefault("VASTTRAFIK_API_BASE", DefaultAPIBase),
		),
		WithPort(getEnvOrDefault("PORT", "8080")),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
