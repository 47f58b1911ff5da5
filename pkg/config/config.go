package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/circuitbreaker"
	"duplex-server/pkg/discourse"
	"duplex-server/pkg/duplex"
	"duplex-server/pkg/errors"
	"duplex-server/pkg/ratelimit"
)

// Config represents the complete application configuration
type Config struct {
	HTTP      HTTPConfig       `json:"http" yaml:"http"`
	Logging   LoggingConfig    `json:"logging" yaml:"logging"`
	BargeIn   bargein.Config   `json:"bargein" yaml:"bargein"`
	Discourse discourse.Config `json:"discourse" yaml:"discourse"`
	Duplex    duplex.Config    `json:"duplex" yaml:"duplex"`
	Session   SessionConfig    `json:"session" yaml:"session"`
	Messaging MessagingConfig  `json:"messaging" yaml:"messaging"`
}

// HTTPConfig holds the HTTP server settings
type HTTPConfig struct {
	// HTTP port
	Port int `json:"port" yaml:"port" env:"HTTP_PORT" default:"8080"`

	// Whether the metrics endpoint is enabled
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics" env:"HTTP_ENABLE_METRICS" default:"true"`

	// Read timeout for HTTP requests
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" default:"10s"`

	// Write timeout for HTTP responses
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" default:"30s"`

	// Grace period for in-flight requests on shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`

	// Origins allowed to open a session stream; empty allows any
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS"`

	// RateLimit throttles the session API per client IP
	RateLimit ratelimit.Config `json:"rate_limit" yaml:"rate_limit"`
}

// LoggingConfig holds the logger settings
type LoggingConfig struct {
	// Log level
	Level string `json:"level" yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Log format (json or text)
	Format string `json:"format" yaml:"format" env:"LOG_FORMAT" default:"json"`

	// Log output file (empty = stdout)
	OutputFile string `json:"output_file" yaml:"output_file" env:"LOG_OUTPUT_FILE"`
}

// SessionConfig bounds the number and lifetime of conversation sessions
type SessionConfig struct {
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT" default:"5m"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" env:"SESSION_CLEANUP_INTERVAL" default:"30s"`
	MaxSessions     int           `json:"max_sessions" yaml:"max_sessions" env:"SESSION_MAX" default:"1000"`
}

// MessagingConfig holds the AMQP event fan-out settings
type MessagingConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled" env:"AMQP_ENABLED" default:"false"`
	AMQPUrl          string        `json:"amqp_url" yaml:"amqp_url" env:"AMQP_URL"`
	Exchange         string        `json:"exchange" yaml:"exchange" env:"AMQP_EXCHANGE" default:"duplex.events"`
	ExchangeType     string        `json:"exchange_type" yaml:"exchange_type" env:"AMQP_EXCHANGE_TYPE" default:"topic"`
	RoutingKeyPrefix string        `json:"routing_key_prefix" yaml:"routing_key_prefix" env:"AMQP_ROUTING_KEY_PREFIX" default:"duplex"`
	ReconnectDelay   time.Duration `json:"reconnect_delay" yaml:"reconnect_delay" env:"AMQP_RECONNECT_DELAY" default:"5s"`
	PublishTimeout   time.Duration `json:"publish_timeout" yaml:"publish_timeout" env:"AMQP_PUBLISH_TIMEOUT" default:"2s"`

	// Breaker stops publishing to a broker that keeps failing sends
	Breaker circuitbreaker.Config `json:"breaker" yaml:"breaker"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            8080,
			EnableMetrics:   true,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       *ratelimit.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		BargeIn:   bargein.DefaultConfig(),
		Discourse: discourse.DefaultConfig(),
		Duplex:    duplex.DefaultConfig(),
		Session: SessionConfig{
			IdleTimeout:     5 * time.Minute,
			CleanupInterval: 30 * time.Second,
			MaxSessions:     1000,
		},
		Messaging: MessagingConfig{
			Exchange:         "duplex.events",
			ExchangeType:     "topic",
			RoutingKeyPrefix: "duplex",
			ReconnectDelay:   5 * time.Second,
			PublishTimeout:   2 * time.Second,
			Breaker:          *circuitbreaker.DefaultConfig(),
		},
	}
}

// Load builds the configuration from defaults, a .env file, an optional YAML
// file named by DUPLEX_CONFIG_FILE and the environment, in that order of
// increasing precedence.
func Load(logger *logrus.Logger) (*Config, error) {
	loadEnvFile(logger)

	config := Default()

	if path := getEnv("DUPLEX_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
		logger.WithField("path", path).Info("Loaded configuration file")
	}

	loadHTTPConfig(logger, &config.HTTP)
	loadLoggingConfig(logger, &config.Logging)
	loadBargeInConfig(&config.BargeIn)
	loadDiscourseConfig(&config.Discourse)
	loadDuplexConfig(&config.Duplex)
	loadSessionConfig(&config.Session)
	loadMessagingConfig(logger, &config.Messaging)

	result := NewConfigValidator(logger).ValidateConfig(config)
	for _, w := range result.Warnings {
		logger.WithFields(logrus.Fields{
			"field":      w.Field,
			"value":      w.Value,
			"suggestion": w.Suggestion,
		}).Warn(w.Message)
	}
	if !result.Valid {
		first := result.Errors[0]
		return nil, errors.NewInvalidInput(fmt.Sprintf("invalid configuration: %s", first.Message), map[string]interface{}{
			"field":   first.Field,
			"summary": result.Summary,
		})
	}

	config.normalize()
	return config, nil
}

// loadEnvFile loads the first .env file found next to the process
func loadEnvFile(logger *logrus.Logger) {
	wd, err := os.Getwd()
	if err != nil {
		logger.WithError(err).Warn("Failed to get current working directory")
		wd = "unknown"
	}

	possibleEnvFiles := []string{
		".env",                    // Current directory
		"../.env",                 // Parent directory
		filepath.Join(wd, ".env"), // Absolute path
	}

	var loadedFrom string
	for _, envFile := range possibleEnvFiles {
		if _, statErr := os.Stat(envFile); statErr != nil {
			continue
		}
		absPath, _ := filepath.Abs(envFile)
		logger.WithField("path", absPath).Debug("Attempting to load .env file")
		if loadErr := godotenv.Load(envFile); loadErr == nil {
			loadedFrom = absPath
			break
		}
	}

	if loadedFrom != "" {
		logger.WithFields(logrus.Fields{
			"working_dir": wd,
			"path":        loadedFrom,
		}).Info("Successfully loaded .env file")
	} else {
		logger.WithField("working_dir", wd).Debug("No .env file found, using environment variables only")
	}
}

// normalize runs the domain configs through their merge functions so every
// value is clamped the same way the components clamp them
func (c *Config) normalize() {
	c.BargeIn = bargein.Merge(bargein.DefaultConfig(), c.BargeIn)
	c.Discourse = discourse.Merge(discourse.DefaultConfig(), c.Discourse)
	c.Duplex = duplex.Merge(duplex.DefaultConfig(), c.Duplex)
}

// ApplyLogging applies the logging section to logger
func (c *Config) ApplyLogging(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("invalid log level: %s", c.Logging.Level))
	}
	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	}

	if c.Logging.OutputFile != "" {
		f, err := os.OpenFile(c.Logging.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to open log file: %s", c.Logging.OutputFile))
		}
		logger.SetOutput(f)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return nil
}
