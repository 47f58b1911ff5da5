package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/discourse"
	"duplex-server/pkg/duplex"
	"duplex-server/pkg/phrases"
)

// Each loader reads its section from the environment. The value already in
// the section (a default or a file value) is kept when a variable is unset.

func loadHTTPConfig(logger *logrus.Logger, config *HTTPConfig) {
	port := getEnvInt("HTTP_PORT", config.Port)
	if port < 1 || port > 65535 {
		logger.WithField("port", port).Warn("Invalid HTTP_PORT value, using default: 8080")
		port = 8080
	}
	config.Port = port

	config.EnableMetrics = getEnvBool("HTTP_ENABLE_METRICS", config.EnableMetrics)
	config.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", config.ReadTimeout)
	config.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", config.WriteTimeout)
	config.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", config.ShutdownTimeout)
	config.AllowedOrigins = getEnvList("HTTP_ALLOWED_ORIGINS", config.AllowedOrigins)

	rl := &config.RateLimit
	rl.Enabled = getEnvBool("RATE_LIMIT_ENABLED", rl.Enabled)
	rl.RequestsPerSecond = getEnvFloat("RATE_LIMIT_RPS", rl.RequestsPerSecond)
	rl.BurstSize = getEnvInt("RATE_LIMIT_BURST", rl.BurstSize)
	rl.BlockDuration = getEnvDuration("RATE_LIMIT_BLOCK_DURATION", rl.BlockDuration)
	rl.WhitelistedIPs = getEnvList("RATE_LIMIT_WHITELIST_IPS", rl.WhitelistedIPs)
	rl.WhitelistedPaths = getEnvList("RATE_LIMIT_WHITELIST_PATHS", rl.WhitelistedPaths)
}

func loadLoggingConfig(logger *logrus.Logger, config *LoggingConfig) {
	config.Level = getEnv("LOG_LEVEL", config.Level)
	if _, err := logrus.ParseLevel(config.Level); err != nil {
		logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to 'info'", config.Level)
		config.Level = "info"
	}

	config.Format = getEnv("LOG_FORMAT", config.Format)
	if config.Format != "json" && config.Format != "text" {
		logger.Warn("Invalid LOG_FORMAT, must be 'json' or 'text', defaulting to 'json'")
		config.Format = "json"
	}

	config.OutputFile = getEnv("LOG_OUTPUT_FILE", config.OutputFile)
}

func loadBargeInConfig(config *bargein.Config) {
	config.Language = phrases.Language(getEnv("BARGEIN_LANGUAGE", string(config.Language)))
	config.MaxBackchannelDuration = getEnvDuration("BARGEIN_MAX_BACKCHANNEL_DURATION", config.MaxBackchannelDuration)
	config.MinConfidence = getEnvFloat("BARGEIN_MIN_CONFIDENCE", config.MinConfidence)
	config.FuzzyMatching = getEnvBoolPtr("BARGEIN_FUZZY_MATCHING", config.FuzzyMatching)
	config.FuzzyThreshold = getEnvFloat("BARGEIN_FUZZY_THRESHOLD", config.FuzzyThreshold)
	config.EscalationWindow = getEnvDuration("BARGEIN_ESCALATION_WINDOW", config.EscalationWindow)
	config.EscalationThreshold = getEnvInt("BARGEIN_ESCALATION_THRESHOLD", config.EscalationThreshold)
	config.MinHardBargeDuration = getEnvDuration("BARGEIN_MIN_HARD_BARGE_DURATION", config.MinHardBargeDuration)
	config.ProsodicAnalysis = getEnvBoolPtr("BARGEIN_PROSODIC_ANALYSIS", config.ProsodicAnalysis)
	config.SoftBargePause = getEnvDuration("BARGEIN_SOFT_BARGE_PAUSE", config.SoftBargePause)
	config.HistorySize = getEnvInt("BARGEIN_HISTORY_SIZE", config.HistorySize)
	config.PatternWindow = getEnvInt("BARGEIN_PATTERN_WINDOW", config.PatternWindow)
}

func loadDiscourseConfig(config *discourse.Config) {
	config.Capacity = getEnvInt("DISCOURSE_CAPACITY", config.Capacity)
	config.MaxKeywords = getEnvInt("DISCOURSE_MAX_KEYWORDS", config.MaxKeywords)
	config.MinKeywordLength = getEnvInt("DISCOURSE_MIN_KEYWORD_LENGTH", config.MinKeywordLength)
	config.TopicHistorySize = getEnvInt("DISCOURSE_TOPIC_HISTORY_SIZE", config.TopicHistorySize)
	config.IntentPatterns = getEnvInt("DISCOURSE_INTENT_PATTERNS", config.IntentPatterns)
	config.CoherenceDecay = getEnvFloat("DISCOURSE_COHERENCE_DECAY", config.CoherenceDecay)
	config.RecentTopicChangeTurns = getEnvInt("DISCOURSE_RECENT_TOPIC_CHANGE_TURNS", config.RecentTopicChangeTurns)
}

func loadDuplexConfig(config *duplex.Config) {
	config.MinVADConfidence = getEnvFloat("DUPLEX_MIN_VAD_CONFIDENCE", config.MinVADConfidence)
	config.MinOverlap = getEnvDuration("DUPLEX_MIN_OVERLAP", config.MinOverlap)
	config.InterruptAfter = getEnvDuration("DUPLEX_INTERRUPT_AFTER", config.InterruptAfter)
	config.InterruptVADConfidence = getEnvFloat("DUPLEX_INTERRUPT_VAD_CONFIDENCE", config.InterruptVADConfidence)
	config.SoftBargeVolume = getEnvFloat("DUPLEX_SOFT_BARGE_VOLUME", config.SoftBargeVolume)

	m := &config.Mixer
	m.FadeDuration = getEnvDuration("MIXER_FADE_DURATION", m.FadeDuration)
	m.DuckedVolume = getEnvFloat("MIXER_DUCKED_VOLUME", m.DuckedVolume)
	m.SidetoneVolume = getEnvFloat("MIXER_SIDETONE_VOLUME", m.SidetoneVolume)
	m.SidetoneEnabled = getEnvBoolPtr("MIXER_SIDETONE_ENABLED", m.SidetoneEnabled)
	m.UserVolume = getEnvFloat("MIXER_USER_VOLUME", m.UserVolume)
	m.AiVolume = getEnvFloat("MIXER_AI_VOLUME", m.AiVolume)
	m.MasterVolume = getEnvFloat("MIXER_MASTER_VOLUME", m.MasterVolume)
}

func loadSessionConfig(config *SessionConfig) {
	config.IdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", config.IdleTimeout)
	config.CleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", config.CleanupInterval)
	config.MaxSessions = getEnvInt("SESSION_MAX", config.MaxSessions)
}

func loadMessagingConfig(logger *logrus.Logger, config *MessagingConfig) {
	config.AMQPUrl = getEnv("AMQP_URL", config.AMQPUrl)
	config.Enabled = getEnvBool("AMQP_ENABLED", config.Enabled || config.AMQPUrl != "")
	config.Exchange = getEnv("AMQP_EXCHANGE", config.Exchange)
	config.ExchangeType = getEnv("AMQP_EXCHANGE_TYPE", config.ExchangeType)
	config.RoutingKeyPrefix = getEnv("AMQP_ROUTING_KEY_PREFIX", config.RoutingKeyPrefix)
	config.ReconnectDelay = getEnvDuration("AMQP_RECONNECT_DELAY", config.ReconnectDelay)
	config.PublishTimeout = getEnvDuration("AMQP_PUBLISH_TIMEOUT", config.PublishTimeout)
	config.Breaker.FailureThreshold = getEnvInt("AMQP_BREAKER_FAILURES", config.Breaker.FailureThreshold)
	config.Breaker.Timeout = getEnvDuration("AMQP_BREAKER_TIMEOUT", config.Breaker.Timeout)

	if config.Enabled && config.AMQPUrl == "" {
		logger.Warn("AMQP publishing enabled without AMQP_URL")
	}
}

// Helper function to get an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvBoolPtr is getEnvBool for optional switches
func getEnvBoolPtr(key string, defaultValue *bool) *bool {
	if os.Getenv(key) == "" {
		return defaultValue
	}
	fallback := defaultValue != nil && *defaultValue
	v := getEnvBool(key, fallback)
	return &v
}

// Helper function to get an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// Helper function to get a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getEnvFloat retrieves an environment variable and converts it to float64
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
