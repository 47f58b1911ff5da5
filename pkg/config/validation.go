package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/phrases"
)

// ConfigValidator handles configuration validation
type ConfigValidator struct {
	logger   *logrus.Logger
	errors   []ValidationError
	warnings []ValidationWarning
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Rule    string      `json:"rule"`
	Message string      `json:"message"`
}

// ValidationWarning represents a configuration validation warning
type ValidationWarning struct {
	Field      string      `json:"field"`
	Value      interface{} `json:"value"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// ValidationResult represents the result of configuration validation
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors,omitempty"`
	Warnings []ValidationWarning `json:"warnings,omitempty"`
	Summary  string              `json:"summary"`
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator(logger *logrus.Logger) *ConfigValidator {
	return &ConfigValidator{
		logger:   logger,
		errors:   make([]ValidationError, 0),
		warnings: make([]ValidationWarning, 0),
	}
}

// ValidateConfig validates the entire configuration
func (v *ConfigValidator) ValidateConfig(config *Config) *ValidationResult {
	v.errors = make([]ValidationError, 0)
	v.warnings = make([]ValidationWarning, 0)

	v.validateHTTPConfig(config)
	v.validateLoggingConfig(config)
	v.validateBargeInConfig(config)
	v.validateDuplexConfig(config)
	v.validateSessionConfig(config)
	v.validateMessagingConfig(config)

	result := &ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
	result.Summary = v.generateSummary()

	if v.logger != nil {
		v.logger.WithFields(logrus.Fields{
			"valid":    result.Valid,
			"errors":   len(result.Errors),
			"warnings": len(result.Warnings),
		}).Debug("Configuration validation completed")
	}

	return result
}

func (v *ConfigValidator) validateHTTPConfig(config *Config) {
	if !v.isValidPort(config.HTTP.Port) {
		v.addError("http.port", config.HTTP.Port, "port_range", "HTTP port must be between 1 and 65535")
	}
	if config.HTTP.ReadTimeout <= 0 {
		v.addError("http.read_timeout", config.HTTP.ReadTimeout, "positive", "HTTP read timeout must be positive")
	}
	if config.HTTP.WriteTimeout <= 0 {
		v.addError("http.write_timeout", config.HTTP.WriteTimeout, "positive", "HTTP write timeout must be positive")
	}
	if rl := config.HTTP.RateLimit; rl.Enabled {
		if rl.RequestsPerSecond <= 0 {
			v.addError("http.rate_limit.requests_per_second", rl.RequestsPerSecond, "positive", "Rate limit must be positive when enabled")
		}
		if rl.BurstSize < 1 {
			v.addError("http.rate_limit.burst_size", rl.BurstSize, "min_value", "Rate limit burst must be at least 1")
		}
	}
	if config.HTTP.Port < 1024 {
		v.addWarning("http.port", config.HTTP.Port, "HTTP port is privileged", "Use a port above 1023 unless running as root")
	}
}

func (v *ConfigValidator) validateLoggingConfig(config *Config) {
	if _, err := logrus.ParseLevel(config.Logging.Level); err != nil {
		v.addError("logging.level", config.Logging.Level, "log_level", "Invalid log level")
	}
	if config.Logging.Format != "json" && config.Logging.Format != "text" {
		v.addError("logging.format", config.Logging.Format, "log_format", "Log format must be 'json' or 'text'")
	}
	if config.Logging.OutputFile != "" {
		f, err := os.OpenFile(config.Logging.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			v.addError("logging.output_file", config.Logging.OutputFile, "writable", fmt.Sprintf("Cannot write to log file: %v", err))
			return
		}
		f.Close()
	}
}

func (v *ConfigValidator) validateBargeInConfig(config *Config) {
	lang := string(config.BargeIn.Language)
	if lang != "" && !resolvesLanguage(lang) {
		v.addWarning("bargein.language", lang, "Unsupported language falls back to English", "Use one of en, ar, es, fr, de, zh, ja, ko, pt, ru, hi, tr")
	}
	if config.BargeIn.EscalationThreshold < 2 {
		v.addWarning("bargein.escalation_threshold", config.BargeIn.EscalationThreshold,
			"Every backchannel will escalate", "Use a threshold of at least 2")
	}
}

func (v *ConfigValidator) validateDuplexConfig(config *Config) {
	d := config.Duplex
	if d.InterruptVADConfidence < d.MinVADConfidence {
		v.addWarning("duplex.interrupt_vad_confidence", d.InterruptVADConfidence,
			"Interrupt threshold is below the noise threshold", "Raise interrupt_vad_confidence above min_vad_confidence")
	}
	if d.SoftBargeVolume > d.Mixer.AiVolume {
		v.addWarning("duplex.soft_barge_volume", d.SoftBargeVolume,
			"Soft barge volume is louder than the nominal AI volume", "Lower soft_barge_volume")
	}
}

func (v *ConfigValidator) validateSessionConfig(config *Config) {
	s := config.Session
	if s.IdleTimeout <= 0 {
		v.addError("session.idle_timeout", s.IdleTimeout, "positive", "Session idle timeout must be positive")
	}
	if s.CleanupInterval <= 0 {
		v.addError("session.cleanup_interval", s.CleanupInterval, "positive", "Session cleanup interval must be positive")
	}
	if s.MaxSessions < 1 {
		v.addError("session.max_sessions", s.MaxSessions, "positive", "Maximum sessions must be at least 1")
	}
	if s.CleanupInterval >= s.IdleTimeout && s.IdleTimeout > 0 {
		v.addWarning("session.cleanup_interval", s.CleanupInterval,
			"Cleanup interval is not shorter than the idle timeout", "Use a cleanup interval well below the idle timeout")
	}
}

func (v *ConfigValidator) validateMessagingConfig(config *Config) {
	m := config.Messaging
	if !m.Enabled {
		return
	}
	if m.AMQPUrl == "" {
		v.addError("messaging.amqp_url", m.AMQPUrl, "required", "AMQP URL is required when messaging is enabled")
	} else if u, err := url.Parse(m.AMQPUrl); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
		v.addError("messaging.amqp_url", m.AMQPUrl, "amqp_url", "AMQP URL must use the amqp or amqps scheme")
	}
	if m.Exchange == "" {
		v.addError("messaging.exchange", m.Exchange, "required", "AMQP exchange is required when messaging is enabled")
	}
	switch m.ExchangeType {
	case "topic", "direct", "fanout":
	default:
		v.addError("messaging.exchange_type", m.ExchangeType, "exchange_type", "AMQP exchange type must be topic, direct or fanout")
	}
	if m.Breaker.FailureThreshold < 1 || m.Breaker.SuccessThreshold < 1 {
		v.addError("messaging.breaker", m.Breaker.FailureThreshold, "min_value", "AMQP breaker thresholds must be at least 1")
	}
	if m.Breaker.Timeout <= 0 {
		v.addError("messaging.breaker.timeout", m.Breaker.Timeout, "positive", "AMQP breaker timeout must be positive")
	}
}

// resolvesLanguage reports whether lang names a supported language rather
// than falling back to English
func resolvesLanguage(lang string) bool {
	parsed := phrases.ParseLanguage(lang)
	return parsed != phrases.DefaultLanguage || strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), string(phrases.DefaultLanguage))
}

func (v *ConfigValidator) isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

func (v *ConfigValidator) addError(field string, value interface{}, rule, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	})
}

func (v *ConfigValidator) addWarning(field string, value interface{}, message, suggestion string) {
	v.warnings = append(v.warnings, ValidationWarning{
		Field:      field,
		Value:      value,
		Message:    message,
		Suggestion: suggestion,
	})
}

func (v *ConfigValidator) generateSummary() string {
	if len(v.errors) == 0 && len(v.warnings) == 0 {
		return "Configuration validation passed successfully"
	}

	summary := ""
	if len(v.errors) > 0 {
		summary += fmt.Sprintf("%d validation error(s)", len(v.errors))
	}

	if len(v.warnings) > 0 {
		if summary != "" {
			summary += " and "
		}
		summary += fmt.Sprintf("%d warning(s)", len(v.warnings))
	}

	return summary + " found"
}
