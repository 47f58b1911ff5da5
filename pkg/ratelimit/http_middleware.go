package ratelimit

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"duplex-server/pkg/errors"
	"duplex-server/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// HTTPMiddleware limits requests per client IP
type HTTPMiddleware struct {
	limiter          *Limiter
	config           *Config
	logger           *logrus.Entry
	whitelistedIPs   map[string]bool
	whitelistedNets  []*net.IPNet
	whitelistedPaths []string
}

// NewHTTPMiddleware creates the middleware and its limiter
func NewHTTPMiddleware(config *Config, logger *logrus.Logger) *HTTPMiddleware {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	m := &HTTPMiddleware{
		limiter:        NewLimiter(config.RequestsPerSecond, config.BurstSize, logger),
		config:         config,
		logger:         logger.WithField("component", "ratelimit"),
		whitelistedIPs: make(map[string]bool),
	}

	for _, ip := range config.WhitelistedIPs {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		if strings.Contains(ip, "/") {
			_, ipNet, err := net.ParseCIDR(ip)
			if err != nil {
				m.logger.WithError(err).Warnf("Invalid CIDR in whitelist: %s", ip)
				continue
			}
			m.whitelistedNets = append(m.whitelistedNets, ipNet)
		} else {
			m.whitelistedIPs[ip] = true
		}
	}

	for _, path := range config.WhitelistedPaths {
		if path = strings.TrimSpace(path); path != "" {
			m.whitelistedPaths = append(m.whitelistedPaths, path)
		}
	}

	m.logger.WithFields(logrus.Fields{
		"enabled":           config.Enabled,
		"rps":               config.RequestsPerSecond,
		"burst":             config.BurstSize,
		"whitelisted_ips":   len(m.whitelistedIPs) + len(m.whitelistedNets),
		"whitelisted_paths": len(m.whitelistedPaths),
	}).Info("HTTP rate limiting middleware initialized")

	return m
}

// Middleware wraps next. A disabled middleware returns next unchanged.
func (m *HTTPMiddleware) Middleware(next http.Handler) http.Handler {
	if !m.config.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)
		if m.isPathWhitelisted(r.URL.Path) || m.isIPWhitelisted(clientIP) {
			next.ServeHTTP(w, r)
			return
		}

		limit := formatFloat(m.config.RequestsPerSecond)
		if m.limiter.IsBlocked(clientIP) {
			metrics.RecordRateLimited("blocked")
			m.reject(w, clientIP, limit)
			return
		}

		if !m.limiter.Allow(clientIP) {
			m.logger.WithFields(logrus.Fields{
				"client_ip": clientIP,
				"path":      r.URL.Path,
				"method":    r.Method,
			}).Warn("Rate limit exceeded")

			metrics.RecordRateLimited("limited")
			m.limiter.Block(clientIP, m.config.BlockDuration)
			m.reject(w, clientIP, limit)
			return
		}

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Remaining", formatFloat(m.limiter.Tokens(clientIP)))
		next.ServeHTTP(w, r)
	})
}

func (m *HTTPMiddleware) reject(w http.ResponseWriter, clientIP, limit string) {
	w.Header().Set("Retry-After", strconv.Itoa(int(m.config.BlockDuration.Seconds())))
	w.Header().Set("X-RateLimit-Limit", limit)
	w.Header().Set("X-RateLimit-Remaining", "0")
	errors.WriteError(w, errors.NewLimitExceeded("rate limit exceeded", map[string]interface{}{
		"client_ip": clientIP,
	}))
}

// Limiter returns the underlying limiter
func (m *HTTPMiddleware) Limiter() *Limiter {
	return m.limiter
}

// Stop releases the limiter's cleanup goroutine
func (m *HTTPMiddleware) Stop() {
	m.limiter.Stop()
}

// ClientIP returns the first forwarded address, then X-Real-IP, then the
// peer address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (m *HTTPMiddleware) isIPWhitelisted(ip string) bool {
	if m.whitelistedIPs[ip] {
		return true
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}
	for _, ipNet := range m.whitelistedNets {
		if ipNet.Contains(parsedIP) {
			return true
		}
	}
	return false
}

func (m *HTTPMiddleware) isPathWhitelisted(path string) bool {
	for _, p := range m.whitelistedPaths {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		} else if p == path {
			return true
		}
	}
	return false
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.0f", f)
}
