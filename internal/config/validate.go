package config

import (
	"fmt"
	"net"
	"os"

	"github.com/zsiec/timecode/pkg/timecode"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Timecode.Validate(); err != nil {
		return fmt.Errorf("timecode config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("ratelimit config: %w", err)
	}

	if err := c.Markers.Validate(); err != nil {
		return fmt.Errorf("markers config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.HTTPPort < 1 || s.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", s.HTTPPort)
	}

	for _, proxy := range s.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err == nil {
			continue
		}
		if net.ParseIP(proxy) == nil {
			return fmt.Errorf("invalid trusted proxy %q: want an IP or CIDR", proxy)
		}
	}

	if !s.EnableHTTP3 {
		return nil
	}

	if s.HTTP3Port < 1 || s.HTTP3Port > 65535 {
		return fmt.Errorf("invalid HTTP3 port: %d", s.HTTP3Port)
	}

	if s.HTTP3Port == s.HTTPPort {
		return fmt.Errorf("HTTP and HTTP3 ports must be different")
	}

	if s.TLSCertFile == "" {
		return fmt.Errorf("TLS certificate file is required for HTTP3")
	}

	if s.TLSKeyFile == "" {
		return fmt.Errorf("TLS key file is required for HTTP3")
	}

	if _, err := os.Stat(s.TLSCertFile); os.IsNotExist(err) {
		return fmt.Errorf("TLS certificate file not found: %s", s.TLSCertFile)
	}

	if _, err := os.Stat(s.TLSKeyFile); os.IsNotExist(err) {
		return fmt.Errorf("TLS key file not found: %s", s.TLSKeyFile)
	}

	return nil
}

func (r *RedisConfig) Validate() error {
	if len(r.Addresses) == 0 {
		return fmt.Errorf("at least one Redis address is required")
	}

	if r.DB < 0 {
		return fmt.Errorf("invalid Redis database number: %d", r.DB)
	}

	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if r.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive")
	}

	if r.MinIdleConns < 0 {
		return fmt.Errorf("min_idle_conns cannot be negative")
	}

	if r.MinIdleConns > r.PoolSize {
		return fmt.Errorf("min_idle_conns cannot be greater than pool_size")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", m.Port)
	}

	if m.Path == "" || m.Path[0] != '/' {
		return fmt.Errorf("metrics path must start with '/'")
	}

	return nil
}

func (t *TimecodeConfig) Validate() error {
	rate, err := timecode.RoundRate(t.DefaultRate)
	if err != nil {
		return fmt.Errorf("default_rate: %w", err)
	}

	// Building a timecode applies the same drop-frame rule requests will hit.
	if _, err := timecode.New(0, t.DefaultRate, t.DefaultDropFrame); err != nil {
		return fmt.Errorf("default_drop_frame at %d fps: %w", rate, err)
	}

	if t.ClockRate == 0 {
		return fmt.Errorf("clock_rate must be positive")
	}

	if t.DefaultRate > float64(t.ClockRate) {
		return fmt.Errorf("default_rate %g exceeds clock_rate %d", t.DefaultRate, t.ClockRate)
	}

	return nil
}

func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}

	if r.Burst <= 0 {
		return fmt.Errorf("burst must be positive")
	}

	return nil
}

func (m *MarkersConfig) Validate() error {
	if m.KeyPrefix == "" {
		return fmt.Errorf("key_prefix cannot be empty")
	}

	if m.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative")
	}

	if m.MaxPerTimeline <= 0 {
		return fmt.Errorf("max_per_timeline must be positive")
	}

	return nil
}
