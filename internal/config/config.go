package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Timecode  TimecodeConfig  `mapstructure:"timecode"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Markers   MarkersConfig   `mapstructure:"markers"`
}

type ServerConfig struct {
	// HTTP/1.1 server, always on
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DebugEndpoints  bool          `mapstructure:"debug_endpoints"`

	// Peers (IPs or CIDRs) whose X-Forwarded-For and X-Real-IP are believed
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	// HTTP/3 server, started when EnableHTTP3 is set
	EnableHTTP3    bool          `mapstructure:"enable_http3"`
	HTTP3Port      int           `mapstructure:"http3_port"`
	TLSCertFile    string        `mapstructure:"tls_cert_file"`
	TLSKeyFile     string        `mapstructure:"tls_key_file"`
	MaxIdleTimeout time.Duration `mapstructure:"max_idle_timeout"`
}

type RedisConfig struct {
	Addresses    []string      `mapstructure:"addresses"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`   // json or text
	Output     string `mapstructure:"output"`   // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// TimecodeConfig holds the rate applied to requests that carry none.
type TimecodeConfig struct {
	DefaultRate      float64 `mapstructure:"default_rate"`
	DefaultDropFrame bool    `mapstructure:"default_drop_frame"`
	ClockRate        uint32  `mapstructure:"clock_rate"` // media clock for RTP timestamps
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MarkersConfig struct {
	KeyPrefix      string        `mapstructure:"key_prefix"`
	TTL            time.Duration `mapstructure:"ttl"`
	MaxPerTimeline int           `mapstructure:"max_per_timeline"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configPath)

	// Environment variable override
	v.SetEnvPrefix("TIMECODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.debug_endpoints", false)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.enable_http3", false)
	v.SetDefault("server.http3_port", 8443)
	v.SetDefault("server.max_idle_timeout", "30s")

	// Redis defaults
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)

	// Timecode defaults
	v.SetDefault("timecode.default_rate", 24.0)
	v.SetDefault("timecode.default_drop_frame", false)
	v.SetDefault("timecode.clock_rate", 90000)

	// Rate limit defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 200)
	v.SetDefault("ratelimit.burst", 400)

	// Marker defaults
	v.SetDefault("markers.key_prefix", "timecode:markers:")
	v.SetDefault("markers.ttl", "720h")
	v.SetDefault("markers.max_per_timeline", 10000)
}
