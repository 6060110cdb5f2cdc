// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the runtime configuration of the API server.
type Config struct {
	Env            string // APP_ENV (dev, test, prod)
	Port           string // APP_PORT
	DBUser         string // DB_USER
	DBPass         string // DB_PASS, may be empty
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST

	Log       LogConfig
	Broker    BrokerConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string // LOG_LEVEL: debug, info, warn, error
	Format string // LOG_FORMAT: json or console
}

// BrokerConfig points at RabbitMQ.  An empty URL disables booking events.
type BrokerConfig struct {
	URL string // RABBITMQ_URL, falls back to AMQP_URL
}

// NotifierConfig holds what cmd/notifier needs: the broker, the SMTP relay
// and the directory of booking.log.
type NotifierConfig struct {
	Log    LogConfig
	Broker BrokerConfig
	SMTP   SMTPConfig
	LogDir string // BOOKING_LOG_DIR
}

// SMTPConfig configures ticket e-mails.  An empty Host disables them.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Enabled reports whether an SMTP relay is configured.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

// Load reads the API configuration.  Every missing or malformed required
// variable is reported in the returned error.
func Load() (Config, error) {
	var r reader
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),
		Log:            loadLog(),
		Broker:         loadBroker(),
		Redis:          LoadRedisConfig(),
		Cache:          LoadCacheConfig(),
		RateLimit:      LoadRateLimitConfig(),
	}
	return cfg, r.err()
}

// LoadNotifier reads the configuration of the notifier binary.
func LoadNotifier() (NotifierConfig, error) {
	cfg := NotifierConfig{
		Log:    loadLog(),
		Broker: loadBroker(),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   envStr("SMTP_SENDER", "no-reply@aulabook.local"),
		},
		LogDir: envStr("BOOKING_LOG_DIR", "logs"),
	}
	if cfg.Broker.URL == "" {
		return cfg, fmt.Errorf("missing required env var: RABBITMQ_URL")
	}
	return cfg, nil
}

func loadLog() LogConfig {
	return LogConfig{
		Level:  envStr("LOG_LEVEL", "info"),
		Format: envStr("LOG_FORMAT", "json"),
	}
}

func loadBroker() BrokerConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return BrokerConfig{URL: url}
}

// reader collects the problems found while reading required variables.
type reader struct {
	missing []string
	invalid []string
}

// must returns a required variable, recording it when unset or empty.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

// mustInt is like must but converts the value to an int.
func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, s))
	}
	return n
}

func (r *reader) err() error {
	var parts []string
	if len(r.missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(r.missing, ", "))
	}
	if len(r.invalid) > 0 {
		parts = append(parts, "invalid int values: "+strings.Join(r.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}
