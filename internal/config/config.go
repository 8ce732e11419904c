package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAppName         = "WalletSync"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultBackendURL      = "http://127.0.0.1:8546"
	defaultBackendTimeout  = 30 * time.Second
	defaultRefreshInterval = 5 * time.Second
	defaultSyncInterval    = 2 * time.Second
	defaultNameCacheTTL    = 5 * time.Minute
	configFileName         = "walletsync"
	configFileEnvVar       = "WALLETSYNC_CONFIG"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
)

// Config captures application runtime configuration loaded from the
// environment and an optional walletsync.json file.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	LogFormat       string
	DatabaseURL     string
	RedisURL        string
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	BackendURL      string
	BackendTimeout  time.Duration
	BackendDebug    bool
	RefreshInterval time.Duration
	SyncInterval    time.Duration
	NameCacheTTL    time.Duration
}

// Load reads configuration values and populates a Config instance.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString(configFileEnvVar); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		AppName:         v.GetString("APP_NAME"),
		AppEnv:          v.GetString("APP_ENV"),
		Port:            v.GetString("PORT"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisURL:        v.GetString("REDIS_URL"),
		BackendURL:      strings.TrimSuffix(v.GetString("ETC_API_URL"), "/"),
		BackendDebug:    v.GetBool("ETC_API_DEBUG"),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"ETC_API_TIMEOUT", &cfg.BackendTimeout},
		{"WALLET_REFRESH_INTERVAL", &cfg.RefreshInterval},
		{"SYNC_CHECK_INTERVAL", &cfg.SyncInterval},
		{"WALLET_NAME_CACHE_TTL", &cfg.NameCacheTTL},
	}
	for _, d := range durations {
		value, err := durationValue(v, d.key)
		if err != nil {
			return Config{}, err
		}
		*d.dst = value
	}

	if v.IsSet(shutdownSecondsEnvVar) {
		value, err := secondsValue(v, shutdownSecondsEnvVar)
		if err != nil {
			return Config{}, err
		}
		cfg.ShutdownPeriod = value
	}
	if v.IsSet(idemTTLSecondsEnvVar) {
		value, err := secondsValue(v, idemTTLSecondsEnvVar)
		if err != nil {
			return Config{}, err
		}
		cfg.IdempotencyTTL = value
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// durationValue reads key as a Go duration string. Defaults are stored as
// time.Duration values and pass through unchanged.
func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	switch raw := v.Get(key).(type) {
	case time.Duration:
		return raw, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("invalid %s: expected a duration such as \"30s\", got %v", key, raw)
	}
}

func secondsValue(v *viper.Viper, key string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("LOG_FORMAT", defaultLogFormat)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownDelay)
	v.SetDefault("IDEMPOTENCY_TTL", defaultIdempotencyTTL)
	v.SetDefault("ETC_API_URL", defaultBackendURL)
	v.SetDefault("ETC_API_TIMEOUT", defaultBackendTimeout)
	v.SetDefault("ETC_API_DEBUG", false)
	v.SetDefault("WALLET_REFRESH_INTERVAL", defaultRefreshInterval)
	v.SetDefault("SYNC_CHECK_INTERVAL", defaultSyncInterval)
	v.SetDefault("WALLET_NAME_CACHE_TTL", defaultNameCacheTTL)
	v.SetDefault(configFileEnvVar, "")
}

func (c Config) validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("ETC_API_URL must be set")
	}
	if c.ShutdownPeriod <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("ETC_API_TIMEOUT must be positive")
	}
	if c.NameCacheTTL <= 0 {
		return fmt.Errorf("WALLET_NAME_CACHE_TTL must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("WALLET_REFRESH_INTERVAL must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_CHECK_INTERVAL must be positive")
	}
	if c.IsDev() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.AppEnv)
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.AppEnv)
	}
	return nil
}

// IsDev reports whether the process runs in a local/development environment
// where Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
