package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

type Config struct {
	Port                string        `mapstructure:"PORT"`
	GRPCPort            string        `mapstructure:"GRPC_PORT"`
	Env                 string        `mapstructure:"ENV"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL      time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL     time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	StoreBackend        string        `mapstructure:"STORE_BACKEND"`
	AvailabilityBackend string        `mapstructure:"AVAILABILITY_BACKEND"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int           `mapstructure:"REDIS_DB"`
	CORSOrigins         []string      `mapstructure:"CORS_ORIGINS"`
	AuthRateRPS         float64       `mapstructure:"AUTH_RATE_RPS"`
	AuthRateBurst       int           `mapstructure:"AUTH_RATE_BURST"`
}

var keys = []string{
	"PORT", "GRPC_PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
	"STORE_BACKEND", "AVAILABILITY_BACKEND",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"CORS_ORIGINS", "AUTH_RATE_RPS", "AUTH_RATE_BURST",
}

// Load reads the environment (and .env when present) over the defaults.
// It does not validate; call Validate before serving.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GRPC_PORT", "50051")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("AVAILABILITY_BACKEND", BackendMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("AUTH_RATE_RPS", 5)
	v.SetDefault("AUTH_RATE_BURST", 10)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool { return c.Env == "development" }

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.StoreBackend))
	}
	switch c.AvailabilityBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when AVAILABILITY_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("AVAILABILITY_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.AvailabilityBackend))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.AuthRateRPS <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_RPS and AUTH_RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}
