package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"rostering_backend/pkg/utils"
)

// Config aggregates runtime configuration for the server and the CLI.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Broker   BrokerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Env            string
	Port           string
	LogLevel       string
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL connection values.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	ApplySchema  bool
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	Issuer         string
	BcryptCost     int
}

// RedisConfig holds Redis connection values and the login rate limit.
type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	LoginRateLimitOn   bool
	LoginRateCapacity  int
	LoginRateRefill    time.Duration
	LoginRateKeyPrefix string
}

// BrokerConfig configures domain event publishing. An empty URL disables it.
type BrokerConfig struct {
	URL      string
	Exchange string
}

// Load reads configuration from environment variables, applying defaults where possible.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Env:            utils.Getenv("APP_ENV", "development"),
			Port:           utils.Getenv("PORT", "8080"),
			LogLevel:       utils.Getenv("LOG_LEVEL", "info"),
			AllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		},
		Database: DatabaseConfig{
			Host:         utils.Getenv("DB_HOST", "localhost"),
			Port:         utils.Getenv("DB_PORT", "5432"),
			User:         utils.Getenv("DB_USER", "rostering_user"),
			Password:     utils.Getenv("DB_PASSWORD", "rostering_password"),
			Name:         utils.Getenv("DB_NAME", "rostering_db"),
			SSLMode:      utils.Getenv("DB_SSLMODE", "disable"),
			ApplySchema:  utils.GetenvBool("DB_APPLY_SCHEMA", true),
			MaxOpenConns: utils.GetenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: utils.GetenvInt("DB_MAX_IDLE_CONNS", 25),
		},
		Auth: AuthConfig{
			JWTSecret:      utils.Getenv("JWT_SECRET", "dev-secret-change-me"),
			AccessTokenTTL: utils.GetenvDuration("JWT_ACCESS_TTL", 60*time.Minute),
			Issuer:         utils.Getenv("JWT_ISSUER", "rostering-backend"),
			BcryptCost:     utils.GetenvInt("BCRYPT_COST", 12),
		},
		Redis: RedisConfig{
			Addr:               utils.Getenv("REDIS_ADDR", "localhost:6379"),
			Password:           utils.Getenv("REDIS_PASSWORD", ""),
			DB:                 utils.GetenvInt("REDIS_DB", 0),
			LoginRateLimitOn:   utils.GetenvBool("LOGIN_RATE_LIMIT_ENABLED", true),
			LoginRateCapacity:  utils.GetenvInt("LOGIN_RATE_LIMIT_CAPACITY", 10),
			LoginRateRefill:    utils.GetenvDuration("LOGIN_RATE_LIMIT_REFILL", 6*time.Second),
			LoginRateKeyPrefix: utils.Getenv("LOGIN_RATE_LIMIT_PREFIX", "rl:login"),
		},
		Broker: BrokerConfig{
			URL:      utils.Getenv("AMQP_URL", ""),
			Exchange: utils.Getenv("AMQP_EXCHANGE", "rostering.events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST %d: must be between 4 and 31", c.Auth.BcryptCost)
	}
	if c.Redis.LoginRateCapacity < 1 {
		c.Redis.LoginRateCapacity = 1
	}
	if c.Redis.LoginRateRefill <= 0 {
		c.Redis.LoginRateRefill = time.Second
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
