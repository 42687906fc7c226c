package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvDevelopment is the only APP_ENV that may run without AUTH_JWT_SECRET.
const EnvDevelopment = "development"

const devJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Tickets   TicketConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	StatusCacheTTL time.Duration
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification and identity provider parameters.
type AuthConfig struct {
	JWTSecret        string
	BcryptCost       int
	IdentityURL      string
	IdentityAnonKey  string
	IdentityTimeout  time.Duration
	SignupRoleID     int64
	SignupUserStatus int64
}

// TicketConfig names the reference statuses the lifecycle relies on.
// Names are resolved against the ticket status table at startup; the ids are
// used when a name is absent.
type TicketConfig struct {
	PendingName       string
	PendingID         int64
	InProgressName    string
	InProgressID      int64
	AnsweredName      string
	AnsweredID        int64
	DeletedUserStatus int64
}

// RateLimitConfig bounds requests per caller.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// KafkaConfig controls event publishing.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Load reads configuration from environment variables, applying defaults where possible.
// envFiles are passed to godotenv; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-api"),
			Env:                   getEnv("APP_ENV", "production"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			StatusCacheTTL: time.Duration(getEnvAsInt("REDIS_STATUS_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:        os.Getenv("AUTH_JWT_SECRET"),
			BcryptCost:       getEnvAsInt("AUTH_BCRYPT_COST", 12),
			IdentityURL:      strings.TrimRight(os.Getenv("AUTH_IDENTITY_URL"), "/"),
			IdentityAnonKey:  os.Getenv("AUTH_IDENTITY_ANON_KEY"),
			IdentityTimeout:  time.Duration(getEnvAsInt("AUTH_IDENTITY_TIMEOUT_SECONDS", 10)) * time.Second,
			SignupRoleID:     int64(getEnvAsInt("AUTH_SIGNUP_ROLE_ID", 1)),
			SignupUserStatus: int64(getEnvAsInt("AUTH_SIGNUP_USER_STATUS_ID", 1)),
		},
		Tickets: TicketConfig{
			PendingName:       getEnv("TICKET_STATUS_PENDING_NAME", "PENDING"),
			PendingID:         int64(getEnvAsInt("TICKET_STATUS_PENDING_ID", 1)),
			InProgressName:    getEnv("TICKET_STATUS_IN_PROGRESS_NAME", "IN_PROGRESS"),
			InProgressID:      int64(getEnvAsInt("TICKET_STATUS_IN_PROGRESS_ID", 2)),
			AnsweredName:      getEnv("TICKET_STATUS_ANSWERED_NAME", "ANSWERED"),
			AnsweredID:        int64(getEnvAsInt("TICKET_STATUS_ANSWERED_ID", 3)),
			DeletedUserStatus: int64(getEnvAsInt("USER_STATUS_DELETED_ID", 3)),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 120),
			Window:   time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: splitList(getEnv("KAFKA_BROKERS", "127.0.0.1:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "support.tickets"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.App.Env != EnvDevelopment {
			return nil, fmt.Errorf("AUTH_JWT_SECRET required when APP_ENV is %q", cfg.App.Env)
		}
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS required when KAFKA_ENABLED is set")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
