package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Policy   PolicyConfig
	Events   EventsConfig
	SMTP     SMTPConfig
	Webhook  WebhookConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PolicyConfig carries the admission policy constants.
type PolicyConfig struct {
	// MaxWaitlistsPerStudent caps the number of distinct class waitlists a
	// student may occupy at once.
	MaxWaitlistsPerStudent int
	// WaitlistCapacity is the per-class overflow allowance beyond seat
	// capacity before requests are rejected outright.
	WaitlistCapacity int
	// FrozenAtBoot sets the initial state of the waitlist freeze flag.
	FrozenAtBoot bool
}

// EventsConfig controls the fact-record stream and its consumers.
type EventsConfig struct {
	Stream        string
	MaxLen        int64
	ConsumerBlock time.Duration
	WorkerRetries int
	RetryDelay    time.Duration
}

// SMTPConfig holds outbound mail settings for the email consumer.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// WebhookConfig tunes the webhook consumer's HTTP client.
type WebhookConfig struct {
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Policy = PolicyConfig{
		MaxWaitlistsPerStudent: v.GetInt("MAX_WAITLISTS_PER_STUDENT"),
		WaitlistCapacity:       v.GetInt("WAITLIST_CAPACITY"),
		FrozenAtBoot:           v.GetBool("WAITLIST_FREEZE_AT_BOOT"),
	}

	cfg.Events = EventsConfig{
		Stream:        v.GetString("EVENT_STREAM"),
		MaxLen:        v.GetInt64("EVENT_STREAM_MAXLEN"),
		ConsumerBlock: parseDuration(v.GetString("EVENT_CONSUMER_BLOCK"), 5*time.Second),
		WorkerRetries: v.GetInt("EVENT_WORKER_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("EVENT_RETRY_DELAY"), 2*time.Second),
	}

	cfg.SMTP = SMTPConfig{
		Host: v.GetString("SMTP_HOST"),
		Port: v.GetInt("SMTP_PORT"),
		From: v.GetString("SMTP_FROM"),
	}

	cfg.Webhook = WebhookConfig{
		Timeout: parseDuration(v.GetString("WEBHOOK_TIMEOUT"), 10*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "enrollment")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 1)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MAX_WAITLISTS_PER_STUDENT", 3)
	v.SetDefault("WAITLIST_CAPACITY", 15)
	v.SetDefault("WAITLIST_FREEZE_AT_BOOT", false)
	v.SetDefault("EVENT_STREAM", "enrollment:events")
	v.SetDefault("EVENT_STREAM_MAXLEN", 10000)
	v.SetDefault("EVENT_CONSUMER_BLOCK", "5s")
	v.SetDefault("EVENT_WORKER_RETRIES", 3)
	v.SetDefault("EVENT_RETRY_DELAY", "2s")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 25)
	v.SetDefault("SMTP_FROM", "registrar@regworks.example")
	v.SetDefault("WEBHOOK_TIMEOUT", "10s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
