package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/parla-backend/internal/data/db"
	"github.com/yungbote/parla-backend/internal/platform/envutil"
)

type Config struct {
	Port            string
	LogMode         string
	Environment     string
	ShutdownTimeout time.Duration
	AllowOrigins    []string

	DB db.Config

	AuthSecret   string
	AuthIssuer   string
	AuthAudience string

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	OpenAITimeout       time.Duration
	OpenAIRealtimeModel string
	OpenAIRealtimeVoice string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CompletionLimit int

	OtelEnabled     bool
	OtelEndpoint    string
	OtelHeaders     string
	OtelInsecure    bool
	OtelSampleRatio float64
}

// LoadConfig reads the process environment. Callers load .env first.
func LoadConfig() Config {
	cfg := Config{
		Port:            envutil.String("PORT", "8080"),
		LogMode:         envutil.String("LOG_MODE", "development"),
		Environment:     envutil.String("APP_ENV", "development"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		AllowOrigins:    envutil.List("CORS_ALLOW_ORIGINS", nil),

		AuthSecret:   envutil.String("AUTH_JWT_SECRET", ""),
		AuthIssuer:   envutil.String("AUTH_JWT_ISSUER", ""),
		AuthAudience: envutil.String("AUTH_JWT_AUDIENCE", ""),

		OpenAIAPIKey:        envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:         envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout:       envutil.Duration("OPENAI_TIMEOUT_SECONDS", 30*time.Second),
		OpenAIRealtimeModel: envutil.String("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview"),
		OpenAIRealtimeVoice: envutil.String("OPENAI_REALTIME_VOICE", "alloy"),

		RedisAddr:       envutil.String("REDIS_ADDR", ""),
		RedisPassword:   envutil.String("REDIS_PASSWORD", ""),
		RedisDB:         envutil.Int("REDIS_DB", 0),
		CompletionLimit: envutil.Int("COMPLETION_RATE_LIMIT_PER_MINUTE", 30),

		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
	}

	cfg.DB = db.Config{
		Driver:      envutil.String("DB_DRIVER", "postgres"),
		SQLitePath:  envutil.String("SQLITE_PATH", "parla.db"),
		MaxOpenConn: envutil.Int("DB_MAX_OPEN_CONNS", 20),
		MaxIdleConn: envutil.Int("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLife: envutil.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		SlowQuery:   envutil.Duration("DB_SLOW_QUERY", time.Second),
	}
	cfg.DB.DSN = envutil.String("DATABASE_URL", "")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = db.PostgresDSN(
			envutil.String("POSTGRES_HOST", "localhost"),
			envutil.String("POSTGRES_PORT", "5432"),
			envutil.String("POSTGRES_USER", "postgres"),
			envutil.String("POSTGRES_PASSWORD", ""),
			envutil.String("POSTGRES_NAME", "parla"),
			envutil.String("POSTGRES_SSLMODE", "disable"),
		)
	}

	return cfg
}

// ValidateServe reports settings the HTTP server cannot start without.
func (c Config) ValidateServe() error {
	var missing []string
	if c.AuthSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
