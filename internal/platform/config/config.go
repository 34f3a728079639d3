package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "motormint/pkg/platform/strings"
)

// Server captures process-level configuration for the reconciliation core.
type Server struct {
	Addr             string
	DatabaseURL      string
	Chain            ChainConfig
	Redis            RedisConfig
	Kafka            KafkaConfig
	JWTSigningKey    string
	AuditConcurrency int
	LogLevel         slog.Level
}

// ChainConfig points the chain reader at a JSON-RPC endpoint and one
// registry contract.
type ChainConfig struct {
	RPCURL           string
	RegistryContract string
	ReceiptCacheTTL  time.Duration
}

// RedisConfig configures the optional receipt cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures audit outbox publication. Empty brokers disable the
// outbox worker; audit rows still accumulate for later draining.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. A local .env file is loaded first when present.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:        envOr("MOTORMINT_ADDR", ":8080"),
		DatabaseURL: os.Getenv("MOTORMINT_DATABASE_URL"),
		Chain: ChainConfig{
			RPCURL:           envOr("MOTORMINT_CHAIN_RPC_URL", "http://localhost:8545"),
			RegistryContract: os.Getenv("MOTORMINT_REGISTRY_CONTRACT"),
			ReceiptCacheTTL:  durationOr("MOTORMINT_RECEIPT_CACHE_TTL", 6*time.Hour),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("MOTORMINT_REDIS_URL"),
			PoolSize:     intOr("MOTORMINT_REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("MOTORMINT_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("MOTORMINT_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("MOTORMINT_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("MOTORMINT_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("MOTORMINT_KAFKA_BROKERS")),
			AuditTopic: envOr("MOTORMINT_AUDIT_TOPIC", "motormint.mint-audit"),
		},
		// Default for development - must be overridden in production.
		JWTSigningKey:    envOr("MOTORMINT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AuditConcurrency: intOr("MOTORMINT_AUDIT_CONCURRENCY", 8),
		LogLevel:         levelOr("MOTORMINT_LOG_LEVEL", slog.LevelInfo),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func levelOr(key string, fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
