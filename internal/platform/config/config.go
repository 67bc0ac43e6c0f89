package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config gathers everything the bootstrap needs so main stays lean.
// All values come from the environment with development defaults.
type Config struct {
	Addr     string
	LogLevel string

	// OperatorTokenHash is the bcrypt hash of the token required for
	// dead-letter retries and compliance deletion.
	OperatorTokenHash string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Queue    QueueConfig
	Nudge    NudgeConfig
	Webhook  WebhookConfig
}

// RedisConfig configures the durable queue backend. An empty URL selects the
// in-memory backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the audit and meeting stores. An empty DSN
// selects the in-memory stores.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the notification dispatcher. Empty brokers select
// the log-only notifier.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// QueueConfig tunes the worker harness.
type QueueConfig struct {
	WorkersPerQueue int
	JobTimeout      time.Duration
	PollInterval    time.Duration
	BackoffBase     time.Duration
	BackoffCap      time.Duration
}

// NudgeConfig tunes action follow-up scheduling.
type NudgeConfig struct {
	Window             time.Duration
	EscalationSteps    int
	EscalationInterval time.Duration
}

// WebhookConfig holds per-provider shared secrets, keyed by provider slug.
type WebhookConfig struct {
	Secrets map[string]string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:              envStr("NOTARIUS_ADDR", ":8080"),
		LogLevel:          envStr("NOTARIUS_LOG_LEVEL", "info"),
		OperatorTokenHash: os.Getenv("NOTARIUS_OPERATOR_TOKEN_HASH"),
		Redis: RedisConfig{
			URL:          os.Getenv("NOTARIUS_REDIS_URL"),
			PoolSize:     envInt("NOTARIUS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("NOTARIUS_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDur("NOTARIUS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("NOTARIUS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("NOTARIUS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("NOTARIUS_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers: envList("NOTARIUS_KAFKA_BROKERS"),
			Topic:   envStr("NOTARIUS_KAFKA_TOPIC", "meeting-notifications"),
		},
		Queue: QueueConfig{
			WorkersPerQueue: envInt("NOTARIUS_QUEUE_WORKERS", 4),
			JobTimeout:      envDur("NOTARIUS_JOB_TIMEOUT", 30*time.Second),
			PollInterval:    envDur("NOTARIUS_QUEUE_POLL_INTERVAL", 250*time.Millisecond),
			BackoffBase:     envDur("NOTARIUS_BACKOFF_BASE", 2*time.Second),
			BackoffCap:      envDur("NOTARIUS_BACKOFF_CAP", 10*time.Minute),
		},
		Nudge: NudgeConfig{
			Window:             envDur("NOTARIUS_NUDGE_WINDOW", 48*time.Hour),
			EscalationSteps:    envInt("NOTARIUS_NUDGE_ESCALATION_STEPS", 2),
			EscalationInterval: envDur("NOTARIUS_NUDGE_ESCALATION_INTERVAL", 24*time.Hour),
		},
		Webhook: WebhookConfig{
			Secrets: envSecrets("NOTARIUS_WEBHOOK_SECRETS"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envSecrets parses "provider1=secret1,provider2=secret2".
func envSecrets(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range envList(key) {
		if idx := strings.Index(pair, "="); idx > 0 {
			out[pair[:idx]] = pair[idx+1:]
		}
	}
	return out
}
