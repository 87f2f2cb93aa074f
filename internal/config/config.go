package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup from the environment (a .env file is
// loaded first when present).
type Config struct {
	HTTPAddr string

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Chain RPC endpoint and one registry contract per attestation type.
	RPCURL         string
	RegistryByType map[string]string

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Join rate limit: at most JoinLimit attempts per wallet per JoinWindow.
	JoinLimit  int
	JoinWindow time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		MySQLDSN: getenv("MYSQL_DSN", "openbands:openbands@tcp(127.0.0.1:3306)/openbands?charset=utf8mb4&parseTime=True"),

		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),

		RPCURL: getenv("CHAIN_RPC_URL", "https://mainnet.base.org"),
		RegistryByType: map[string]string{
			"nationality": os.Getenv("NATIONALITY_REGISTRY_ADDRESS"),
			"age":         os.Getenv("AGE_REGISTRY_ADDRESS"),
			"company":     os.Getenv("COMPANY_REGISTRY_ADDRESS"),
		},

		KafkaBrokers: split(getenv("KAFKA_BROKERS", "127.0.0.1:9092")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "openbands.events"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getenv("SMTP_FROM", "OpenBands <no-reply@openbands.xyz>"),

		JoinLimit:  getint("JOIN_RATE_LIMIT", 5),
		JoinWindow: getduration("JOIN_RATE_WINDOW", time.Minute),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func split(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
