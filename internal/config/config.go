package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DataSourceRemote  = "remote"
	DataSourceFixture = "fixture"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DataSource       string
	APIBaseURL       string
	APITimeout       time.Duration
	FixtureJWTSecret []byte

	StoreDriver string
	RedisURL    string
	DatabaseURL string

	SessionTokenKey string
	SessionUserKey  string

	KafkaBrokers []string
	KafkaTopic   string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DataSource:       strings.ToLower(EnvDefault("DATA_SOURCE", DataSourceRemote)),
		APIBaseURL:       os.Getenv("API_BASE_URL"),
		APITimeout:       time.Duration(EnvIntDefault("API_TIMEOUT_SEC", 10)) * time.Second,
		FixtureJWTSecret: []byte(os.Getenv("FIXTURE_JWT_SECRET")),

		StoreDriver: strings.ToLower(EnvDefault("STORE_DRIVER", StoreMemory)),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		SessionTokenKey: EnvDefault("SESSION_TOKEN_KEY", "auth_token"),
		SessionUserKey:  EnvDefault("SESSION_USER_KEY", "current_user"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "storefront_events"),
	}
}

// Validate exits when a setting required by the selected drivers is missing.
func (c Config) Validate() {
	switch c.DataSource {
	case DataSourceRemote:
		MustNonEmpty(c.APIBaseURL, "API_BASE_URL")
	case DataSourceFixture:
		MustNonEmptyBytes(c.FixtureJWTSecret, "FIXTURE_JWT_SECRET")
	default:
		log.Fatalf("unknown DATA_SOURCE %q", c.DataSource)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreRedis:
		MustNonEmpty(c.RedisURL, "REDIS_URL")
	case StoreSQLite, StorePostgres:
		MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	default:
		log.Fatalf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
