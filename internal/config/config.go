package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	LogFile     string
	JWTSecret   string
	TokenTTL    time.Duration
	ServiceName string

	// ActivityBuffer bounds the in-memory queue of staff activity entries.
	ActivityBuffer int
	// SeedDemoUsers creates the demo accounts on an empty users table.
	SeedDemoUsers bool

	RedisAddr string

	KafkaBrokers       []string
	KafkaActivityTopic string
	KafkaNotifyTopic   string
	KafkaGroup         string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "12h"))
	if err != nil || ttl <= 0 {
		log.Printf("[warn] invalid TOKEN_TTL, using 12h")
		ttl = 12 * time.Hour
	}

	buf, err := strconv.Atoi(getenv("ACTIVITY_BUFFER", "256"))
	if err != nil || buf <= 0 {
		log.Printf("[warn] invalid ACTIVITY_BUFFER, using 256")
		buf = 256
	}

	seed, err := strconv.ParseBool(getenv("SEED_DEMO_USERS", "false"))
	if err != nil {
		log.Printf("[warn] invalid SEED_DEMO_USERS, not seeding")
		seed = false
	}

	cfg := Config{
		Port:               getenv("PORT", "8080"),
		DBDriver:           getenv("DB_DRIVER", "sqlite"),
		DBDSN:              getenv("DB_DSN", "equiploan.db"), // sqlite file in project root
		LogFile:            os.Getenv("LOG_FILE"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           ttl,
		ServiceName:        getenv("SERVICE_NAME", "equiploan"),
		ActivityBuffer:     buf,
		SeedDemoUsers:      seed,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		KafkaBrokers:       splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaActivityTopic: getenv("KAFKA_ACTIVITY_TOPIC", "staff-activity"),
		KafkaNotifyTopic:   getenv("KAFKA_NOTIFY_TOPIC", "loan-notifications"),
		KafkaGroup:         getenv("KAFKA_GROUP", "activityd"),
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s LOG_FILE=%s REDIS=%t KAFKA=%t",
		cfg.Port, cfg.DBDriver, cfg.LogFile, cfg.RedisAddr != "", len(cfg.KafkaBrokers) > 0)
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
