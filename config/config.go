package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	SecretKey      string
	RequestTimeout time.Duration
	LogLevel       string

	Mongo    MongoConfig
	Firebase FirebaseConfig
	Payment  PaymentConfig
}

// MongoConfig points at a replica set or sharded cluster. Stock movements are
// written in multi-document transactions, which a standalone mongod rejects.
type MongoConfig struct {
	URL      string
	Database string
}

// FirebaseConfig points at the realtime database that mirrors open orders.
// An empty DatabaseURL disables the mirror.
type FirebaseConfig struct {
	DatabaseURL     string
	CredentialsFile string
	Timeout         time.Duration
}

type PaymentConfig struct {
	CardCodeMinLength int
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8000"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"http://localhost:9000"}),
		SecretKey:      getEnv("SECRET_KEY", ""),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Mongo: MongoConfig{
			URL:      getEnv("MONGODB_URL", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database: getEnv("MONGODB_DATABASE", "restaurant"),
		},
		Firebase: FirebaseConfig{
			DatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			Timeout:         getDuration("MIRROR_TIMEOUT", 5*time.Second),
		},
		Payment: PaymentConfig{
			CardCodeMinLength: getInt("CARD_CODE_MIN_LENGTH", 6),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// getList splits a comma separated value, dropping blanks.
func getList(key string, def []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
