package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Remote answering service
	RAGBaseURL string
	RAGTimeout time.Duration

	// Identifier sent with every query, until real accounts exist.
	UserID string

	UseMockRAG bool // true = answer locally without a RAG service
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads all env vars and builds the config. A .env file is honored in
// development when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("RAGCHAT_PORT", "8080"),

		RAGBaseURL: getEnv("RAGCHAT_RAG_URL", "http://localhost:5000"),
		RAGTimeout: getDurationEnv("RAGCHAT_RAG_TIMEOUT", 60*time.Second),

		UserID: getEnv("RAGCHAT_USER_ID", "dev-42"),

		UseMockRAG: getBoolEnv("RAGCHAT_USE_MOCK", false),
	}
}
