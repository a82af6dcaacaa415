package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	LogLevel       string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	AuthURL        string
	AuthAnonKey    string
	StorageURL     string
	StorageKey     string
	StorageBucket  string
	NatsURL        string
	NatsToken      string
	MaxUploadBytes int64
}

func Load() Config {
	return Config{
		Port:           envInt("SCRIVENER_PORT", 8780),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:   envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  envStr("OPENAI_BASE_URL", ""),
		OpenAIModel:    envStr("SCRIVENER_MODEL", "gpt-3.5-turbo"),
		AuthURL:        envStr("AUTH_URL", ""),
		AuthAnonKey:    envStr("AUTH_ANON_KEY", ""),
		StorageURL:     envStr("STORAGE_URL", ""),
		StorageKey:     envStr("STORAGE_SERVICE_KEY", ""),
		StorageBucket:  envStr("STORAGE_BUCKET", "invoices"),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
