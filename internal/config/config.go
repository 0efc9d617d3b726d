package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	RedisURL      string
	CacheTTL      time.Duration
	LogLevel      string
	SlackBotToken string
	SlackChannel  string
	APIToken      string
	KnowledgeBase string
	TranscriptDir string
}

func Load() Config {
	return Config{
		Port:          envInt("LECTERN_PORT", 8760),
		NatsURL:       envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		RedisURL:      envStr("REDIS_URL", ""),
		CacheTTL:      envSeconds("CACHE_TTL", time.Hour),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_LESSONS_CHANNEL", ""),
		APIToken:      envStr("LECTERN_API_TOKEN", ""),
		KnowledgeBase: envStr("LECTERN_KNOWLEDGE_BASE", ""),
		TranscriptDir: envStr("TRANSCRIPT_DIR", "/data/transcripts"),
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

// envSeconds accepts a plain number of seconds or a Go duration string.
func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	return fallback
}
