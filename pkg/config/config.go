package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	StorageBucket           string
	NarrativeEndpoint       string
	NarrativeAPIKey         string
	MaxCombinedFriends      int
	InvitationTTL           time.Duration
	NudgeCooldown           time.Duration
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "loopline"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		NarrativeEndpoint:       getEnv("NARRATIVE_ENDPOINT", ""),
		NarrativeAPIKey:         getEnv("NARRATIVE_API_KEY", ""),
		MaxCombinedFriends:      getEnvInt("MAX_COMBINED_FRIENDS", 50),
		InvitationTTL:           getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
		NudgeCooldown:           getEnvDuration("NUDGE_COOLDOWN", 6*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
