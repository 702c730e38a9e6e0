package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	StorageBucket   string
	StoreDriver     string

	AsaasAPIKey       string
	AsaasBaseURL      string
	AsaasWebhookToken string

	AppCheckEnforced bool
	OutboxInterval   time.Duration
	AllowedOrigins   []string

	Economy Economy
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		FirebaseProject:   getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:       getEnv("ENVIRONMENT", "development"),
		StorageBucket:     getEnv("STORAGE_BUCKET", ""),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFirestore)),
		AsaasAPIKey:       getEnv("ASAAS_API_KEY", ""),
		AsaasBaseURL:      getEnv("ASAAS_BASE_URL", "https://www.asaas.com/api/v3"),
		AsaasWebhookToken: getEnv("ASAAS_WEBHOOK_TOKEN", ""),
		AppCheckEnforced:  getEnvAsBool("APPCHECK_ENFORCED", true),
		OutboxInterval:    time.Duration(getEnvAsInt64("OUTBOX_INTERVAL_SECONDS", 30)) * time.Second,
		AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS"),
	}

	if config.OutboxInterval <= 0 {
		return nil, fmt.Errorf("OUTBOX_INTERVAL_SECONDS must be positive, got %v", config.OutboxInterval)
	}

	economy, err := LoadEconomy(getEnv("ECONOMY_CONFIG_PATH", ""))
	if err != nil {
		return nil, err
	}
	config.Economy = economy

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
