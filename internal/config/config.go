// Package config reads settings from the environment, with an optional
// .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"starscope/internal/registry"
)

// Config holds all runtime settings.
type Config struct {
	Provider   registry.ID
	Model      string
	MaxTokens  int
	Endpoint   string // optional override, required for the custom provider
	Credential string // encrypted credential, decrypted through the vault

	CacheBackend string // "memory", "redis" or "postgres"
	Database     DatabaseConfig
	Redis        RedisConfig
	Vault        VaultConfig
	Probe        ProbeConfig
	History      HistoryConfig
}

// DatabaseConfig holds Postgres connection settings for the cache backend.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds Redis connection settings for the cache backend.
type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// VaultConfig holds credential vault settings.
type VaultConfig struct {
	KeyPath string // where the encryption seed lives
}

// ProbeConfig holds local service discovery settings.
type ProbeConfig struct {
	Enabled bool
	Timeout time.Duration
}

// HistoryConfig holds the S3 export settings.
type HistoryConfig struct {
	Enabled       bool
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	FlushSize     int
	FlushInterval time.Duration
}

func getEnvString(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Provider:   registry.ID(getEnvString("STARSCOPE_PROVIDER", string(registry.Ollama))),
		Model:      getEnvString("STARSCOPE_MODEL", ""),
		MaxTokens:  getEnvInt("STARSCOPE_MAX_TOKENS", 0),
		Endpoint:   getEnvString("STARSCOPE_ENDPOINT", ""),
		Credential: getEnvString("STARSCOPE_CREDENTIAL", ""),

		CacheBackend: getEnvString("STARSCOPE_CACHE_BACKEND", "memory"),
		Database: DatabaseConfig{
			URL:          getEnvString("DATABASE_URL", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 2),
		},
		Redis: RedisConfig{
			Address:     getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:    getEnvString("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			KeyPrefix:   getEnvString("REDIS_KEY_PREFIX", "starscope:analyses"),
			DialTimeout: getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		Vault: VaultConfig{
			KeyPath: getEnvString("STARSCOPE_VAULT_KEY_PATH", defaultKeyPath()),
		},
		Probe: ProbeConfig{
			Enabled: getEnvString("STARSCOPE_PROBE_ENABLED", "true") == "true",
			Timeout: getEnvDuration("STARSCOPE_PROBE_TIMEOUT", 3*time.Second),
		},
		History: HistoryConfig{
			Enabled:       getEnvString("HISTORY_ENABLED", "false") == "true",
			S3Bucket:      getEnvString("HISTORY_S3_BUCKET", ""),
			S3Region:      getEnvString("HISTORY_S3_REGION", "us-east-1"),
			S3Prefix:      getEnvString("HISTORY_S3_PREFIX", "analyses/"),
			FlushSize:     getEnvInt("HISTORY_FLUSH_SIZE", 25),
			FlushInterval: getEnvDuration("HISTORY_FLUSH_INTERVAL", 30*time.Second),
		},
	}

	return cfg, nil
}

func defaultKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".starscope/vault.key"
	}
	return home + "/.starscope/vault.key"
}
