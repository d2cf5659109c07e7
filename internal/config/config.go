package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is used when neither the file nor JWT_SECRET sets one.
const DefaultJWTSecret = "premium-homes-secret-key-change-in-production"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	DataDir  string         `yaml:"data_dir"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings. An empty host
// disables the index and /api/search falls back to in-memory filtering.
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// AuthConfig contains token settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// UploadsConfig contains image upload settings
type UploadsConfig struct {
	Dir           string `yaml:"dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	MaxFiles      int    `yaml:"max_files"`
}

// RateLimitConfig limits login attempts per client IP
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// SchedulerConfig contains cron specs for background jobs. An empty spec
// disables that job.
type SchedulerConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Timezone          string `yaml:"timezone"`
	AgentCountsSpec   string `yaml:"agent_counts_spec"`
	ReindexSpec       string `yaml:"reindex_spec"`
	UploadCleanupSpec string `yaml:"upload_cleanup_spec"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "5001",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type:    "json",
			DataDir: "data",
		},
		Auth: AuthConfig{
			JWTSecret: DefaultJWTSecret,
		},
		Uploads: UploadsConfig{
			Dir:           "uploads",
			MaxFileSizeMB: 5,
			MaxFiles:      10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   100,
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			Timezone:          "Europe/Tirane",
			AgentCountsSpec:   "*/15 * * * *",
			ReindexSpec:       "0 3 * * *",
			UploadCleanupSpec: "30 3 * * 0",
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overlays environment variables. PORT, JWT_SECRET, DATA_DIR,
// DB_TYPE and MEILISEARCH_* win over the file; DB_HOST and friends only fill
// connection fields the file leaves empty.
func (c *Config) ApplyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Database.DataDir = getEnv("DATA_DIR", c.Database.DataDir)
	c.Database.Type = getEnv("DB_TYPE", c.Database.Type)
	c.Search.Meilisearch.Host = getEnv("MEILISEARCH_HOST", c.Search.Meilisearch.Host)
	c.Search.Meilisearch.APIKey = getEnv("MEILISEARCH_KEY", c.Search.Meilisearch.APIKey)
	c.Uploads.Dir = getEnv("UPLOAD_DIR", c.Uploads.Dir)
}

// DatabaseParams resolves connection parameters for the selected backend.
func (c *Config) DatabaseParams() (host, port, user, password, name, sslmode string) {
	switch c.Database.Type {
	case "mysql":
		m := c.Database.MySQL
		return getEnvOrConfig(m.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portString(m.Port), "DB_PORT", "3306"),
			getEnvOrConfig(m.User, "DB_USER", "homes_user"),
			getEnvOrConfig(m.Password, "DB_PASSWORD", "homes_pass"),
			getEnvOrConfig(m.Database, "DB_NAME", "premium_homes"),
			""
	default:
		p := c.Database.Postgres
		return getEnvOrConfig(p.Host, "DB_HOST", "db"),
			getEnvOrConfig(portString(p.Port), "DB_PORT", "5432"),
			getEnvOrConfig(p.User, "DB_USER", "homes_user"),
			getEnvOrConfig(p.Password, "DB_PASSWORD", "homes_pass"),
			getEnvOrConfig(p.Database, "DB_NAME", "premium_homes"),
			getEnvOrConfig(p.SSLMode, "DB_SSLMODE", "disable")
	}
}

// MaxUploadBytes returns the per-file upload limit in bytes
func (c *UploadsConfig) MaxUploadBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// portString handles 0 as empty
func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
