package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an optional YAML file layered between defaults and env.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "your-secret-key"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string   `koanf:"server_port"`
	ServerHost  string   `koanf:"server_host"`
	CORSOrigins []string `koanf:"cors_origins"`

	// Database configuration
	DBDriver     string `koanf:"db_driver"`
	DBHost       string `koanf:"db_host"`
	DBPort       string `koanf:"db_port"`
	DBUser       string `koanf:"db_user"`
	DBPassword   string `koanf:"db_password"`
	DBName       string `koanf:"db_name"`
	DBSSLMode    string `koanf:"db_ssl_mode"`
	SQLitePath   string `koanf:"sqlite_path"`
	MigrationDir string `koanf:"migrations_dir"`

	// Redis configuration
	RedisHost     string `koanf:"redis_host"`
	RedisPort     string `koanf:"redis_port"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisURL      string `koanf:"redis_url"`

	// JWT configuration
	JWTSecret string        `koanf:"jwt_secret"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`

	// Logging
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Recipe images. ImageStorage is "local" or "s3".
	ImageStorage  string `koanf:"image_storage"`
	MediaRoot     string `koanf:"media_root"`
	MediaURL      string `koanf:"media_url"`
	S3Bucket      string `koanf:"s3_bucket_name"`
	S3Region      string `koanf:"aws_region"`
	S3Endpoint    string `koanf:"s3_endpoint"`
	S3PublicURL   string `koanf:"s3_public_url"`
	S3AccessKey   string `koanf:"aws_access_key_id"`
	S3SecretKey   string `koanf:"aws_secret_access_key"`
	S3UsePathMode bool   `koanf:"s3_use_path_style"`

	// API behaviour
	PageSize           int           `koanf:"page_size"`
	RecipeCreateLimit  int           `koanf:"recipe_create_limit"`
	RecipeCreateWindow time.Duration `koanf:"recipe_create_window"`
}

// secretKeys are read from SECRETS_DIR when present and override env values.
var secretKeys = []string{"db_user", "db_password", "jwt_secret", "redis_password", "aws_secret_access_key"}

func defaultConfig() *Config {
	return &Config{
		ServerPort:         "8080",
		ServerHost:         "0.0.0.0",
		CORSOrigins:        []string{"http://localhost:3000", "http://frontend:3000"},
		DBDriver:           "postgres",
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "postgres",
		DBName:             "foodgram",
		DBSSLMode:          "disable",
		SQLitePath:         "foodgram.db",
		MigrationDir:       "migrations",
		RedisHost:          "localhost",
		RedisPort:          "6379",
		JWTSecret:          DefaultJWTSecret,
		JWTTTL:             24 * time.Hour,
		LogLevel:           "info",
		LogFormat:          "json",
		ImageStorage:       "local",
		MediaRoot:          "media",
		MediaURL:           "/media",
		S3Bucket:           "foodgram-recipe-images",
		S3Region:           "us-east-1",
		PageSize:           6,
		RecipeCreateLimit:  20,
		RecipeCreateWindow: time.Hour,
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// environment variables and finally Docker secrets.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// DB_HOST -> db_host
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// comma separated env value for a slice field
	if raw, ok := k.Get("cors_origins").(string); ok {
		if err := k.Set("cors_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("failed to parse CORS_ORIGINS: %w", err)
		}
	}

	for _, name := range secretKeys {
		if value := readSecret(name); value != "" {
			if err := k.Set(name, value); err != nil {
				return nil, fmt.Errorf("failed to apply secret %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// PostgresDSN returns the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
