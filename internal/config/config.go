package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends understood by STORAGE_BACKEND.
const (
	StorageBackendFirebase = "firebase"
	StorageBackendS3       = "s3"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseStorageBucket            string `mapstructure:"FIREBASE_STORAGE_BUCKET"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	// AdminIDs is a comma separated list of provider UIDs allowed to manage templates.
	AdminIDs        string `mapstructure:"ADMIN_IDS"`
	AdminPolicyFile string `mapstructure:"ADMIN_POLICY_FILE"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	S3Region       string `mapstructure:"S3_REGION"`
	S3Bucket       string `mapstructure:"S3_BUCKET"`
	S3AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey    string `mapstructure:"S3_SECRET_KEY"`
	S3Endpoint     string `mapstructure:"S3_ENDPOINT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue string `mapstructure:"RABBITMQ_QUEUE"`

	QueryCacheTTL    time.Duration `mapstructure:"QUERY_CACHE_TTL"`
	UploadMaxBytes   int64         `mapstructure:"UPLOAD_MAX_BYTES"`
	UploadSessionTTL time.Duration `mapstructure:"UPLOAD_SESSION_TTL"`
}

var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"FIREBASE_STORAGE_BUCKET",
	"CLIENT_URL",
	"ADMIN_IDS",
	"ADMIN_POLICY_FILE",
	"STORAGE_BACKEND",
	"S3_REGION",
	"S3_BUCKET",
	"S3_ACCESS_KEY",
	"S3_SECRET_KEY",
	"S3_ENDPOINT",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"RABBITMQ_URL",
	"RABBITMQ_QUEUE",
	"QUERY_CACHE_TTL",
	"UPLOAD_MAX_BYTES",
	"UPLOAD_SESSION_TTL",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("STORAGE_BACKEND", StorageBackendFirebase)
	v.SetDefault("RABBITMQ_QUEUE", "template-events")
	v.SetDefault("QUERY_CACHE_TTL", 5*time.Minute)
	v.SetDefault("UPLOAD_MAX_BYTES", int64(10<<20))
	v.SetDefault("UPLOAD_SESSION_TTL", 30*time.Minute)

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and fills derived defaults.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.FirebaseStorageBucket == "" {
		c.FirebaseStorageBucket = c.FirebaseProjectID + ".appspot.com"
	}

	switch strings.ToLower(c.StorageBackend) {
	case StorageBackendFirebase:
		c.StorageBackend = StorageBackendFirebase
	case StorageBackendS3:
		c.StorageBackend = StorageBackendS3
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_BACKEND is s3")
		}
		if c.S3Region == "" {
			return errors.New("S3_REGION is required when STORAGE_BACKEND is s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.QueryCacheTTL < 0 || c.UploadSessionTTL < 0 {
		return errors.New("QUERY_CACHE_TTL and UPLOAD_SESSION_TTL must not be negative")
	}
	return nil
}

// AdminIDList splits ADMIN_IDS into trimmed, non-empty ids.
func (c *Config) AdminIDList() []string {
	var ids []string
	for _, id := range strings.Split(c.AdminIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
