package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	MaxRetries int
}

type RedisConfig struct {
	Addr     string
	Password string
}

type KafkaConfig struct {
	Broker  string
	Topic   string
	GroupID string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type StorageConfig struct {
	Driver       string // local | minio
	UploadDir    string
	MaxUploadMB  int
	MaxFiles     int
	PublicPrefix string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AdminSeed describes the admin account created on startup when Email and
// Password are both present.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

type Config struct {
	AppEnv      string
	Port        string
	CORSOrigins []string
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Storage     StorageConfig
	MinIO       MinIOConfig
	Admin       AdminSeed
}

// Load reads configuration from environment variables. cmd/* loads .env
// beforehand with godotenv; real environment variables take precedence.
func Load() *Config {
	return &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "5000"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", ""),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", ""),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", ""),
			Topic:   getEnv("KAFKA_TOPIC", "dms.document.lifecycle.v1"),
			GroupID: getEnv("KAFKA_GROUP_ID", "kemri-dms-stats"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 10),
			MaxFiles:     getEnvInt("MAX_ATTACHMENTS", 5),
			PublicPrefix: getEnv("UPLOAD_PUBLIC_PREFIX", "/uploads"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "attachments"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Admin: AdminSeed{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate rejects settings the API cannot safely start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-secret-change-me"
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return errors.New("STORAGE_DRIVER must be local or minio")
	}
	if c.Storage.MaxFiles <= 0 {
		c.Storage.MaxFiles = 5
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
