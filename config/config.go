package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Worker   WorkerConfig
}

// ServerConfig holds settings for the admin/control HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/strelitzia?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// S3Config holds object storage settings. Endpoint is optional; set it for
// MinIO or another S3-compatible store (path-style addressing is usually
// required there as well).
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// WorkerConfig holds transcoding worker settings.
type WorkerConfig struct {
	WorkDir          string // scratch directory for per-job workspaces; empty = os.TempDir()
	PollIntervalSec  int    // queue blocking-pop timeout / idle poll interval
	FFmpegBin        string
	FFprobeBin       string
	ClamdscanBin     string
	EncodeTimeoutMin int
	ProbeTimeoutSec  int
	ScanTimeoutSec   int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout: getEnvInt("WRITE_TIMEOUT_SEC", 30),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "strelitzia"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", "strelitzia"),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
		},
		Worker: WorkerConfig{
			WorkDir:          getEnv("WORK_DIR", ""),
			PollIntervalSec:  getEnvInt("QUEUE_POLL_INTERVAL_SEC", 1),
			FFmpegBin:        getEnv("FFMPEG_BIN", "ffmpeg"),
			FFprobeBin:       getEnv("FFPROBE_BIN", "ffprobe"),
			ClamdscanBin:     getEnv("CLAMDSCAN_BIN", "clamdscan"),
			EncodeTimeoutMin: getEnvInt("ENCODE_TIMEOUT_MIN", 120),
			ProbeTimeoutSec:  getEnvInt("PROBE_TIMEOUT_SEC", 60),
			ScanTimeoutSec:   getEnvInt("SCAN_TIMEOUT_SEC", 120),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
