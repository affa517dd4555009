package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Internal InternalConfig `mapstructure:"internal"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置（asynq 队列与提交限流计数器共用）。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	PublicBaseURL    string `mapstructure:"public_base_url"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// TelegramConfig 包含 Bot API 凭证。BotToken 同时用于 WebApp initData 的签名校验。
type TelegramConfig struct {
	BotToken   string `mapstructure:"bot_token"`
	APIBaseURL string `mapstructure:"api_base_url"`
}

// InternalConfig 包含 bot -> backend 内部调用的共享密钥。
type InternalConfig struct {
	Token string `mapstructure:"token"`
}

// UploadConfig 限制候选人上传的照片与每日提交次数。
type UploadConfig struct {
	MaxPhotoBytes int64  `mapstructure:"max_photo_bytes"`
	ClamdAddr     string `mapstructure:"clamd_addr"`
	DailySubmit   int    `mapstructure:"daily_submit"`
}

// SeedConfig 描述启动时的初始数据（可选，0 表示不做种子）。
type SeedConfig struct {
	OwnerTgID int64 `mapstructure:"owner_tg_id"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns the host:port address of the Redis server.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "hrbot")
	v.SetDefault("database.user", "hrbot")
	v.SetDefault("database.password", "hrbot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "media")
	v.SetDefault("minio.public_base_url", "http://localhost:9000/media")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("upload.max_photo_bytes", 5*1024*1024)
	v.SetDefault("upload.daily_submit", 10)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.public_base_url":    "MINIO_PUBLIC_BASE_URL",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"telegram.bot_token":       "BOT_TOKEN",
		"telegram.api_base_url":    "TELEGRAM_API_BASE_URL",
		"internal.token":           "INTERNAL_API_TOKEN",
		"upload.max_photo_bytes":   "UPLOAD_MAX_PHOTO_BYTES",
		"upload.clamd_addr":        "CLAMD_ADDR",
		"upload.daily_submit":      "UPLOAD_DAILY_SUBMIT",
		"seed.owner_tg_id":         "OWNER_TG_ID",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.MinIO.PublicBaseURL == "" {
		return errors.New("minio public base url is required")
	}
	if cfg.Telegram.BotToken == "" {
		return errors.New("bot token is required")
	}
	if cfg.Internal.Token == "" {
		return errors.New("internal api token is required")
	}
	if cfg.Upload.MaxPhotoBytes <= 0 {
		return errors.New("upload max photo bytes must be positive")
	}
	return nil
}
