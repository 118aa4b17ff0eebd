// Package config reads runtime settings and opens the shared infrastructure
// (database, log writer, SMTP).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"research-review-api/storage"
)

// Config holds runtime configuration read from the environment (and .env).
type Config struct {
	ServerPort  string
	GinMode     string
	Environment string

	StoreDriver string // mysql | memory
	DB          DatabaseConfig

	JWTSecret      string
	JWTExpireHours int

	SMTP SMTPConfig

	StorageDriver string // local | minio
	UploadPath    string
	MaxUploadMB   int64
	Minio         storage.MinioConfig

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	NotifyTimeout time.Duration
}

// DatabaseConfig holds MySQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	Username string
	Password string
	DebugSQL bool
}

// DSN builds the go-sql-driver/mysql data source name. clientFoundRows makes
// UPDATE report matched rows, which the conditional status update relies on.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort:  v.GetString("SERVER_PORT"),
		GinMode:     strings.ToLower(v.GetString("GIN_MODE")),
		Environment: strings.ToLower(v.GetString("ENVIRONMENT")),
		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DB: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_DATABASE"),
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			DebugSQL: v.GetBool("DEBUG_SQL"),
		},
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpireHours: v.GetInt("JWT_EXPIRE_HOURS"),
		SMTP: SMTPConfig{
			Host:          v.GetString("SMTP_HOST"),
			Port:          v.GetInt("SMTP_PORT"),
			User:          v.GetString("SMTP_USER"),
			Pass:          v.GetString("SMTP_PASS"),
			From:          v.GetString("SMTP_FROM"),
			SkipTLSVerify: v.GetString("SMTP_SKIP_TLS_VERIFY") == "1",
		},
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		UploadPath:    v.GetString("UPLOAD_PATH"),
		MaxUploadMB:   v.GetInt64("MAX_UPLOAD_MB"),
		Minio: storage.MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Region:    v.GetString("MINIO_REGION"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		NotifyTimeout: v.GetDuration("NOTIFY_TIMEOUT"),

		BootstrapAdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN_EMAIL"))),
		BootstrapAdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
	}
	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("STORE_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_DATABASE", "research_review")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("JWT_EXPIRE_HOURS", 24)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_PATH", "./uploads")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("MINIO_BUCKET", "research-papers")
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("NOTIFY_TIMEOUT", "30s")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.StorageDriver {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver == "minio" && c.Minio.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_DRIVER=minio")
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.JWTExpireHours <= 0 {
		c.JWTExpireHours = 24
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 20
	}
	return nil
}

// MaxUploadBytes is the multipart body limit for paper uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
