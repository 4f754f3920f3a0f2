// internal/config/config.go
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	RabbitMQ    RabbitMQConfig
	Business    BusinessConfig
	Email       EmailConfig
	I18n        I18nConfig
	Admin       AdminConfig
}

type ServerConfig struct {
	Port          string
	Host          string
	ReadTimeout   int
	WriteTimeout  int
	IdleTimeout   int
	UploadDir     string
	PublicBaseURL string
	CORSOrigins   []string
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // hours
	RefreshTokenTTL int // hours
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	Enabled  bool
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// BusinessConfig holds the pricing rules applied to orders.
type BusinessConfig struct {
	DeliveryFee         decimal.Decimal
	MinDownPaymentRatio decimal.Decimal
	PickupLeadDays      int
	OnlineWindowMinutes int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

// AdminConfig is the superuser seeded on first start.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

const (
	placeholderJWTSecret     = "your-secret-key-change-in-production"
	placeholderAdminPassword = "password123"
)

// Load reads the configuration from the environment, after merging a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Environment: env.str("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:          env.str("SERVER_PORT", "8080"),
			Host:          env.str("SERVER_HOST", "localhost"),
			ReadTimeout:   env.int("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:  env.int("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:   env.int("SERVER_IDLE_TIMEOUT", 60),
			UploadDir:     env.str("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: env.str("PUBLIC_BASE_URL", "http://localhost:8080"),
			CORSOrigins:   env.list("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:       env.str("DB_DRIVER", "postgres"),
			Host:         env.str("DB_HOST", "localhost"),
			Port:         env.str("DB_PORT", "5432"),
			User:         env.str("DB_USER", "postgres"),
			Password:     env.str("DB_PASSWORD", ""),
			Database:     env.str("DB_NAME", "pigmarket"),
			SSLMode:      env.str("DB_SSL_MODE", "disable"),
			SQLitePath:   env.str("DB_SQLITE_PATH", "pigmarket.db"),
			MaxOpenConns: env.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: env.int("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  env.int("DB_MAX_LIFETIME", 300),
			LogLevel:     env.str("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:       env.str("JWT_SECRET", placeholderJWTSecret),
			AccessTokenTTL:  env.int("JWT_ACCESS_TTL", 24),
			RefreshTokenTTL: env.int("JWT_REFRESH_TTL", 24*7),
		},
		Redis: RedisConfig{
			Host:     env.str("REDIS_HOST", "localhost"),
			Port:     env.str("REDIS_PORT", "6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.int("REDIS_DB", 0),
			PoolSize: env.int("REDIS_POOL_SIZE", 10),
			Enabled:  env.bool("REDIS_ENABLED", false),
		},
		AWS: AWSConfig{
			Region:          env.str("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     env.str("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.str("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        env.str("AWS_S3_BUCKET", "pigmarket-uploads"),
			CloudFrontURL:   env.str("AWS_CLOUDFRONT_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      env.str("RABBITMQ_URL", ""),
			Exchange: env.str("RABBITMQ_EXCHANGE", "pigmarket.orders"),
		},
		Business: BusinessConfig{
			DeliveryFee:         env.decimal("DELIVERY_FEE", decimal.NewFromInt(125)),
			MinDownPaymentRatio: env.decimal("MIN_DOWN_PAYMENT_RATIO", decimal.RequireFromString("0.5")),
			PickupLeadDays:      env.int("PICKUP_LEAD_DAYS", 2),
			OnlineWindowMinutes: env.int("ONLINE_WINDOW_MINUTES", 5),
		},
		Email: EmailConfig{
			SMTPHost:     env.str("SMTP_HOST", ""),
			SMTPPort:     env.str("SMTP_PORT", "587"),
			SMTPUsername: env.str("SMTP_USERNAME", ""),
			SMTPPassword: env.str("SMTP_PASSWORD", ""),
			FromEmail:    env.str("FROM_EMAIL", "noreply@pigmarket.ph"),
			FromName:     env.str("FROM_NAME", "Pig Market"),
		},
		I18n: I18nConfig{
			DefaultLocale: env.str("DEFAULT_LOCALE", "en"),
			LocalesPath:   env.str("LOCALES_PATH", "./internal/i18n/locales"),
		},
		Admin: AdminConfig{
			Username: env.str("ADMIN_USERNAME", "admin"),
			Email:    env.str("ADMIN_EMAIL", "admin@example.com"),
			Password: env.str("ADMIN_PASSWORD", placeholderAdminPassword),
		},
	}

	if err := env.err(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with. Placeholder secrets
// are only refused in production.
func (c *Config) Validate() error {
	production := c.Environment == "production"
	switch {
	case c.Database.Driver != "postgres" && c.Database.Driver != "sqlite":
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	case production && c.JWT.SecretKey == placeholderJWTSecret:
		return fmt.Errorf("JWT secret key must be changed in production")
	case production && c.Database.Driver == "postgres" && c.Database.Password == "":
		return fmt.Errorf("database password is required in production")
	case production && c.Admin.Password == placeholderAdminPassword:
		return fmt.Errorf("admin password must be changed in production")
	case !c.Business.MinDownPaymentRatio.IsPositive() || c.Business.MinDownPaymentRatio.GreaterThan(decimal.NewFromInt(1)):
		return fmt.Errorf("minimum down payment ratio must be in (0, 1]")
	case c.Business.DeliveryFee.IsNegative():
		return fmt.Errorf("delivery fee cannot be negative")
	case c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0:
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}
