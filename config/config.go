package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Redis             RedisConfig
	Storage           StorageConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	MercadoPago       MercadoPagoConfig
	Email             EmailConfig
	Donations         DonationsConfig
	AdminAuth         AdminAuthConfig
	RateLimit         RateLimitConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName      string
	CORSAllowOrigins []string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type MercadoPagoConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

type EmailConfig struct {
	BaseURL     string
	From        string
	Subject     string
	HTTPTimeout time.Duration
}

type DonationsConfig struct {
	DefaultDescription string
	MaxAmount          string
	RefreshConcurrency int
	BackfillLookback   time.Duration
	JobBatchSize       int32
}

type AdminAuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type RateLimitConfig struct {
	CreatePerMinute int
	CreatePer10Sec  int
}

type JobsConfig struct {
	RefreshInterval  time.Duration
	BackfillInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}
	mysqlDSN, err := normalizeMySQLDSN(mysqlDSN)
	if err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			ServiceName:      getEnv("APP_SERVICE_NAME", "donations-service"),
			CORSAllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			UseSSL:     getBoolEnv("S3_USE_SSL", true),
			Bucket:     getEnv("S3_BUCKET", "donation-qr-codes"),
			PresignTTL: getMinutesEnv("S3_PRESIGN_TTL_MINUTES", 7*24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:     getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
			HTTPTimeout: getSecondsEnv("MERCADOPAGO_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Email: EmailConfig{
			BaseURL:     getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			From:        getEnv("EMAIL_FROM", "Setor 7 <onboarding@resend.dev>"),
			Subject:     getEnv("EMAIL_SUBJECT", "Detalhes da sua doação - Setor 7"),
			HTTPTimeout: getSecondsEnv("RESEND_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Donations: DonationsConfig{
			DefaultDescription: getEnv("DONATIONS_DEFAULT_DESCRIPTION", "Doação Setor 7 Hardcore PVE"),
			MaxAmount:          getEnv("DONATIONS_MAX_AMOUNT", "100000.00"),
			RefreshConcurrency: getIntEnv("DONATIONS_REFRESH_CONCURRENCY", 4),
			BackfillLookback:   getHoursEnv("DONATIONS_BACKFILL_LOOKBACK_HOURS", 24*time.Hour),
			JobBatchSize:       int32(getIntEnv("DONATIONS_JOB_BATCH_SIZE", 200)),
		},
		AdminAuth: AdminAuthConfig{
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
			TokenTTL:  getMinutesEnv("ADMIN_TOKEN_TTL_MINUTES", 12*time.Hour),
		},
		RateLimit: RateLimitConfig{
			CreatePerMinute: getIntEnv("RATE_LIMIT_CREATE_PER_MINUTE", 5),
			CreatePer10Sec:  getIntEnv("RATE_LIMIT_CREATE_PER_10_SECONDS", 2),
		},
		Jobs: JobsConfig{
			RefreshInterval:  getMinutesEnv("DONATIONS_REFRESH_INTERVAL_MINUTES", 2*time.Minute),
			BackfillInterval: getMinutesEnv("DONATIONS_BACKFILL_INTERVAL_MINUTES", 30*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	items := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getHoursEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if hours, err := strconv.Atoi(value); err == nil {
			return time.Duration(hours) * time.Hour
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// normalizeMySQLDSN forces parseTime and clientFoundRows. Repositories treat zero affected rows as
// not found, so an UPDATE that rewrites identical values must still count the matched row.
func normalizeMySQLDSN(dsn string) (string, error) {
	parsed, err := mysqlDriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	parsed.ParseTime = true
	parsed.ClientFoundRows = true
	return parsed.FormatDSN(), nil
}
