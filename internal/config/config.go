package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	env "github.com/Dhia7/weary-sub000/pkg/config"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret       []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookies   bool

	CORSOrigins []string
	CSRFEnabled bool

	UploadDir      string
	MaxUploadBytes int64

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr       string
	RedisPassword   string
	RateLimitMax    int
	RateLimitWindow time.Duration

	MaxLoginAttempts int
	LockDuration     time.Duration

	FreeShippingThreshold decimal.Decimal
	ShippingFlatRate      decimal.Decimal
	LowStockThreshold     int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: cannot read .env, using process environment", "error", err)
	}

	cfg := &Config{
		ServiceName: env.EnvDefault("SERVICE_NAME", "weary-api"),
		ServerPort:  env.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    env.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:       []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret:   []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTokenTTL:  env.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: env.EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		SecureCookies:   env.EnvBoolDefault("SECURE_COOKIES", true),

		CORSOrigins: env.CSV(env.EnvDefault("CORS_ORIGINS", "http://localhost:3000")),
		CSRFEnabled: env.EnvBoolDefault("CSRF_ENABLED", false),

		UploadDir:      env.EnvDefault("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: env.EnvInt64Default("MAX_UPLOAD_BYTES", 5<<20),

		KafkaBrokers: env.CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    env.EnvDefault("ES_INDEX", "products"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RateLimitMax:    env.EnvIntDefault("RATE_LIMIT_MAX", 20),
		RateLimitWindow: env.EnvDurationDefault("RATE_LIMIT_WINDOW", time.Minute),

		MaxLoginAttempts: env.EnvIntDefault("MAX_LOGIN_ATTEMPTS", 5),
		LockDuration:     env.EnvDurationDefault("LOCK_DURATION", 15*time.Minute),

		FreeShippingThreshold: decimal.NewFromFloat(env.EnvFloatDefault("FREE_SHIPPING_THRESHOLD", 100)),
		ShippingFlatRate:      decimal.NewFromFloat(env.EnvFloatDefault("SHIPPING_FLAT_RATE", 10)),
		LowStockThreshold:     env.EnvIntDefault("LOW_STOCK_THRESHOLD", 5),
	}

	var missing []string
	missing = env.MustNonEmpty(missing, cfg.DatabaseURL, "DATABASE_URL")
	missing = env.MustNonEmpty(missing, string(cfg.JWTSecret), "JWT_SECRET")
	missing = env.MustNonEmpty(missing, string(cfg.RefreshSecret), "JWT_REFRESH_SECRET")
	if err := env.MissingError(missing); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWorker is the subset the background worker needs.
func LoadWorker() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: cannot read .env, using process environment", "error", err)
	}

	cfg := &Config{
		ServiceName:   env.EnvDefault("SERVICE_NAME", "weary-worker"),
		LogLevel:      env.EnvDefault("LOG_LEVEL", "info"),
		ESURL:         os.Getenv("ES_URL"),
		ESUser:        os.Getenv("ES_USER"),
		ESPassword:    os.Getenv("ES_PASSWORD"),
		ESIndex:       env.EnvDefault("ES_INDEX", "products"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	var missing []string
	missing = env.MustNonEmpty(missing, cfg.RedisAddr, "REDIS_ADDR")
	missing = env.MustNonEmpty(missing, cfg.ESURL, "ES_URL")
	if err := env.MissingError(missing); err != nil {
		return nil, err
	}
	return cfg, nil
}
