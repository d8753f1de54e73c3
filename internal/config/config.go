package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env         string
	Port        string
	FrontendURL string
	BackendURL  string

	DB      DBConfig
	Redis   RedisConfig
	Scylla  ScyllaConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	SMTP    SMTPConfig
	Stripe  StripeConfig
	Auth    AuthConfig
	OAuth   OAuthConfig

	Redemption RedemptionConfig
	SalesTaxRate string
}

type DBConfig struct {
	Driver string // "sqlite" or "mysql"
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ScyllaConfig struct {
	Hosts      []string
	Keyspace   string
	Username   string
	Password   string
	SSLEnabled bool
	CACertPath string
}

type ElasticConfig struct {
	URL      string
	Username string
	Password string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PassPriceID   string
	Currency      string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	SessionSecret string
}

type OAuthConfig struct {
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
}

type RedemptionConfig struct {
	CodeTTL    time.Duration
	UndoWindow time.Duration
	TimeZone   string
	CacheTTL   time.Duration
	// VerifyAttempts per vendor per VerifyWindow.
	VerifyAttempts int
	VerifyWindow   time.Duration
}

// Load reads .env when present and builds the configuration from the
// process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Msg("⚠️  No .env file found, using system environment variables")
	} else {
		log.Info().Msg("✅ .env file loaded")
	}

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "rise_local.db"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Scylla: ScyllaConfig{
			Hosts:      splitList(os.Getenv("SCYLLA_HOSTS")),
			Keyspace:   getEnv("SCYLLA_KEYSPACE", "rise_local"),
			Username:   os.Getenv("SCYLLA_USERNAME"),
			Password:   os.Getenv("SCYLLA_PASSWORD"),
			SSLEnabled: getBool("SCYLLA_SSL_ENABLED", false),
			CACertPath: os.Getenv("SCYLLA_SSL_CA_PATH"),
		},
		Elastic: ElasticConfig{
			URL:      os.Getenv("ELASTIC_URL"),
			Username: os.Getenv("ELASTIC_USER"),
			Password: os.Getenv("ELASTIC_PASSWORD"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "rise-local"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "Rise Local <hello@riselocal.app>"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PassPriceID:   os.Getenv("STRIPE_PASS_PRICE_ID"),
			Currency:      getEnv("STRIPE_CURRENCY", "usd"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:      getDuration("JWT_TTL", 72*time.Hour),
			SessionSecret: getEnv("SESSION_SECRET", "dev-session-secret"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
			FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
			FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),
		},
		Redemption: RedemptionConfig{
			CodeTTL:        getDuration("CODE_TTL", 10*time.Minute),
			UndoWindow:     getDuration("UNDO_WINDOW", 15*time.Minute),
			TimeZone:       getEnv("REDEMPTION_TZ", "UTC"),
			CacheTTL:       getDuration("ELIGIBILITY_CACHE_TTL", 30*time.Second),
			VerifyAttempts: getInt("VERIFY_RATE_LIMIT", 10),
			VerifyWindow:   getDuration("VERIFY_RATE_WINDOW", time.Minute),
		},
		SalesTaxRate: getEnv("SALES_TAX_RATE", "0.0825"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location falls back to UTC when REDEMPTION_TZ is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Redemption.TimeZone)
	if err != nil {
		log.Warn().Err(err).Str("tz", c.Redemption.TimeZone).Msg("⚠️ Unknown time zone, using UTC")
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("⚠️ Invalid integer, using default")
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("⚠️ Invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
