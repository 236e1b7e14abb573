package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Env  string
	Port int

	// persistence
	StoreDriver     string
	CredentialStore string
	MongoURI        string
	MongoDB         string
	DBURL           string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// sessions + password reset
	JWTSecret string
	// EphemeralSecret is set when dev/test had no JWT_SECRET and Load
	// generated one; sessions then die with the process.
	EphemeralSecret bool
	JWTExpires      time.Duration
	ResetTokenTTL   time.Duration
	CookieName      string
	BcryptCost      int
	DashboardURL    string

	CORSOrigins []string

	// outbound mail
	BrevoAPIKey   string
	MailFromEmail string
	MailFromName  string

	// media host
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaPublicURL string
	MediaMaxWidth  int
	MaxUploadBytes int64

	// super admin seed
	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminPhone    string

	OTELEndpoint string

	SweepInterval    time.Duration
	WorkerHealthPort int

	RateWindow       time.Duration
	LoginRateLimit   int
	ForgotRateLimit  int
	BookingRateLimit int
}

// Load reads the process environment, after merging an optional .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	storeDriver := strings.ToLower(getEnv("STORE_DRIVER", DriverMongo))

	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver:     storeDriver,
		CredentialStore: strings.ToLower(getEnv("CREDENTIAL_STORE", storeDriver)),
		MongoURI:        getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:         getEnv("MONGO_DB", "sitehub"),
		DBURL:           buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpires:    getEnvDuration("JWT_EXPIRES", 7*24*time.Hour),
		ResetTokenTTL: getEnvDuration("RESET_TOKEN_TTL", 15*time.Minute),
		CookieName:    getEnv("COOKIE_NAME", "token"),
		BcryptCost:    getEnvInt("BCRYPT_COST", 0),
		DashboardURL:  strings.TrimRight(getEnv("DASHBOARD_URL", "http://localhost:3000"), "/"),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		BrevoAPIKey:   getEnv("BREVO_API_KEY", ""),
		MailFromEmail: getEnv("MAIL_FROM_EMAIL", ""),
		MailFromName:  getEnv("MAIL_FROM_NAME", "Sitehub"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "sitehub-media"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MediaPublicURL: strings.TrimRight(getEnv("MEDIA_PUBLIC_URL", ""), "/"),
		MediaMaxWidth:  getEnvInt("MEDIA_MAX_WIDTH", 1600),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Super Admin"),
		AdminPhone:    getEnv("ADMIN_PHONE", "0000000000"),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", time.Minute),
		WorkerHealthPort: getEnvInt("WORKER_HEALTH_PORT", 8081),

		RateWindow:       getEnvDuration("RATE_WINDOW", time.Minute),
		LoginRateLimit:   getEnvInt("LOGIN_RATE_LIMIT", 10),
		ForgotRateLimit:  getEnvInt("FORGOT_RATE_LIMIT", 5),
		BookingRateLimit: getEnvInt("BOOKING_RATE_LIMIT", 5),
	}

	if cfg.JWTSecret == "" && cfg.IsDevLike() {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.JWTSecret = secret
		cfg.EphemeralSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExpires <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES must be positive"))
	}
	if c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_TTL must be positive"))
	}

	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.CredentialStore {
	case DriverMongo, DriverMemory, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown CREDENTIAL_STORE %q", c.CredentialStore))
	}

	return errors.Join(errs...)
}

func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "test"
}

// SecureCookies is false only for local dev over plain http.
func (c Config) SecureCookies() bool {
	return c.Env != "dev"
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "sitehub")
	pass := getEnv("DB_PASSWORD", "sitehub")
	name := getEnv("DB_NAME", "sitehub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a store call made on behalf of parent. A nil parent
// falls back to Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid int env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid bool env, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

// getEnvDuration accepts Go durations ("15m") and a day suffix ("7d").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration env, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
