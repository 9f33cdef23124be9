package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Activity ActivityConfig
	Login    LoginConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	Admin    AdminBootstrapConfig
	LogLevel string
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	SecureCookies  bool
	RequestTimeout time.Duration
	BodyLimit      string
	RateLimit      float64
}

type DatabaseConfig struct {
	Driver          string // postgres, mysql, sqlite
	URL             string `json:"-"`
	ConnectTimeout  time.Duration
	QueryTimeout    time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Debug           bool
}

// SessionConfig configures the signed session artifact. Exactly one of Secret
// or PrivateKey is needed; PrivateKey (base64 PEM) selects RS256.
type SessionConfig struct {
	Secret     string `json:"-"`
	PrivateKey string `json:"-"`
	TTL        time.Duration
	CookieName string
	Issuer     string
	BcryptCost int
}

type ActivityConfig struct {
	IdleTimeout time.Duration
	WarnBefore  time.Duration
}

type LoginConfig struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	AttemptWindow     time.Duration
	IPRateLimit       float64
	IPBurst           int
}

type StorageConfig struct {
	Provider      string // s3, r2
	S3            S3Config
	Timeout       time.Duration
	MaxAttempts   int
	MaxBytes      int64
	ImageMaxWidth int
}

type S3Config struct {
	BucketName    string
	Endpoint      string
	Region        string
	AccessKey     string `json:"-"`
	SecretKey     string `json:"-"`
	PublicBaseURL string
	UsePathStyle  bool
}

type RedisConfig struct {
	Addr     string
	Password string `json:"-"`
	Username string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type WorkerConfig struct {
	Concurrency    int
	SweepSchedule  string
	MaxRetryPasses int
}

// AdminBootstrapConfig seeds the first admin principal at startup.
type AdminBootstrapConfig struct {
	Email    string
	Password string `json:"-"`
	Name     string
}

// Errors returned by Validate. Each is fatal at startup.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingSigningKey  = errors.New("JWT_SECRET or SESSION_PRIVATE_KEY is required")
	ErrWeakSigningSecret  = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrMissingStorage     = errors.New("S3_BUCKET_NAME, S3_ACCESS_KEY and S3_SECRET_KEY are required")
)

const minSecretLength = 32

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			SecureCookies:  getEnvAsBool("SECURE_COOKIES", true),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			BodyLimit:      getEnv("BODY_LIMIT", "12M"),
			RateLimit:      getEnvAsFloat("RATE_LIMIT", 20),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			URL:             getEnv("DATABASE_URL", ""),
			ConnectTimeout:  getEnvAsDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", 10*time.Second),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			Debug:           getEnvAsBool("DB_DEBUG", false),
		},
		Session: SessionConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			PrivateKey: getEnv("SESSION_PRIVATE_KEY", ""),
			TTL:        getEnvAsDuration("SESSION_TTL", time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "ruralsite_session"),
			Issuer:     getEnv("SESSION_ISSUER", "ruralsite"),
			BcryptCost: getEnvAsInt("BCRYPT_COST", 0),
		},
		Activity: ActivityConfig{
			IdleTimeout: getEnvAsDuration("ADMIN_IDLE_TIMEOUT", 15*time.Minute),
			WarnBefore:  getEnvAsDuration("ADMIN_IDLE_WARN_BEFORE", 2*time.Minute),
		},
		Login: LoginConfig{
			MaxFailedAttempts: getEnvAsInt("LOGIN_MAX_FAILED_ATTEMPTS", 5),
			LockoutDuration:   getEnvAsDuration("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
			AttemptWindow:     getEnvAsDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),
			IPRateLimit:       getEnvAsFloat("LOGIN_IP_RATE_LIMIT", 0.5),
			IPBurst:           getEnvAsInt("LOGIN_IP_BURST", 5),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "s3"),
			S3: S3Config{
				BucketName:    getEnv("S3_BUCKET_NAME", ""),
				Endpoint:      getEnv("S3_ENDPOINT", ""),
				Region:        getEnv("S3_REGION", "us-east-1"),
				AccessKey:     getEnv("S3_ACCESS_KEY", ""),
				SecretKey:     getEnv("S3_SECRET_KEY", ""),
				PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
				UsePathStyle:  getEnvAsBool("S3_USE_PATH_STYLE", false),
			},
			Timeout:       getEnvAsDuration("ASSET_TIMEOUT", 30*time.Second),
			MaxAttempts:   getEnvAsInt("ASSET_MAX_ATTEMPTS", 3),
			MaxBytes:      int64(getEnvAsInt("ASSET_MAX_BYTES", 10<<20)),
			ImageMaxWidth: getEnvAsInt("IMAGE_MAX_WIDTH", 1920),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Worker: WorkerConfig{
			Concurrency:    getEnvAsInt("WORKER_CONCURRENCY", 2),
			SweepSchedule:  getEnv("STRANDED_SWEEP_SCHEDULE", "@every 1h"),
			MaxRetryPasses: getEnvAsInt("STRANDED_MAX_ATTEMPTS", 10),
		},
		Admin: AdminBootstrapConfig{
			Email:    getEnv("SUPERADMIN_EMAIL", ""),
			Password: getEnv("SUPERADMIN_PASSWORD", ""),
			Name:     getEnv("SUPERADMIN_NAME", "Administrator"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the process cannot run without. There is no
// fallback signing secret.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.Session.PrivateKey == "" {
		if c.Session.Secret == "" {
			return ErrMissingSigningKey
		}
		if len(c.Session.Secret) < minSecretLength {
			return ErrWeakSigningSecret
		}
	}
	if c.Storage.S3.BucketName == "" || c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
		return ErrMissingStorage
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// Addr is the listen address of the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
