package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv             string
	LogLevel           string
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret              string
	JWTIssuer              string
	JWTValidDuration       time.Duration
	JWTRefreshableDuration time.Duration
	VerificationCodeTTL    time.Duration
	ResetCodeTTL           time.Duration
	FrontendURL            string
	PublicBaseURL          string
	GoogleClientID         string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	PresignTTL     time.Duration

	MaxUploadSize    int64
	AllowedMIMETypes []string
	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
	TrustedProxies   []string
	AuditQueueSize   int
	CleanupInterval  time.Duration

	DefaultAdminUsername string
	DefaultAdminEmail    string
	DefaultAdminPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:             strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		JWTSecret:              strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:              getEnv("JWT_ISSUER", "codeverest.io.vn"),
		JWTValidDuration:       getDuration("JWT_VALID_DURATION", time.Hour),
		JWTRefreshableDuration: getDuration("JWT_REFRESHABLE_DURATION", 10*time.Hour),
		VerificationCodeTTL:    getDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		ResetCodeTTL:           getDuration("RESET_CODE_TTL", 10*time.Minute),
		FrontendURL:            strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		PublicBaseURL:          strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		GoogleClientID:         strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),

		SMTPHost:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@arkive.local"),

		S3Endpoint:     strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3AccessKey:    strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:    strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		S3UsePathStyle: getBool("S3_USE_PATH_STYLE", true),
		PresignTTL:     getDuration("S3_PRESIGN_TTL", 15*time.Minute),

		MaxUploadSize:    getInt64("UPLOAD_MAX_SIZE", 104857600),
		AllowedMIMETypes: splitCSV(strings.TrimSpace(os.Getenv("ALLOWED_MIME_TYPES"))),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),
		TrustedProxies:   splitCSV(os.Getenv("TRUSTED_PROXIES")),
		AuditQueueSize:   getInt("AUDIT_QUEUE_SIZE", 1024),
		CleanupInterval:  getDuration("CLEANUP_INTERVAL", time.Hour),

		DefaultAdminUsername: strings.TrimSpace(os.Getenv("DEFAULT_ADMIN_USERNAME")),
		DefaultAdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("DEFAULT_ADMIN_EMAIL"))),
		DefaultAdminPassword: os.Getenv("DEFAULT_ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// SMTPEnabled reports whether outbound mail goes through SMTP; otherwise mail is logged.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) Validate() error {
	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction && c.AppEnv != "test" {
		return fmt.Errorf("APP_ENV must be one of development, production, test")
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS and DB_MAX_CONNS must satisfy 0 <= min <= max, max > 0")
	}

	if c.JWTValidDuration <= 0 || c.JWTRefreshableDuration <= 0 {
		return fmt.Errorf("JWT_VALID_DURATION and JWT_REFRESHABLE_DURATION must be positive")
	}

	if c.JWTRefreshableDuration < c.JWTValidDuration {
		return fmt.Errorf("JWT_REFRESHABLE_DURATION must not be shorter than JWT_VALID_DURATION")
	}

	if c.VerificationCodeTTL <= 0 || c.ResetCodeTTL <= 0 {
		return fmt.Errorf("VERIFICATION_CODE_TTL and RESET_CODE_TTL must be positive")
	}

	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}

	if c.PresignTTL <= 0 {
		return fmt.Errorf("S3_PRESIGN_TTL must be positive")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.AuditQueueSize <= 0 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE must be positive")
	}

	if c.CleanupInterval < 0 {
		return fmt.Errorf("CLEANUP_INTERVAL cannot be negative")
	}

	if c.IsProduction() && !c.SMTPEnabled() {
		return fmt.Errorf("SMTP_HOST is required in production")
	}

	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP address or CIDR", proxy)
		}
	}

	if c.DefaultAdminUsername != "" && (c.DefaultAdminEmail == "" || c.DefaultAdminPassword == "") {
		return fmt.Errorf("DEFAULT_ADMIN_EMAIL and DEFAULT_ADMIN_PASSWORD are required with DEFAULT_ADMIN_USERNAME")
	}

	return nil
}

func validProxy(entry string) bool {
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
