package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	Migrate  bool

	DBDriver    string // "sqlite" | "postgres"
	DatabaseURL string

	SessionDBPath string
	JWTSecret     string
	JWTIssuer     string
	SessionTTL    time.Duration
	CookieName    string
	CookieSecure  bool

	ImageBackend     string // "local" | "s3"
	UploadsDir       string
	UploadsURLPrefix string
	MaxUploadBytes   int64

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3URLTTL       time.Duration

	SearchDefaultLimit int
	SearchMaxLimit     int

	Workers     int
	CORSOrigins []string
}

func Defaults() Config {
	return Config{
		Env:                "dev",
		HTTPPort:           "8080",
		Migrate:            true,
		DBDriver:           "sqlite",
		DatabaseURL:        "data/lostfound.db",
		SessionDBPath:      "data/sessions.db",
		JWTSecret:          "changeme-secret",
		JWTIssuer:          "campus-lostfound",
		SessionTTL:         24 * time.Hour,
		CookieName:         "lf_session",
		ImageBackend:       "local",
		UploadsDir:         "data/uploads",
		UploadsURLPrefix:   "/uploads/",
		MaxUploadBytes:     5 << 20,
		S3Bucket:           "lostfound",
		S3Region:           "us-east-1",
		S3URLTTL:           15 * time.Minute,
		SearchDefaultLimit: 50,
		SearchMaxLimit:     100,
		Workers:            2,
		CORSOrigins:        []string{"*"},
	}
}

// Load applies defaults, then the file named by APP_CONFIG, then env vars.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("APP_CONFIG"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.ImageBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("config: unknown IMAGE_BACKEND %q", c.ImageBackend)
	}
	if c.SearchDefaultLimit < 0 || c.SearchMaxLimit <= 0 || c.SearchDefaultLimit > c.SearchMaxLimit {
		return fmt.Errorf("config: search limits out of range (default %d, max %d)", c.SearchDefaultLimit, c.SearchMaxLimit)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.Env == "prod" && c.JWTSecret == Defaults().JWTSecret {
		return fmt.Errorf("config: JWT_SECRET must be set in prod")
	}
	return nil
}

func applyEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &c.Env)
	str("HTTP_PORT", &c.HTTPPort)
	str("DB_DRIVER", &c.DBDriver)
	str("DATABASE_URL", &c.DatabaseURL)
	str("SESSION_DB_PATH", &c.SessionDBPath)
	str("JWT_SECRET", &c.JWTSecret)
	str("JWT_ISSUER", &c.JWTIssuer)
	str("COOKIE_NAME", &c.CookieName)
	str("IMAGE_BACKEND", &c.ImageBackend)
	str("UPLOADS_DIR", &c.UploadsDir)
	str("UPLOADS_URL_PREFIX", &c.UploadsURLPrefix)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	var err error
	if c.Migrate, err = boolEnv("APP_MIGRATE", c.Migrate); err != nil {
		return err
	}
	if c.CookieSecure, err = boolEnv("COOKIE_SECURE", c.CookieSecure); err != nil {
		return err
	}
	if c.SessionTTL, err = durationEnv("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	if c.S3URLTTL, err = durationEnv("S3_URL_TTL", c.S3URLTTL); err != nil {
		return err
	}
	if c.SearchDefaultLimit, err = intEnv("SEARCH_DEFAULT_LIMIT", c.SearchDefaultLimit); err != nil {
		return err
	}
	if c.SearchMaxLimit, err = intEnv("SEARCH_MAX_LIMIT", c.SearchMaxLimit); err != nil {
		return err
	}
	if c.Workers, err = intEnv("WORKERS", c.Workers); err != nil {
		return err
	}
	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes))
	if err != nil {
		return err
	}
	c.MaxUploadBytes = int64(maxUpload)
	return nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
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
