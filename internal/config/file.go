package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape. Durations are strings ("24h", "15m") and
// zero values leave the current setting alone.
type fileConfig struct {
	Env      string `toml:"env" yaml:"env"`
	HTTPPort string `toml:"http_port" yaml:"http_port"`
	Migrate  *bool  `toml:"migrate" yaml:"migrate"`

	Database struct {
		Driver string `toml:"driver" yaml:"driver"`
		URL    string `toml:"url" yaml:"url"`
	} `toml:"database" yaml:"database"`

	Session struct {
		DBPath       string `toml:"db_path" yaml:"db_path"`
		JWTSecret    string `toml:"jwt_secret" yaml:"jwt_secret"`
		JWTIssuer    string `toml:"jwt_issuer" yaml:"jwt_issuer"`
		TTL          string `toml:"ttl" yaml:"ttl"`
		CookieName   string `toml:"cookie_name" yaml:"cookie_name"`
		CookieSecure *bool  `toml:"cookie_secure" yaml:"cookie_secure"`
	} `toml:"session" yaml:"session"`

	Images struct {
		Backend        string `toml:"backend" yaml:"backend"`
		Dir            string `toml:"dir" yaml:"dir"`
		URLPrefix      string `toml:"url_prefix" yaml:"url_prefix"`
		MaxUploadBytes int64  `toml:"max_upload_bytes" yaml:"max_upload_bytes"`
		S3Bucket       string `toml:"s3_bucket" yaml:"s3_bucket"`
		S3Region       string `toml:"s3_region" yaml:"s3_region"`
		S3BaseEndpoint string `toml:"s3_base_endpoint" yaml:"s3_base_endpoint"`
		S3AccessKey    string `toml:"s3_access_key" yaml:"s3_access_key"`
		S3SecretKey    string `toml:"s3_secret_key" yaml:"s3_secret_key"`
		S3URLTTL       string `toml:"s3_url_ttl" yaml:"s3_url_ttl"`
	} `toml:"images" yaml:"images"`

	Search struct {
		DefaultLimit int `toml:"default_limit" yaml:"default_limit"`
		MaxLimit     int `toml:"max_limit" yaml:"max_limit"`
	} `toml:"search" yaml:"search"`

	Workers     int      `toml:"workers" yaml:"workers"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

// LoadFile overlays a TOML or YAML file (picked by extension) onto cfg.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &fc)
	default:
		return fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc fileConfig) apply(c *Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Env, fc.Env)
	set(&c.HTTPPort, fc.HTTPPort)
	if fc.Migrate != nil {
		c.Migrate = *fc.Migrate
	}

	set(&c.DBDriver, fc.Database.Driver)
	set(&c.DatabaseURL, fc.Database.URL)

	set(&c.SessionDBPath, fc.Session.DBPath)
	set(&c.JWTSecret, fc.Session.JWTSecret)
	set(&c.JWTIssuer, fc.Session.JWTIssuer)
	set(&c.CookieName, fc.Session.CookieName)
	if fc.Session.CookieSecure != nil {
		c.CookieSecure = *fc.Session.CookieSecure
	}

	set(&c.ImageBackend, fc.Images.Backend)
	set(&c.UploadsDir, fc.Images.Dir)
	set(&c.UploadsURLPrefix, fc.Images.URLPrefix)
	set(&c.S3Bucket, fc.Images.S3Bucket)
	set(&c.S3Region, fc.Images.S3Region)
	set(&c.S3BaseEndpoint, fc.Images.S3BaseEndpoint)
	set(&c.S3AccessKey, fc.Images.S3AccessKey)
	set(&c.S3SecretKey, fc.Images.S3SecretKey)
	if fc.Images.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.Images.MaxUploadBytes
	}

	if fc.Search.DefaultLimit > 0 {
		c.SearchDefaultLimit = fc.Search.DefaultLimit
	}
	if fc.Search.MaxLimit > 0 {
		c.SearchMaxLimit = fc.Search.MaxLimit
	}
	if fc.Workers > 0 {
		c.Workers = fc.Workers
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"session.ttl", fc.Session.TTL, &c.SessionTTL},
		{"images.s3_url_ttl", fc.Images.S3URLTTL, &c.S3URLTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}
