// Package config loads service settings from the environment, with an
// optional TOML file whose explicit values take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	BusHost string // LOOKOUT_BUS_HOST (default "localhost")
	BusPort int    // LOOKOUT_BUS_PORT (default 4222)
	BusUser string // LOOKOUT_BUS_USER (optional)
	BusPass string // LOOKOUT_BUS_PASS (optional)

	DatabaseURL string // LOOKOUT_DATABASE_URL (required by serve)
	HTTPAddr    string // LOOKOUT_HTTP_ADDR (default ":8080")

	DisplayTimeZone string        // LOOKOUT_DISPLAY_TZ (default "America/Chicago")
	BufferMax       int           // LOOKOUT_BUFFER_MAX (default 1000 per kind)
	BufferRetention time.Duration // LOOKOUT_BUFFER_RETENTION (default 24h)

	// Archive export settings
	ExportInterval   time.Duration // LOOKOUT_EXPORT_INTERVAL (default 1h; 0 = disabled)
	ExportS3Bucket   string        // LOOKOUT_EXPORT_S3_BUCKET (enables export when set)
	ExportS3Endpoint string        // LOOKOUT_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // LOOKOUT_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Prefix   string        // LOOKOUT_EXPORT_S3_PREFIX (default "lookout")
}

// fileConfig is the TOML file shape. Pointer fields distinguish keys the
// file sets explicitly from keys it omits.
type fileConfig struct {
	BusHost *string `toml:"bus_host"`
	BusPort *int    `toml:"bus_port"`
	BusUser *string `toml:"bus_user"`
	BusPass *string `toml:"bus_pass"`

	DatabaseURL *string `toml:"database_url"`
	HTTPAddr    *string `toml:"http_addr"`

	DisplayTimeZone *string `toml:"display_tz"`
	BufferMax       *int    `toml:"buffer_max"`
}

// Load builds the configuration from environment defaults, then overlays
// the TOML file at path when path is non-empty. Explicit file values win
// over the environment.
func Load(path string) (*Config, error) {
	c := &Config{
		BusHost:          envOrDefault("LOOKOUT_BUS_HOST", "localhost"),
		BusUser:          os.Getenv("LOOKOUT_BUS_USER"),
		BusPass:          os.Getenv("LOOKOUT_BUS_PASS"),
		DatabaseURL:      os.Getenv("LOOKOUT_DATABASE_URL"),
		HTTPAddr:         envOrDefault("LOOKOUT_HTTP_ADDR", ":8080"),
		DisplayTimeZone:  envOrDefault("LOOKOUT_DISPLAY_TZ", "America/Chicago"),
		ExportS3Bucket:   os.Getenv("LOOKOUT_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("LOOKOUT_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("LOOKOUT_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Prefix:   envOrDefault("LOOKOUT_EXPORT_S3_PREFIX", "lookout"),
	}

	var err error
	if c.BusPort, err = envInt("LOOKOUT_BUS_PORT", 4222); err != nil {
		return nil, err
	}
	if c.BufferMax, err = envInt("LOOKOUT_BUFFER_MAX", 1000); err != nil {
		return nil, err
	}
	if c.BufferRetention, err = envDuration("LOOKOUT_BUFFER_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = envDuration("LOOKOUT_EXPORT_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	if path != "" {
		if err := applyFile(c, path); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func applyFile(c *Config, path string) error {
	var f fileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if f.BusHost != nil {
		c.BusHost = *f.BusHost
	}
	if f.BusPort != nil {
		c.BusPort = *f.BusPort
	}
	if f.BusUser != nil {
		c.BusUser = *f.BusUser
	}
	if f.BusPass != nil {
		c.BusPass = *f.BusPass
	}
	if f.DatabaseURL != nil {
		c.DatabaseURL = *f.DatabaseURL
	}
	if f.HTTPAddr != nil {
		c.HTTPAddr = *f.HTTPAddr
	}
	if f.DisplayTimeZone != nil {
		c.DisplayTimeZone = *f.DisplayTimeZone
	}
	if f.BufferMax != nil {
		c.BufferMax = *f.BufferMax
	}
	return nil
}

// BusURL is the broker address in URL form.
func (c *Config) BusURL() string {
	return fmt.Sprintf("nats://%s:%d", c.BusHost, c.BusPort)
}

// Location resolves the configured display time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimeZone)
	if err != nil {
		return nil, fmt.Errorf("LOOKOUT_DISPLAY_TZ: %w", err)
	}
	return loc, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
