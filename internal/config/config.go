package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hcal/internal/blob"
	"hcal/internal/model"
)

var errEmptyPath = errors.New("config: path is empty")

// Storage drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverS3       = "s3"
	DriverPostgres = "postgres"
)

// S3Config locates the bucket used by the s3 driver.
type S3Config struct {
	Bucket   string `yaml:"bucket" json:"bucket"`
	Region   string `yaml:"region" json:"region"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// PostgresConfig is used by the postgres driver.
type PostgresConfig struct {
	URL string `yaml:"url" json:"url"`
}

// StorageConfig selects the blob medium for the event collection.
type StorageConfig struct {
	// Driver is one of file, memory, s3, postgres.
	Driver string `yaml:"driver" json:"driver"`

	// Key is the namespace key the collection is stored under.
	Key string `yaml:"key" json:"key"`

	// Dir is the file driver's directory.
	Dir string `yaml:"dir" json:"dir"`

	S3       S3Config       `yaml:"s3" json:"s3"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
}

// BackupConfig schedules ICS snapshots of the collection.
type BackupConfig struct {
	// Cron is a 5-field schedule (e.g. "0 3 * * *"); empty disables backups.
	Cron string `yaml:"cron" json:"cron"`
	// Path is the .ics file each run overwrites.
	Path string `yaml:"path" json:"path"`
}

// LogConfig controls internal/log.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone whose wall clock defines "today".
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekSlots are the week view's time rows.
	WeekSlots []string `yaml:"week_slots" json:"week_slots"`

	Storage StorageConfig `yaml:"storage" json:"storage"`

	// NATSURL enables change notifications when set.
	NATSURL string `yaml:"nats_url,omitempty" json:"nats_url,omitempty"`

	Backup BackupConfig `yaml:"backup" json:"backup"`
	Log    LogConfig    `yaml:"log" json:"log"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultTimezone = "Asia/Seoul"
	defaultKey      = "hyeonse-calendar-events-v1"
	defaultDir      = "./var/hcal"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    defaultListen,
		Timezone:  defaultTimezone,
		WeekSlots: append([]string(nil), model.DefaultWeekSlots...),
		Storage: StorageConfig{
			Driver: DriverFile,
			Key:    defaultKey,
			Dir:    defaultDir,
			S3:     S3Config{Region: "us-east-1", Prefix: "hcal/"},
		},
		Backup: BackupConfig{},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}

	slots := make([]string, 0, len(c.WeekSlots))
	for _, s := range c.WeekSlots {
		if s = strings.TrimSpace(s); s != "" {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		slots = append(slots, model.DefaultWeekSlots...)
	}
	c.WeekSlots = slots

	switch c.Storage.Driver {
	case DriverFile, DriverMemory, DriverS3, DriverPostgres:
	default:
		// Unknown or empty; the file driver never loses data silently.
		c.Storage.Driver = DriverFile
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaultKey
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = defaultDir
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "us-east-1"
	}

	if c.Backup.Cron != "" && c.Backup.Path == "" {
		c.Backup.Path = filepath.Join(c.Storage.Dir, "backup.ics")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// Load reads the YAML config at path and fills in defaults. A missing file is
// seeded with DefaultConfig; the defaults are returned together with any
// error from writing them.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errEmptyPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg := DefaultConfig()
		return cfg, Save(path, cfg)
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save normalizes cfg and writes it to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errEmptyPath
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return blob.WriteFileAtomic(path, data)
}
