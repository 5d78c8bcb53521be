package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// EnableExclusionConstraint applies a postgres btree_gist exclusion
	// constraint over (car_id, slot interval) so a second server process
	// cannot double-book a car even without the in-process locks.
	EnableExclusionConstraint bool `yaml:"enable_exclusion_constraint"`
}

// BookingConfig tunes the booking engine.
type BookingConfig struct {
	GraceMinutes    int           `yaml:"grace_minutes"`     // how stale a start date may be
	LockWaitMillis  int           `yaml:"lock_wait_millis"`  // bounded wait for a car lock
	HoldMinutes     int           `yaml:"hold_minutes"`      // PENDING booking hold before expiry
	SweepCronSpec   string        `yaml:"sweep_cron_spec"`   // cron/v3 spec for the expiry sweeper
	Grace           time.Duration `yaml:"-"`
	LockWait        time.Duration `yaml:"-"`
	Hold            time.Duration `yaml:"-"`
}

// AuthConfig holds staff endpoint authentication settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 9001
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Booking.GraceMinutes <= 0 {
		cfg.Booking.GraceMinutes = 60
	}
	if cfg.Booking.LockWaitMillis <= 0 {
		cfg.Booking.LockWaitMillis = 500
	}
	if cfg.Booking.HoldMinutes <= 0 {
		cfg.Booking.HoldMinutes = 30
	}
	if cfg.Booking.SweepCronSpec == "" {
		cfg.Booking.SweepCronSpec = "@every 5m"
	}
	cfg.Booking.Grace = time.Duration(cfg.Booking.GraceMinutes) * time.Minute
	cfg.Booking.LockWait = time.Duration(cfg.Booking.LockWaitMillis) * time.Millisecond
	cfg.Booking.Hold = time.Duration(cfg.Booking.HoldMinutes) * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
