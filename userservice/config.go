package userservice

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the configuration for the user service application.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:"localhost:8080"`

	// RepoBackend selects the store: "pg" for postgres (default), "mem" for
	// the in-memory repository. The mem backend is refused at runtime unless
	// AllowMemBackend is set; it exists for tests.
	RepoBackend     string `env:"REPO_BACKEND" envDefault:"pg"`
	AllowMemBackend bool   `env:"ALLOW_MEM_BACKEND_FOR_TESTS" envDefault:"false"`

	// DBDSN is the postgres connection string, required for the pg backend.
	DBDSN string `env:"DB_DSN"`

	DBMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	// Cache sizing and the default TTL applied to every aggregate snapshot.
	CacheCapacity           int           `env:"CACHE_CAPACITY" envDefault:"10000"`
	CacheShards             int           `env:"CACHE_SHARDS" envDefault:"64"`
	CacheTTL                time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheEvictionPercentage int           `env:"CACHE_EVICTION_PERCENTAGE" envDefault:"10"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:                "localhost:8080",
		RepoBackend:             "pg",
		DBMaxIdleConns:          5,
		DBMaxOpenConns:          10,
		CacheCapacity:           10000,
		CacheShards:             64,
		CacheTTL:                5 * time.Minute,
		CacheEvictionPercentage: 10,
	}
}
