package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	// Store selects the credential store backend: "mongo" or "memory".
	// The memory backend keeps nothing across restarts; development only.
	Store string `env:"STORE, default=mongo"`

	HMAC  HMACConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type HMACConfig struct {
	// Debug registers the /auth/debug signature troubleshooting endpoint.
	// Must stay off outside development deployments.
	Debug bool `env:"HMAC_DEBUG, default=false"`
	// Roles is the allowed role vocabulary for grants.
	Roles []string `env:"HMAC_ROLES, default=USER,ADMIN"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=signet"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
	// CacheTTL bounds how long identity lookups may be served from cache.
	// Zero disables the cache layer entirely.
	CacheTTL time.Duration `env:"CACHE_TTL, default=5m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
