package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT   JWTConfig
	Mongo MongoConfig
	Redis RedisConfig

	// TokenSweepInterval is how often expired/revoked registry rows are purged.
	TokenSweepInterval time.Duration `env:"TOKEN_SWEEP_INTERVAL, default=1h"`
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET"`
	// Issuer doubles as the audience claim, mirroring the single app URL the
	// mobile client talks to.
	Issuer     string        `env:"JWT_ISSUER,        default=http://localhost:8080"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=60m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=720h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskbox"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
	// UserCacheTTL bounds how long a cached user profile may be served.
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL, default=5m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	return &cfg
}
