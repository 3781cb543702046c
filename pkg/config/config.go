package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Sweeper      SweeperConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"CP_APP_ENV" default:"dev"`
	Port     string `envconfig:"CP_APP_PORT" default:"3000"`
	LogLevel string `envconfig:"CP_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"CP_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"CP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CP_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"CP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CP_JWT_ISSUER" default:"coupon-platform"`
	ExpirationMinutes int    `envconfig:"CP_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CP_ARGON_KEY_LEN" default:"32"`
}

type SweeperConfig struct {
	Interval time.Duration `envconfig:"CP_SWEEPER_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"CP_SWEEPER_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CP_AUTO_MIGRATE" default:"false"`
}
