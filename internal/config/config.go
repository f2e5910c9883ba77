package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`

	HttpServer HttpServer
	Limiter    Limiter
	Medusa     Medusa
	Routing    Routing
	Storefront Storefront
	Auth       AuthConfig
	Cache      Cache
	Queue      Queue
}

type HttpServer struct {
	Port             string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout          time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout      time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	CorsAllowOrigins []string      `env:"CORS_ALLOW_ORIGINS" env-default:"*" env-separator:","`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"50"`
	Burst int           `env:"LIMITER_BURST" env-default:"100"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

// Medusa is the commerce backend. BackendURL is checked when the first region fetch happens.
type Medusa struct {
	BackendURL     string        `env:"MEDUSA_BACKEND_URL" env-description:"commerce backend base url"`
	PublishableKey string        `env:"MEDUSA_PUBLISHABLE_KEY"`
	Timeout        time.Duration `env:"MEDUSA_TIMEOUT" env-default:"5s"`
}

type Routing struct {
	DefaultRegion   string        `env:"DEFAULT_REGION" env-default:"dk"`
	RefreshInterval time.Duration `env:"REGION_REFRESH_INTERVAL" env-default:"3600s"`
	CacheIDCookie   string        `env:"CACHE_ID_COOKIE" env-default:"_medusa_cache_id"`
	CacheIDTTL      time.Duration `env:"CACHE_ID_TTL" env-default:"24h"`
	ExemptPaths     []string      `env:"ROUTING_EXEMPT_PATHS" env-default:"/api/health,/" env-separator:","`
	GeoHeader       string        `env:"GEO_COUNTRY_HEADER" env-default:"X-Vercel-IP-Country" env-description:"request header carrying the geolocated country"`
}

type Storefront struct {
	UpstreamURL string `env:"STOREFRONT_UPSTREAM_URL" env-description:"downstream page renderer, empty disables proxying"`
}

type AuthConfig struct {
	SigningKey string `env:"REVALIDATE_SIGNING_KEY" env-description:"HS256 key for operator tokens, empty disables the operator api"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-default:"none" env-description:"specifies provider, one of none/redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-separator:"," env-description:"redis cluster nodes: 172.27.29.90:7000,172.27.29.91:7001"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

type Queue struct {
	WarmInterval time.Duration `env:"REGION_WARM_INTERVAL" env-default:"30m"`
	Concurrency  int           `env:"QUEUE_CONCURRENCY" env-default:"2"`
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return cfg
}

// Load merges an optional .env file into the environment and reads the config from it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.Routing.DefaultRegion = strings.ToLower(strings.TrimSpace(cfg.Routing.DefaultRegion))
	cfg.Medusa.BackendURL = strings.TrimRight(cfg.Medusa.BackendURL, "/")

	return &cfg, nil
}
