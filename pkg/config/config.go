// Package config binds the service's runtime configuration from
// environment variables, with an optional local .env file as override
// source.
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Loader    Loader    `envPrefix:"LOADER_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `envPrefix:"TIMEOUT" envDefault:"10s"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Telemetry struct {
		Enabled        bool    `env:"ENABLED" envDefault:"false"`
		ServiceName    string  `env:"SERVICE_NAME" envDefault:"tilecore"`
		ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string  `env:"ENVIRONMENT" envDefault:"production"`
		Exporter       string  `env:"EXPORTER" envDefault:"stdout"`
		OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
		SampleRatio    float64 `env:"SAMPLE_RATIO" envDefault:"1.0"`
	}

	Redis struct {
		Enabled  bool          `env:"ENABLED" envDefault:"false"`
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}

	// Cache selects and configures the disk tier of the loader's
	// three-tier cache (spec §4.2/§4.4). Backend is one of
	// "filesystem" (the default, spec's literal <root>/<z>/<x>/<y>.mvt
	// layout), "sqlite", "redis", or "map" (no-disk, used by tests).
	Cache struct {
		Backend      string `env:"BACKEND" envDefault:"filesystem"`
		Root         string `env:"ROOT" envDefault:"tile-cache"`
		SQLitePath   string `env:"SQLITE_PATH" envDefault:"tile-cache.db"`
	}

	// Upstream configures the network tier (spec §4.5/§6): the
	// tile-URL template and the side-channel API key. The core never
	// reads the key file itself (spec §9); internal/app reads the file
	// named by APIKeyFile at startup and hands the key down as a plain
	// string.
	Upstream struct {
		URLTemplate string `env:"URL_TEMPLATE" envDefault:""`
		APIKeyFile  string `env:"API_KEY_FILE" envDefault:""`
		UserAgent   string `env:"USER_AGENT" envDefault:"tilecore/1.0"`
		Referer     string `env:"REFERER" envDefault:""`
		Timeout     time.Duration `env:"TIMEOUT" envDefault:"15s"`
		LocalOnly   bool   `env:"LOCAL_ONLY" envDefault:"false"`
	}

	// Loader sizes the worker pool that drives the disk/network/decode
	// pipeline (spec §5's "fixed-size worker pool... default: hardware
	// concurrency").
	Loader struct {
		Workers int `env:"WORKERS" envDefault:"0"`
	}
)

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
