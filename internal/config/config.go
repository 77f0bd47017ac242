// Package config handles loading and parsing application configuration.
//
// The server reads an optional YAML file and then the environment; an
// environment variable always wins over the file. The file path comes from
// (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Without a file the whole configuration comes from the environment, so a
// single CONNECTION_STRING is enough to start the API.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure of the API server.
type Config struct {
	// Env controls log format and verbosity.
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// LogLevel overrides the level implied by Env (debug, info, warn, error).
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`

	// ConnectionString selects and configures the record store:
	// a postgres:// URL or a SQLite path / DSN.
	ConnectionString string `yaml:"connection_string" env:"CONNECTION_STRING" env-required:"true" validate:"required"`

	HTTPServer `yaml:"http_server"`

	CORS CORS `yaml:"cors"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082" validate:"required"`
	RoutePrefix     string        `yaml:"route_prefix" env:"HTTP_ROUTE_PREFIX" env-default:"/api" validate:"omitempty,startswith=/"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// CORS lists the browser origins allowed to call the API. "*" allows any.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Client configures the roster CLI. It is read from the environment only.
type Client struct {
	// LocalAPIURL is used when Host is localhost or 127.0.0.1.
	LocalAPIURL string `env:"LOCAL_API_URL" env-default:"http://localhost:8082/api" validate:"required,url"`

	// RemoteAPIURL is used for any other host. When empty the API is
	// assumed to live under /api on Host itself.
	RemoteAPIURL string `env:"REMOTE_API_URL" validate:"omitempty,url"`

	// Host is the hostname the client is served from.
	Host string `env:"API_HOST" env-default:"localhost" validate:"required"`

	// Timeout of 0 leaves the transport defaults in place.
	Timeout time.Duration `env:"API_TIMEOUT" env-default:"0s"`
}

var validate = validator.New()

// Load reads the server configuration from path (may be empty) and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// MustLoad resolves the config path from CONFIG_PATH or --config and
// exits the process if the configuration cannot be loaded. If this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// LoadClient reads the CLI configuration from the environment.
func LoadClient() (*Client, error) {
	var cfg Client
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return &cfg, nil
}
