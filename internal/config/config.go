package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTP      HTTP      `yaml:"http"`
	Store     Store     `yaml:"store"`
	Redis     Redis     `yaml:"redis"`
	Telemetry Telemetry `yaml:"telemetry"`
	Bot       Bot       `yaml:"bot"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write-timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	StaticDir       string        `yaml:"static-dir" env:"HTTP_STATIC_DIR" env-default:"./web"`
}

type Store struct {
	Driver string        `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
	TTL    time.Duration `yaml:"ttl" env:"STORE_TTL" env-default:"1h"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Telemetry struct {
	Exporter       string `yaml:"exporter" env:"OTEL_EXPORTER" env-default:"none"`
	Endpoint       string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName    string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"quantum-tictactoe"`
	ServiceVersion string `yaml:"service-version" env:"OTEL_SERVICE_VERSION" env-default:"v0.1.0"`
}

type Bot struct {
	ThinkDelay time.Duration `yaml:"think-delay" env:"BOT_THINK_DELAY" env-default:"600ms"`
	// Seed fixes the engine's random source. 0 picks a random seed.
	Seed uint64 `yaml:"seed" env:"BOT_SEED" env-default:"0"`
}

// Load reads the config file at path, with environment variables overriding
// it. When the file does not exist only the environment and defaults are used.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	} else {
		err = cleanenv.ReadConfig(path, config)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}
	return config
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Telemetry.Exporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}
	return nil
}

// Level converts LogLevel to a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
