package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix for environment overrides, e.g. POOLSERVER_POOL_WORKERS
const EnvPrefix = "POOLSERVER"

// Configuration keys shared by the YAML file and the environment
const (
	KeyHost         = "server.host"
	KeyPort         = "server.port"
	KeyReusePort    = "server.reuseport"
	KeyWorkers      = "pool.workers"
	KeyReadTimeout  = "timeout.read"
	KeyWriteTimeout = "timeout.write"
	KeyEnv          = "env"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
)

// Log formats accepted by LogFormat
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all application configuration.
type Config struct {
	Host      string
	Port      int
	ReusePort bool

	// Workers is the fixed size of the worker pool
	Workers int

	// Zero disables the deadline
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Env       string
	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      8080,
		Workers:   4,
		Env:       "development",
		LogLevel:  "info",
		LogFormat: LogFormatText,
	}
}

// Load builds a Config from defaults, then the YAML file named by -config,
// then POOLSERVER_* environment variables, then flags explicitly set in args.
func Load(args []string) (*Config, error) {
	cfg := Default()

	// Flags parse into a scratch copy so only explicitly set ones override
	flagged := *cfg
	var path string

	fs := flag.NewFlagSet("pool-server", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to a YAML config file")
	fs.StringVar(&flagged.Host, "host", cfg.Host, "listen host")
	fs.IntVar(&flagged.Port, "port", cfg.Port, "listen port (0 picks a free one)")
	fs.BoolVar(&flagged.ReusePort, "reuseport", cfg.ReusePort, "set SO_REUSEPORT on the listener")
	fs.IntVar(&flagged.Workers, "workers", cfg.Workers, "number of pool workers")
	fs.DurationVar(&flagged.ReadTimeout, "read-timeout", cfg.ReadTimeout, "per-connection read deadline (0 disables)")
	fs.DurationVar(&flagged.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-connection write deadline (0 disables)")
	fs.StringVar(&flagged.Env, "env", cfg.Env, "environment (development/production)")
	fs.StringVar(&flagged.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&flagged.LogFormat, "log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m := NewManager()
	if path != "" {
		if err := m.LoadFromYAML(path); err != nil {
			return nil, err
		}
	}
	m.LoadFromEnv(EnvPrefix)
	cfg.Apply(m)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = flagged.Host
		case "port":
			cfg.Port = flagged.Port
		case "reuseport":
			cfg.ReusePort = flagged.ReusePort
		case "workers":
			cfg.Workers = flagged.Workers
		case "read-timeout":
			cfg.ReadTimeout = flagged.ReadTimeout
		case "write-timeout":
			cfg.WriteTimeout = flagged.WriteTimeout
		case "env":
			cfg.Env = flagged.Env
		case "log-level":
			cfg.LogLevel = flagged.LogLevel
		case "log-format":
			cfg.LogFormat = flagged.LogFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply overrides c with every key present in m
func (c *Config) Apply(m *Manager) {
	c.Host = m.GetString(KeyHost, c.Host)
	c.Port = m.GetInt(KeyPort, c.Port)
	c.ReusePort = m.GetBool(KeyReusePort, c.ReusePort)
	c.Workers = m.GetInt(KeyWorkers, c.Workers)
	c.ReadTimeout = m.GetDuration(KeyReadTimeout, c.ReadTimeout)
	c.WriteTimeout = m.GetDuration(KeyWriteTimeout, c.WriteTimeout)
	c.Env = m.GetString(KeyEnv, c.Env)
	c.LogLevel = m.GetString(KeyLogLevel, c.LogLevel)
	c.LogFormat = m.GetString(KeyLogFormat, c.LogFormat)
}

// Validate reports every out-of-range setting
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers))
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: negative read timeout %s", ErrInvalidConfig, c.ReadTimeout))
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: negative write timeout %s", ErrInvalidConfig, c.WriteTimeout))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat))
	}

	return errors.Join(errs...)
}

// Addr returns the host:port listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
