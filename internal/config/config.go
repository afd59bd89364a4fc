package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/platformlog"
	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Sink kinds accepted by PLATFORMLOG_SINK.
const (
	SinkBuffer   = "buffer"
	SinkConsole  = "console"
	SinkEventLog = "eventlog"
)

// Config holds the environment configuration of a platformlog pipeline.
type Config struct {
	Sinks          []string `env:"SINK" envSeparator:"," envDefault:"console"`
	MinLevel       string   `env:"MIN_LEVEL" envDefault:"information"`
	OutputTemplate string   `env:"OUTPUT_TEMPLATE"`
	Locale         string   `env:"LOCALE"`

	// Event log
	Source       string `env:"SOURCE" envDefault:"platformlog"`
	LogName      string `env:"LOG_NAME" envDefault:"Application"`
	Machine      string `env:"MACHINE"`
	ManageSource bool   `env:"MANAGE_SOURCE" envDefault:"false"`
	EventLogDSN  string `env:"EVENTLOG_DSN"`

	// Buffer log; an empty BufferSize selects syslog
	SyslogNetwork string `env:"SYSLOG_NETWORK"`
	SyslogAddr    string `env:"SYSLOG_ADDR"`
	BufferSize    int    `env:"BUFFER_SIZE" envDefault:"0"`

	// Diagnostics: "stderr", "stdout", "off", or a file path
	SelfLog     string  `env:"SELFLOG" envDefault:"stderr"`
	SelfLogRate float64 `env:"SELFLOG_RATE" envDefault:"10"`

	MetricsAddr string `env:"METRICS_ADDR"`
}

// Prefix is prepended to every variable name.
const Prefix = "PLATFORMLOG_"

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads configuration from a .env-style file overlaid on the
// environment.
func LoadFrom(path string) (*Config, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	for k, v := range values {
		if _, set := environ[k]; !set {
			environ[k] = v
		}
	}
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidConfig, "load config", "environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the sink list, level and locale.
func (c *Config) Validate() error {
	if len(c.Sinks) == 0 {
		return invalid("sink", "at least one sink is required")
	}
	for i, s := range c.Sinks {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case SinkBuffer, SinkConsole, SinkEventLog:
			c.Sinks[i] = s
		default:
			return invalid("sink", "unknown sink "+s)
		}
	}
	if _, err := types.ParseLevel(c.MinLevel); err != nil {
		return err
	}
	if _, err := formatters.ParseFormatProvider(c.Locale); err != nil {
		return invalid("locale", err.Error())
	}
	if c.BufferSize < 0 {
		return invalid("buffer size", "must not be negative")
	}
	if c.SelfLogRate < 0 {
		return invalid("selflog rate", "must not be negative")
	}
	return nil
}

func invalid(field, reason string) error {
	return types.NewError(types.ErrCodeInvalidConfig, "validate config", field, errors.New(reason))
}

// Level returns the parsed minimum level.
func (c *Config) Level() types.Level {
	level, _ := types.ParseLevel(c.MinLevel)
	return level
}

// Diagnostics returns the diagnostic writer selected by SelfLog, wrapped in
// a rate limiter when SelfLogRate is positive. The returned closer releases a
// file opened for a path target and is never nil.
func (c *Config) Diagnostics() (selflog.Writer, func() error, error) {
	noop := func() error { return nil }

	var w selflog.Writer
	closer := noop
	switch strings.ToLower(c.SelfLog) {
	case "", "stderr":
		w = selflog.NewWriter(os.Stderr)
	case "stdout":
		w = selflog.NewWriter(os.Stdout)
	case "off", "none":
		return selflog.Silent, noop, nil
	default:
		f, err := os.OpenFile(c.SelfLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, noop, types.NewError(types.ErrCodeInvalidConfig, "open selflog", c.SelfLog, err)
		}
		w = selflog.NewWriter(f)
		closer = f.Close
	}

	if c.SelfLogRate > 0 {
		burst := int(c.SelfLogRate)
		if burst < 1 {
			burst = 1
		}
		w = selflog.Limited(w, rate.Limit(c.SelfLogRate), burst)
	}
	return w, closer, nil
}

// SinkOptions returns the options shared by every configured sink.
func (c *Config) SinkOptions() ([]platformlog.SinkOption, error) {
	var opts []platformlog.SinkOption
	if c.OutputTemplate != "" {
		opts = append(opts, platformlog.WithOutputTemplate(c.OutputTemplate))
	}
	provider, err := formatters.ParseFormatProvider(c.Locale)
	if err != nil {
		return nil, invalid("locale", err.Error())
	}
	if provider != nil {
		opts = append(opts, platformlog.WithFormatProvider(provider.Tag()))
	}
	return opts, nil
}

// Builder translates the configuration into a platformlog.Builder. Extra
// options are applied to every sink after the configured ones.
func (c *Config) Builder(diagnostics selflog.Writer, extra ...platformlog.SinkOption) (*platformlog.Builder, error) {
	common, err := c.SinkOptions()
	if err != nil {
		return nil, err
	}
	common = append(common, extra...)

	b := platformlog.NewBuilder().
		WithMinimumLevel(c.Level()).
		WithDiagnostics(diagnostics)

	for _, sink := range c.Sinks {
		switch sink {
		case SinkBuffer:
			opts := append([]platformlog.SinkOption{}, common...)
			if c.BufferSize > 0 {
				opts = append(opts, platformlog.WithBufferBackend(backends.NewRingBuffer(c.BufferSize)))
			} else {
				opts = append(opts, platformlog.WithSyslogAddress(c.SyslogNetwork, c.SyslogAddr))
			}
			b = b.WriteToBufferLog(opts...)
		case SinkConsole:
			b = b.WriteToConsole(common...)
		case SinkEventLog:
			opts := append([]platformlog.SinkOption{
				platformlog.WithLogName(c.LogName),
				platformlog.WithMachineName(c.Machine),
				platformlog.WithManageSource(c.ManageSource),
				platformlog.WithEventLogDSN(c.EventLogDSN),
			}, common...)
			b = b.WriteToEventLog(c.Source, opts...)
		}
	}
	return b, nil
}
