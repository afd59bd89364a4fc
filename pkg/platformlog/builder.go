package platformlog

import (
	"io"
	"strings"
	"time"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/sinks"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Default sink names used in diagnostics and metrics.
const (
	BufferSinkName   = "buffer"
	ConsoleSinkName  = "console"
	EventLogSinkName = "eventlog"
)

type sinkKind int

const (
	bufferKind sinkKind = iota
	consoleKind
	eventLogKind
	customKind
)

// pendingSink holds sink configuration until Build
type pendingSink struct {
	kind   sinkKind
	source string
	config sinkConfig
	sink   sinks.Sink
}

// Builder provides a fluent interface for constructing a Logger. The first
// invalid argument is kept and returned by Build; later calls are no-ops.
type Builder struct {
	minimum     types.Level
	pending     []pendingSink
	diagnostics selflog.Writer
	metrics     MetricsRecorder
	now         func() time.Time
	err         error
}

// NewBuilder creates a new Logger builder. The default minimum level is
// Information.
func NewBuilder() *Builder {
	return &Builder{
		minimum: types.LevelInfo,
		now:     time.Now,
	}
}

// WithMinimumLevel sets the pipeline-wide minimum level
func (b *Builder) WithMinimumLevel(level types.Level) *Builder {
	if b.err != nil {
		return b
	}
	if !level.Valid() {
		b.err = types.InvalidArgument("configure logger", "minimumLevel", "unknown level "+level.String())
		return b
	}
	b.minimum = level
	return b
}

// WithMetrics records sink outcomes to m
func (b *Builder) WithMetrics(m MetricsRecorder) *Builder {
	if b.err != nil {
		return b
	}
	b.metrics = m
	return b
}

// WithDiagnostics sends sink failures and sink diagnostics to w instead of
// the process-wide selflog writer
func (b *Builder) WithDiagnostics(w selflog.Writer) *Builder {
	if b.err != nil {
		return b
	}
	b.diagnostics = w
	return b
}

// WithClock overrides the timestamp source for events created by the logger
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if b.err != nil {
		return b
	}
	if now == nil {
		b.err = types.InvalidArgument("configure logger", "clock", "must not be nil")
		return b
	}
	b.now = now
	return b
}

// WriteToBufferLog adds a sink writing to the transient log buffer. Without
// WithBufferBackend the local syslog daemon is used, and Build fails with
// ErrPlatformUnsupported when none is reachable.
func (b *Builder) WriteToBufferLog(opts ...SinkOption) *Builder {
	return b.add(bufferKind, "", BufferSinkName, opts)
}

// WriteToConsole adds a sink writing one line per event to stdout, or to
// stderr for Error and Fatal events.
func (b *Builder) WriteToConsole(opts ...SinkOption) *Builder {
	return b.add(consoleKind, "", ConsoleSinkName, opts)
}

// WriteToEventLog adds a sink writing to the persistent event log under
// source. Without WithEventLogStore or WithEventLogDSN the file store in
// backends.DefaultEventLogDir is used.
//
// Example:
//
//	b.WriteToEventLog("Billing",
//		platformlog.WithLogName("Payments"),
//		platformlog.WithManageSource(true))
func (b *Builder) WriteToEventLog(source string, opts ...SinkOption) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(source) == "" {
		b.err = types.InvalidArgument("configure event log sink", "source", "must not be empty")
		return b
	}
	return b.add(eventLogKind, source, EventLogSinkName, opts)
}

// WriteToSink adds a caller-constructed sink. Sinks implementing io.Closer
// are closed with the logger.
func (b *Builder) WriteToSink(name string, sink sinks.Sink, minimum types.Level) *Builder {
	if b.err != nil {
		return b
	}
	if sink == nil {
		b.err = types.InvalidArgument("configure sink", "sink", "must not be nil")
		return b
	}
	b = b.add(customKind, "", name, []SinkOption{WithSinkName(name), WithRestrictedToMinimumLevel(minimum)})
	if b.err == nil {
		b.pending[len(b.pending)-1].sink = sink
	}
	return b
}

func (b *Builder) add(kind sinkKind, source, name string, opts []SinkOption) *Builder {
	if b.err != nil {
		return b
	}
	cfg := sinkConfig{name: name, minimum: types.MinimumLevel}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			b.err = err
			return b
		}
	}
	b.pending = append(b.pending, pendingSink{kind: kind, source: source, config: cfg})
	return b
}

// Build constructs the sinks in the order they were added. Any construction
// failure closes what was already opened and is returned.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	diag := &diagnosticWriter{next: b.diagnostics, metrics: b.metrics}
	p := &pipeline{
		minimum:     b.minimum,
		diagnostics: diag,
		metrics:     b.metrics,
		now:         b.now,
	}

	for _, ps := range b.pending {
		sink, closers, err := buildSink(ps, diag)
		p.closers = append(p.closers, closers...)
		if err != nil {
			for _, c := range p.closers {
				_ = c.Close()
			}
			return nil, err
		}
		p.sinks = append(p.sinks, registeredSink{name: ps.config.name, sink: sink, minimum: ps.config.minimum})
	}

	return &Logger{p: p}, nil
}

// buildSink constructs one sink and returns the backends it opened.
func buildSink(ps pendingSink, diag selflog.Writer) (sinks.Sink, []io.Closer, error) {
	cfg := ps.config

	switch ps.kind {
	case customKind:
		return ps.sink, nil, nil

	case bufferKind:
		formatter, err := cfg.buildFormatter(formatters.DefaultOutputTemplate)
		if err != nil {
			return nil, nil, err
		}
		var closers []io.Closer
		buffer := cfg.buffer
		if buffer == nil {
			syslog, err := backends.NewSyslogBuffer(cfg.syslogNetwork, cfg.syslogAddress, backends.FacilityUser)
			if err != nil {
				return nil, nil, err
			}
			buffer = syslog
			closers = append(closers, syslog)
		}
		sink, err := sinks.NewBufferSink(buffer, formatter)
		if err != nil {
			return nil, closers, err
		}
		return sink.WithDiagnostics(diag), closers, nil

	case consoleKind:
		formatter, err := cfg.buildFormatter(formatters.DefaultOutputTemplate)
		if err != nil {
			return nil, nil, err
		}
		sink, err := sinks.NewConsoleSink(backends.NewConsole(cfg.stdout, cfg.stderr), formatter)
		return sink, nil, err

	case eventLogKind:
		formatter, err := cfg.buildFormatter(formatters.DefaultEventLogOutputTemplate)
		if err != nil {
			return nil, nil, err
		}
		var closers []io.Closer
		store := cfg.store
		if store == nil {
			opened, err := backends.OpenEventLog(cfg.storeDSN)
			if err != nil {
				return nil, nil, err
			}
			store = opened
			if c, ok := opened.(io.Closer); ok {
				closers = append(closers, c)
			}
		}
		sink, err := sinks.NewEventLogSink(store, sinks.EventLogConfig{
			Source:          ps.source,
			LogName:         cfg.logName,
			MachineName:     cfg.machine,
			ManageSource:    cfg.manageSource,
			Formatter:       formatter,
			EventIDProvider: cfg.ids,
			Diagnostics:     diag,
		})
		return sink, closers, err
	}

	return nil, nil, types.InvalidArgument("build logger", "sink", "unknown sink kind")
}
