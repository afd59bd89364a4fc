package platformlog

import (
	"io"
	"sync"
	"time"

	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/sinks"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// MetricsRecorder receives per-sink outcome counts. *metrics.Collector
// implements it.
type MetricsRecorder interface {
	TrackEmit(sink, level string, duration time.Duration)
	TrackError(sink string)
	TrackDiagnostic()
}

// registeredSink is a sink with its name and minimum level
type registeredSink struct {
	name    string
	sink    sinks.Sink
	minimum types.Level
}

// pipeline is the state shared by a logger and its contextual children.
type pipeline struct {
	mu          sync.RWMutex
	minimum     types.Level
	sinks       []registeredSink
	closers     []io.Closer
	diagnostics selflog.Writer
	metrics     MetricsRecorder
	closed      bool
	now         func() time.Time
}

// Logger writes events synchronously to its sinks. It is safe for
// concurrent use. Loggers returned by ForContext, WithProperty and
// WithException share the sinks of their parent.
type Logger struct {
	p          *pipeline
	properties types.Properties
	exception  error
}

// diagnosticWriter counts every diagnostic before forwarding it.
type diagnosticWriter struct {
	next    selflog.Writer
	metrics MetricsRecorder
}

func (d *diagnosticWriter) Printf(format string, args ...interface{}) {
	if d.metrics != nil {
		d.metrics.TrackDiagnostic()
	}
	selflog.Resolve(d.next).Printf(format, args...)
}

// MinimumLevel returns the pipeline-wide minimum level.
func (l *Logger) MinimumLevel() types.Level {
	l.p.mu.RLock()
	defer l.p.mu.RUnlock()
	return l.p.minimum
}

// SetMinimumLevel changes the pipeline-wide minimum level at runtime.
// Per-sink minimum levels still apply.
//
// Example:
//
//	logger.SetMinimumLevel(types.LevelWarning) // drop Debug and Information
func (l *Logger) SetMinimumLevel(level types.Level) error {
	if !level.Valid() {
		return types.InvalidArgument("set minimum level", "level", "unknown level "+level.String())
	}
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	l.p.minimum = level
	return nil
}

// IsEnabled reports whether any sink would receive an event at level.
func (l *Logger) IsEnabled(level types.Level) bool {
	l.p.mu.RLock()
	defer l.p.mu.RUnlock()
	if l.p.closed || level < l.p.minimum {
		return false
	}
	for _, rs := range l.p.sinks {
		if level >= rs.minimum {
			return true
		}
	}
	return false
}

// SinkNames returns the names of the registered sinks in registration order.
func (l *Logger) SinkNames() []string {
	l.p.mu.RLock()
	defer l.p.mu.RUnlock()
	names := make([]string, len(l.p.sinks))
	for i, rs := range l.p.sinks {
		names[i] = rs.name
	}
	return names
}

// Write dispatches event to every sink whose minimum level it meets. A
// failing sink loses only this event: the error is written to the
// diagnostic channel and the remaining sinks still receive the event.
func (l *Logger) Write(event *types.LogEvent) {
	if event == nil {
		return
	}

	p := l.p
	p.mu.RLock()
	if p.closed || event.Level < p.minimum {
		p.mu.RUnlock()
		return
	}
	targets := make([]registeredSink, len(p.sinks))
	copy(targets, p.sinks)
	p.mu.RUnlock()

	// Sinks run without the lock held so they may log through this logger.
	for _, rs := range targets {
		if event.Level < rs.minimum {
			continue
		}

		start := time.Now()
		err := emit(rs, event)
		elapsed := time.Since(start)

		if err != nil {
			if p.metrics != nil {
				p.metrics.TrackError(rs.name)
			}
			p.diagnostics.Printf("sink %s failed to emit event %q: %+v", rs.name, event.TemplateText(), err)
			continue
		}
		if p.metrics != nil {
			p.metrics.TrackEmit(rs.name, event.Level.String(), elapsed)
		}
	}
}

// emit calls the sink, converting a panic into an error.
func emit(rs registeredSink, event *types.LogEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(rs.name, r)
		}
	}()
	return rs.sink.Emit(event)
}

// Log creates an event at level from template, binding args to the
// template's holes in order of first appearance, and writes it.
//
// Parameters:
//   - level: The event level
//   - template: Message template, e.g. "Upload failed for {User}"
//   - args: Values bound positionally to the template's holes
//
// Example:
//
//	logger.Log(types.LevelWarning, "Disk {Mount} at {Percent}%", "/var", 93)
func (l *Logger) Log(level types.Level, template string, args ...interface{}) {
	if !l.IsEnabled(level) {
		return
	}
	l.Write(l.newEvent(level, template, args))
}

func (l *Logger) newEvent(level types.Level, template string, args []interface{}) *types.LogEvent {
	tmpl := types.ParseTemplate(template)
	names := tmpl.PropertyNames()

	props := make(types.Properties, len(l.properties)+len(args))
	for k, v := range l.properties {
		props[k] = v
	}
	for i, arg := range args {
		if i >= len(names) {
			l.p.diagnostics.Printf("template %q has %d holes but %d arguments were supplied", template, len(names), len(args))
			break
		}
		props[names[i]] = arg
	}

	return types.NewLogEvent(l.p.now(), level, tmpl, props, l.exception)
}

// Verbose writes a Verbose event.
func (l *Logger) Verbose(template string, args ...interface{}) {
	l.Log(types.LevelTrace, template, args...)
}

// Debug writes a Debug event.
func (l *Logger) Debug(template string, args ...interface{}) {
	l.Log(types.LevelDebug, template, args...)
}

// Information writes an Information event.
func (l *Logger) Information(template string, args ...interface{}) {
	l.Log(types.LevelInfo, template, args...)
}

// Warning writes a Warning event.
func (l *Logger) Warning(template string, args ...interface{}) {
	l.Log(types.LevelWarning, template, args...)
}

// Error writes an Error event.
func (l *Logger) Error(template string, args ...interface{}) {
	l.Log(types.LevelError, template, args...)
}

// Fatal writes a Fatal event. It does not exit the process.
func (l *Logger) Fatal(template string, args ...interface{}) {
	l.Log(types.LevelFatal, template, args...)
}

// ForContext returns a logger whose events carry source as their
// SourceContext property.
func (l *Logger) ForContext(source string) *Logger {
	return l.WithProperty(types.SourceContextPropertyName, source)
}

// WithProperty returns a logger whose events carry name=value. Values bound
// from a template take precedence.
func (l *Logger) WithProperty(name string, value interface{}) *Logger {
	props := make(types.Properties, len(l.properties)+1)
	for k, v := range l.properties {
		props[k] = v
	}
	props[name] = value
	return &Logger{p: l.p, properties: props, exception: l.exception}
}

// WithException returns a logger whose events carry err as their exception.
//
// Example:
//
//	logger.WithException(err).Error("Upload failed for {User}", user)
func (l *Logger) WithException(err error) *Logger {
	return &Logger{p: l.p, properties: l.properties, exception: err}
}

// Close closes every sink and backend that implements io.Closer and stops
// further writes. It returns the first close error, or ErrClosed when the
// logger was already closed.
func (l *Logger) Close() error {
	p := l.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.closed = true

	var first error
	for _, rs := range p.sinks {
		if c, ok := rs.sink.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
