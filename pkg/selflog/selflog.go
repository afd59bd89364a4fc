// Package selflog is the diagnostic channel platformlog uses to report its
// own problems: truncated payloads, over-long source names, repaired event
// sources, and sink failures swallowed by the pipeline.
//
// Writers never return errors and never panic. A process-wide default writer
// (stderr) is used unless one is injected; tests inject a Recorder.
package selflog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Writer receives diagnostic messages.
type Writer interface {
	Printf(format string, args ...interface{})
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(format string, args ...interface{})

// Printf calls f(format, args...).
func (f WriterFunc) Printf(format string, args ...interface{}) {
	f(format, args...)
}

// Silent discards all diagnostics.
var Silent Writer = WriterFunc(func(string, ...interface{}) {})

type holder struct{ w Writer }

var current atomic.Value

func init() {
	current.Store(holder{w: NewWriter(os.Stderr)})
}

// Default returns the process-wide diagnostic writer.
func Default() Writer {
	return current.Load().(holder).w
}

// SetDefault replaces the process-wide diagnostic writer. A nil writer
// disables diagnostics.
func SetDefault(w Writer) {
	if w == nil {
		w = Silent
	}
	current.Store(holder{w: w})
}

// Enable sends process-wide diagnostics to out.
func Enable(out io.Writer) {
	SetDefault(NewWriter(out))
}

// Disable discards process-wide diagnostics.
func Disable() {
	SetDefault(Silent)
}

// Printf writes to the process-wide writer.
func Printf(format string, args ...interface{}) {
	Default().Printf(format, args...)
}

// Resolve returns w, or the process-wide writer when w is nil. It is
// evaluated on every call so SetDefault takes effect for existing sinks.
func Resolve(w Writer) Writer {
	if w != nil {
		return w
	}
	return Default()
}

type streamWriter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewWriter returns a Writer that prints one timestamped line per message.
func NewWriter(out io.Writer) Writer {
	return &streamWriter{out: out, now: time.Now}
}

func (w *streamWriter) Printf(format string, args ...interface{}) {
	defer func() { _ = recover() }()

	msg := fmt.Sprintf(format, args...)
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.now().Format(time.RFC3339Nano), strings.TrimRight(msg, "\n"))
}

// Multi fans diagnostics out to several writers.
func Multi(writers ...Writer) Writer {
	return WriterFunc(func(format string, args ...interface{}) {
		for _, w := range writers {
			if w != nil {
				w.Printf(format, args...)
			}
		}
	})
}

// Recorder captures diagnostics in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Printf implements Writer.
func (r *Recorder) Printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the captured messages.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Len returns the number of captured messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Reset discards captured messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

// LimitedWriter drops diagnostics beyond a rate limit and reports how many
// were suppressed with the next message that gets through.
type LimitedWriter struct {
	next       Writer
	limiter    *rate.Limiter
	suppressed atomic.Uint64
}

// Limited wraps next with a token bucket of r messages per second and the
// given burst.
func Limited(next Writer, r rate.Limit, burst int) *LimitedWriter {
	if burst < 1 {
		burst = 1
	}
	return &LimitedWriter{next: next, limiter: rate.NewLimiter(r, burst)}
}

// Printf implements Writer.
func (l *LimitedWriter) Printf(format string, args ...interface{}) {
	if !l.limiter.Allow() {
		l.suppressed.Add(1)
		return
	}
	if n := l.suppressed.Swap(0); n > 0 {
		l.next.Printf("%d diagnostic messages suppressed", n)
	}
	l.next.Printf(format, args...)
}

// Suppressed returns the number of messages dropped since the last one
// that was written.
func (l *LimitedWriter) Suppressed() uint64 {
	return l.suppressed.Load()
}
