// Package formatters renders log events as text.
//
// A Formatter streams one event to an io.Writer. Render materializes that
// output as a string for sinks that hand a single payload to a platform log
// API. Two formatters are provided: TemplateFormatter, driven by an output
// template such as "[{Level}] {Message:l}{NewLine:l}{Exception:l}", and
// JSONFormatter for line-delimited JSON.
package formatters

import (
	"io"

	"github.com/wayneeseguin/platformlog/internal/buffer"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Default output templates.
const (
	// DefaultOutputTemplate is used by the buffer and console sinks
	DefaultOutputTemplate = "[{Level}] {Message:l}{NewLine:l}{Exception:l}"

	// DefaultEventLogOutputTemplate is used by the event log sink
	DefaultEventLogOutputTemplate = "{Timestamp:yyyy-MM-dd HH:mm:ss.fff zzz} [{Level:u3}] {Message:lj}{NewLine}{Exception}"
)

// Formatter renders a log event as text.
type Formatter interface {
	// Format writes the rendered event to w
	Format(event *types.LogEvent, w io.Writer) error
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(event *types.LogEvent, w io.Writer) error

// Format calls f(event, w).
func (f FormatterFunc) Format(event *types.LogEvent, w io.Writer) error {
	return f(event, w)
}

// Render formats event with f and returns the output as a string. Formatter
// errors are returned unchanged.
func Render(f Formatter, event *types.LogEvent) (string, error) {
	buf := buffer.Default.Get()
	defer buffer.Default.Put(buf)

	if err := f.Format(event, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
