package sinks

import (
	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// BufferSink writes events to a transient circular log buffer
type BufferSink struct {
	formatter   formatters.Formatter
	buffer      backends.BufferLog
	diagnostics selflog.Writer
}

// NewBufferSink creates a buffer sink
func NewBufferSink(buffer backends.BufferLog, formatter formatters.Formatter) (*BufferSink, error) {
	if err := checkFormatter("create buffer sink", formatter); err != nil {
		return nil, err
	}
	if buffer == nil {
		return nil, types.InvalidArgument("create buffer sink", "buffer", "must not be nil")
	}
	return &BufferSink{formatter: formatter, buffer: buffer}, nil
}

// WithDiagnostics sets the writer that receives buffer write failures. Nil
// uses the process default.
func (s *BufferSink) WithDiagnostics(w selflog.Writer) *BufferSink {
	s.diagnostics = w
	return s
}

// Emit implements Sink. Only formatter failures are returned; lost buffer
// writes go to the diagnostic channel.
func (s *BufferSink) Emit(event *types.LogEvent) error {
	if err := checkEvent("emit", event); err != nil {
		return err
	}

	payload, err := formatters.Render(s.formatter, event)
	if err != nil {
		return err
	}

	if err := s.buffer.WriteBuffer(severity.ToBufferPriority(event.Level), Tag(event), payload); err != nil {
		selflog.Resolve(s.diagnostics).Printf("buffer write failed, event %q dropped: %v", event.TemplateText(), err)
	}
	return nil
}

// Tag returns the literal rendering of the event's SourceContext property,
// or "" when it is absent.
func Tag(event *types.LogEvent) string {
	v, ok := event.Property(types.SourceContextPropertyName)
	if !ok {
		return ""
	}
	return formatters.FormatValue(v, "l", nil)
}
