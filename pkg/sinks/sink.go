// Package sinks dispatches rendered log events to platform log facilities.
//
// Three sinks share the Sink capability and nothing else:
//
//   - BufferSink writes to a transient circular log buffer, tagged with the
//     event's SourceContext.
//   - ConsoleSink writes one line per event to stdout, or stderr for Error
//     and Fatal.
//   - EventLogSink writes to a persistent event log with a content-derived
//     event id, enforcing the store's size limits and, optionally, repairing
//     the registration of its event source at construction.
//
// Sinks do no severity filtering; minimum levels are enforced by the
// pipeline that owns them. Emit is synchronous and safe for concurrent use
// when the underlying platform primitive is.
package sinks

import (
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Sink receives log events.
type Sink interface {
	Emit(event *types.LogEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event *types.LogEvent) error

// Emit calls f(event).
func (f SinkFunc) Emit(event *types.LogEvent) error {
	return f(event)
}

func checkEvent(op string, event *types.LogEvent) error {
	if event == nil {
		return types.InvalidArgument(op, "event", "must not be nil")
	}
	return nil
}

func checkFormatter(op string, f formatters.Formatter) error {
	if f == nil {
		return types.InvalidArgument(op, "formatter", "must not be nil")
	}
	return nil
}
