package sinks

import (
	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// ConsoleSink writes one line per event to the console
type ConsoleSink struct {
	formatter formatters.Formatter
	console   *backends.Console
}

// NewConsoleSink creates a console sink. A nil console writes to the
// process's stdout and stderr.
func NewConsoleSink(console *backends.Console, formatter formatters.Formatter) (*ConsoleSink, error) {
	if err := checkFormatter("create console sink", formatter); err != nil {
		return nil, err
	}
	if console == nil {
		console = backends.NewConsole(nil, nil)
	}
	return &ConsoleSink{formatter: formatter, console: console}, nil
}

// Emit implements Sink. Error and Fatal events go to the error stream.
func (s *ConsoleSink) Emit(event *types.LogEvent) error {
	if err := checkEvent("emit", event); err != nil {
		return err
	}

	payload, err := formatters.Render(s.formatter, event)
	if err != nil {
		return err
	}

	if err := s.console.WriteLine(payload, severity.IsErrorStream(event.Level)); err != nil {
		return types.PlatformWrite("console", err)
	}
	return nil
}
