package sinks

import (
	"strings"
	"unicode/utf8"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/eventid"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Event log limits, in characters.
const (
	MaxSourceNameLength = 212
	MaxPayloadLength    = 31839
)

// EventLogConfig configures an EventLogSink.
type EventLogConfig struct {
	Source          string
	LogName         string // defaults to backends.DefaultLogName
	MachineName     string // defaults to the local machine
	ManageSource    bool
	Formatter       formatters.Formatter
	EventIDProvider eventid.Provider // defaults to eventid.NewHashProvider()
	Diagnostics     selflog.Writer   // defaults to the process-wide writer
}

// EventLogSink writes events to a persistent event log
type EventLogSink struct {
	formatter   formatters.Formatter
	ids         eventid.Provider
	channel     *backends.EventLogChannel
	diagnostics selflog.Writer
	source      string
	state       SourceState
}

// NewEventLogSink validates cfg, binds a channel on store and, when
// cfg.ManageSource is set, repairs the source registration before
// returning.
func NewEventLogSink(store backends.EventLog, cfg EventLogConfig) (*EventLogSink, error) {
	const op = "create event log sink"

	if strings.TrimSpace(cfg.Source) == "" {
		return nil, types.InvalidArgument(op, "source", "must not be empty")
	}
	if err := checkFormatter(op, cfg.Formatter); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, types.InvalidArgument(op, "store", "must not be nil")
	}
	if cfg.EventIDProvider == nil {
		cfg.EventIDProvider = eventid.NewHashProvider()
	}

	source := cfg.Source
	if utf8.RuneCountInString(source) > MaxSourceNameLength {
		selflog.Resolve(cfg.Diagnostics).Printf("source name %q exceeds %d characters, truncating", source, MaxSourceNameLength)
		source = truncate(source, MaxSourceNameLength)
	}
	source = strings.NewReplacer("<", "_", ">", "_").Replace(source)

	s := &EventLogSink{
		formatter:   cfg.Formatter,
		ids:         cfg.EventIDProvider,
		channel:     backends.NewEventLogChannel(store, cfg.LogName, cfg.MachineName, source),
		diagnostics: cfg.Diagnostics,
		state:       SourceRegisteredCorrectly,
	}

	if cfg.ManageSource {
		state, err := NewSourceLifecycle(s.channel, source, cfg.Diagnostics).Run()
		if err != nil {
			return nil, err
		}
		s.state = state
	}

	s.channel.SetSource(source)
	s.source = source
	return s, nil
}

// Source returns the sanitized source name
func (s *EventLogSink) Source() string { return s.source }

// LogName returns the resolved log name
func (s *EventLogSink) LogName() string { return s.channel.Log() }

// MachineName returns the host qualifier
func (s *EventLogSink) MachineName() string { return s.channel.MachineName() }

// SourceState returns the terminal state reached at construction.
// Unmanaged sinks report SourceRegisteredCorrectly.
func (s *EventLogSink) SourceState() SourceState { return s.state }

// Emit implements Sink. Payloads over MaxPayloadLength are truncated.
// Formatter errors are returned unchanged; store failures are returned as
// ErrPlatformWrite.
func (s *EventLogSink) Emit(event *types.LogEvent) error {
	if err := checkEvent("emit", event); err != nil {
		return err
	}

	entryType := severity.ToEntryType(event.Level)

	payload, err := formatters.Render(s.formatter, event)
	if err != nil {
		return err
	}

	if utf8.RuneCountInString(payload) > MaxPayloadLength {
		selflog.Resolve(s.diagnostics).Printf("payload exceeds %d characters, truncating", MaxPayloadLength)
		payload = truncate(payload, MaxPayloadLength)
	}

	id, err := s.ids.ComputeEventID(event)
	if err != nil {
		return err
	}

	if err := s.channel.WriteEntry(payload, entryType, id); err != nil {
		return types.PlatformWrite(s.channel.Log(), err)
	}
	return nil
}

// truncate returns the first n characters of s
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
