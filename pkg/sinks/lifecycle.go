package sinks

import (
	"fmt"
	"strings"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/eventid"
	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// MetaSourcePrefix prefixes the log name to form the source that records
// source moves within that log.
const MetaSourcePrefix = "platformlog-"

// SourceState is the registration state of an event source.
type SourceState int

const (
	// SourceUnregistered means the source does not exist on the host
	SourceUnregistered SourceState = iota
	// SourceRegisteredCorrectly means the source exists and may be written
	SourceRegisteredCorrectly
	// SourceRegisteredElsewhere means the source is bound to another log
	SourceRegisteredElsewhere
	// SourceRepaired means the source was moved and the move was recorded
	SourceRepaired
)

func (s SourceState) String() string {
	switch s {
	case SourceUnregistered:
		return "Unregistered"
	case SourceRegisteredCorrectly:
		return "RegisteredCorrectly"
	case SourceRegisteredElsewhere:
		return "RegisteredElsewhere"
	case SourceRepaired:
		return "Repaired"
	default:
		return fmt.Sprintf("SourceState(%d)", int(s))
	}
}

// Terminal reports whether no further transition applies.
func (s SourceState) Terminal() bool {
	return s == SourceRegisteredCorrectly || s == SourceRepaired
}

// MetaSource returns the source used to record moves into logName.
func MetaSource(logName string) string {
	return MetaSourcePrefix + logName
}

// SourceMovedMessage is the text of the entry recording a source move.
func SourceMovedMessage(source, oldLog, newLog string) string {
	return fmt.Sprintf("The source '%s' has been moved from the log '%s' to the log '%s'.", source, oldLog, newLog)
}

// SourceLifecycle inspects and repairs the registration of one source for
// the log and machine of a channel handle. It runs once, before the owning
// sink accepts writes.
type SourceLifecycle struct {
	channel     *backends.EventLogChannel
	source      string
	diagnostics selflog.Writer

	oldLog string
}

// NewSourceLifecycle creates a lifecycle for source on channel's log.
func NewSourceLifecycle(channel *backends.EventLogChannel, source string, diagnostics selflog.Writer) *SourceLifecycle {
	return &SourceLifecycle{channel: channel, source: source, diagnostics: diagnostics}
}

// PreviousLog returns the log the source was moved away from, if any.
func (l *SourceLifecycle) PreviousLog() string {
	return l.oldLog
}

// Inspect reads the current state from the store.
func (l *SourceLifecycle) Inspect() (SourceState, error) {
	store := l.channel.Store()
	machine := l.channel.MachineName()

	exists, err := store.SourceExists(l.source, machine)
	if err != nil {
		return SourceUnregistered, err
	}
	if !exists {
		return SourceUnregistered, nil
	}

	bound, err := store.LogNameFromSource(l.source, machine)
	if err != nil {
		return SourceUnregistered, err
	}
	// An unresolved binding is left alone.
	if strings.TrimSpace(bound) != "" && !strings.EqualFold(bound, l.channel.Log()) {
		l.oldLog = bound
		return SourceRegisteredElsewhere, nil
	}
	return SourceRegisteredCorrectly, nil
}

// Transition performs the action for state and returns the next state.
func (l *SourceLifecycle) Transition(state SourceState) (SourceState, error) {
	store := l.channel.Store()
	machine := l.channel.MachineName()
	target := l.channel.Log()

	switch state {
	case SourceUnregistered:
		if err := store.CreateSource(backends.SourceCreationData{Source: l.source, LogName: target, MachineName: machine}); err != nil {
			return state, err
		}
		return SourceRegisteredCorrectly, nil

	case SourceRegisteredElsewhere:
		if err := store.DeleteSource(l.source, machine); err != nil {
			return state, err
		}
		if err := store.CreateSource(backends.SourceCreationData{Source: l.source, LogName: target, MachineName: machine}); err != nil {
			return state, err
		}
		if err := l.recordMove(); err != nil {
			return state, err
		}
		selflog.Resolve(l.diagnostics).Printf("event source %q moved from log %q to log %q", l.source, l.oldLog, target)
		return SourceRepaired, nil

	case SourceRegisteredCorrectly, SourceRepaired:
		return state, nil

	default:
		return state, types.InvalidArgument("manage source", "state", "unknown source state "+state.String())
	}
}

// recordMove writes the move notice under the log's meta-source, then points
// the channel back at the managed source.
func (l *SourceLifecycle) recordMove() error {
	store := l.channel.Store()
	machine := l.channel.MachineName()
	target := l.channel.Log()
	meta := MetaSource(target)

	exists, err := store.SourceExists(meta, machine)
	if err != nil {
		return err
	}
	if !exists {
		if err := store.CreateSource(backends.SourceCreationData{Source: meta, LogName: target, MachineName: machine}); err != nil {
			return err
		}
	}

	previous := l.channel.Source()
	l.channel.SetSource(meta)
	defer l.channel.SetSource(previous)

	return l.channel.WriteEntry(SourceMovedMessage(l.source, l.oldLog, target), severity.EntryInformation, eventid.SourceMovedEventID)
}

// Run drives the lifecycle from the inspected state to a terminal state.
func (l *SourceLifecycle) Run() (SourceState, error) {
	state, err := l.Inspect()
	if err != nil {
		return state, types.NewError(types.ErrCodeSourceManagement, "manage source", l.source, err)
	}
	for !state.Terminal() {
		state, err = l.Transition(state)
		if err != nil {
			return state, types.NewError(types.ErrCodeSourceManagement, "manage source", l.source, err)
		}
	}
	return state, nil
}
