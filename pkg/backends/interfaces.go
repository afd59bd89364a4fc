package backends

import (
	"time"

	"github.com/wayneeseguin/platformlog/pkg/severity"
)

// DefaultLogName is the channel used when none is configured
const DefaultLogName = "Application"

// LocalMachine is the host qualifier for the local event log store
const LocalMachine = "."

// BufferLog is a transient, circular platform log buffer
type BufferLog interface {
	// WriteBuffer writes one entry. Delivery is best effort; the buffer may
	// silently overwrite old entries.
	WriteBuffer(priority severity.BufferPriority, tag, text string) error
}

// BufferEntry is one record held by a RingBuffer
type BufferEntry struct {
	Time     time.Time
	Priority severity.BufferPriority
	Tag      string
	Text     string
}

// SourceCreationData describes a source registration
type SourceCreationData struct {
	Source      string
	LogName     string
	MachineName string
}

// EventEntry is one persistent event log record
type EventEntry struct {
	MachineName string             `json:"machine"`
	LogName     string             `json:"log"`
	Source      string             `json:"source"`
	Message     string             `json:"message"`
	Type        severity.EntryType `json:"type"`
	EventID     uint16             `json:"event_id"`
}

// StoredEntry is an EventEntry as persisted by a store
type StoredEntry struct {
	EventEntry
	RecordID string    `json:"record_id"`
	Written  time.Time `json:"written"`
}

// EventLog is a persistent event log store with source management.
// Source names compare case-insensitively.
type EventLog interface {
	// SourceExists reports whether source is registered on machine
	SourceExists(source, machine string) (bool, error)

	// CreateSource registers a source bound to a log
	CreateSource(data SourceCreationData) error

	// DeleteSource removes a source registration
	DeleteSource(source, machine string) error

	// LogNameFromSource returns the log a source is bound to, or "" when
	// the source is unknown
	LogNameFromSource(source, machine string) (string, error)

	// WriteEntry persists an entry. An unregistered source is registered to
	// entry.LogName first; a source bound to a different log is rejected.
	WriteEntry(entry EventEntry) error
}

// SourceLister is implemented by stores that can enumerate their sources
type SourceLister interface {
	ListSources(machine string) (map[string]string, error)
}

// EntryReader is implemented by stores that can read back entries
type EntryReader interface {
	ReadEntries(logName, machine string, limit int) ([]StoredEntry, error)
}
