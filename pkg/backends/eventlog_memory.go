package backends

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type sourceBinding struct {
	Source string `json:"source"`
	Log    string `json:"log"`
}

// MemoryEventLog is an in-process EventLog. It records every management
// call, which makes it useful for dry runs and tests.
type MemoryEventLog struct {
	mu       sync.Mutex
	sources  map[string]map[string]sourceBinding // machine -> key -> binding
	entries  map[string][]StoredEntry            // machine/log -> entries
	calls    []string
	writeErr error
}

// NewMemoryEventLog creates an empty store
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{
		sources: make(map[string]map[string]sourceBinding),
		entries: make(map[string][]StoredEntry),
	}
}

func (m *MemoryEventLog) record(format string, args ...interface{}) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *MemoryEventLog) machine(name string) map[string]sourceBinding {
	name = strings.ToLower(NormalizeMachine(name))
	s, ok := m.sources[name]
	if !ok {
		s = make(map[string]sourceBinding)
		m.sources[name] = s
	}
	return s
}

func entriesKey(logName, machine string) string {
	return strings.ToLower(NormalizeMachine(machine)) + "/" + strings.ToLower(logName)
}

// SourceExists implements EventLog
func (m *MemoryEventLog) SourceExists(source, machine string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SourceExists(%s)", source)
	_, ok := m.machine(machine)[sourceKey(source)]
	return ok, nil
}

// CreateSource implements EventLog
func (m *MemoryEventLog) CreateSource(data SourceCreationData) error {
	if err := validateCreate(data); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateSource(%s, %s)", data.Source, data.LogName)

	sources := m.machine(data.MachineName)
	if b, ok := sources[sourceKey(data.Source)]; ok {
		return sourceExistsError(data.Source, b.Log)
	}
	sources[sourceKey(data.Source)] = sourceBinding{Source: data.Source, Log: data.LogName}
	return nil
}

// DeleteSource implements EventLog
func (m *MemoryEventLog) DeleteSource(source, machine string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteSource(%s)", source)

	sources := m.machine(machine)
	if _, ok := sources[sourceKey(source)]; !ok {
		return sourceNotFound("delete source", source)
	}
	delete(sources, sourceKey(source))
	return nil
}

// LogNameFromSource implements EventLog
func (m *MemoryEventLog) LogNameFromSource(source, machine string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("LogNameFromSource(%s)", source)
	return m.machine(machine)[sourceKey(source)].Log, nil
}

// WriteEntry implements EventLog
func (m *MemoryEventLog) WriteEntry(entry EventEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	sources := m.machine(entry.MachineName)
	key := sourceKey(entry.Source)
	b, ok := sources[key]
	if err := checkBinding(entry, b.Log); err != nil {
		return err
	}
	if !ok {
		sources[key] = sourceBinding{Source: entry.Source, Log: entry.LogName}
	}

	k := entriesKey(entry.LogName, entry.MachineName)
	m.entries[k] = append(m.entries[k], StoredEntry{
		EventEntry: entry,
		RecordID:   uuid.NewString(),
		Written:    time.Now(),
	})
	return nil
}

// ListSources implements SourceLister
func (m *MemoryEventLog) ListSources(machine string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for _, b := range m.machine(machine) {
		out[b.Source] = b.Log
	}
	return out, nil
}

// ReadEntries implements EntryReader. A non-positive limit returns all
// entries; otherwise the newest limit entries are returned, oldest first.
func (m *MemoryEventLog) ReadEntries(logName, machine string, limit int) ([]StoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.entries[entriesKey(logName, machine)]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]StoredEntry(nil), all...), nil
}

// Calls returns the management calls made so far
func (m *MemoryEventLog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// SetWriteError makes every subsequent WriteEntry fail with err; nil clears it
func (m *MemoryEventLog) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}
