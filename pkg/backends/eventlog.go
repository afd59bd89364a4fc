package backends

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// NormalizeMachine maps "" and "." to the local host qualifier
func NormalizeMachine(machine string) string {
	machine = strings.TrimSpace(machine)
	if machine == "" {
		return LocalMachine
	}
	return machine
}

// sourceKey is the case-insensitive identity of a source name
func sourceKey(source string) string {
	return strings.ToLower(source)
}

// checkBinding validates entry.Source against the binding recorded for it.
// bound is "" when the source is unregistered.
func checkBinding(entry EventEntry, bound string) error {
	if bound == "" || strings.EqualFold(bound, entry.LogName) {
		return nil
	}
	return types.NewError(types.ErrCodeSourceMismatch, "write entry", entry.Source,
		errors.Errorf("source is registered to log %q, not %q", bound, entry.LogName))
}

func validateCreate(data SourceCreationData) error {
	if strings.TrimSpace(data.Source) == "" {
		return types.InvalidArgument("create source", "source", "must not be empty")
	}
	if strings.TrimSpace(data.LogName) == "" {
		return types.InvalidArgument("create source", "logName", "must not be empty")
	}
	return nil
}

func sourceExistsError(source, bound string) error {
	return types.NewError(types.ErrCodeSourceManagement, "create source", source,
		errors.Errorf("source already registered to log %q", bound))
}

func sourceNotFound(op, source string) error {
	return types.NewError(types.ErrCodeSourceNotFound, op, source, nil)
}

// EventLogChannel is a write handle bound to one log, machine and source of
// an EventLog store. A handle is owned by a single sink; SetSource is not
// safe to call concurrently with WriteEntry.
type EventLogChannel struct {
	store   EventLog
	log     string
	machine string

	mu     sync.RWMutex
	source string
}

// NewEventLogChannel binds a handle. An empty log name selects
// DefaultLogName; an empty machine selects the local store.
func NewEventLogChannel(store EventLog, logName, machine, source string) *EventLogChannel {
	if strings.TrimSpace(logName) == "" {
		logName = DefaultLogName
	}
	return &EventLogChannel{
		store:   store,
		log:     logName,
		machine: NormalizeMachine(machine),
		source:  source,
	}
}

// Log returns the bound log name
func (c *EventLogChannel) Log() string { return c.log }

// MachineName returns the bound host qualifier
func (c *EventLogChannel) MachineName() string { return c.machine }

// Store returns the underlying store
func (c *EventLogChannel) Store() EventLog { return c.store }

// Source returns the source entries are written under
func (c *EventLogChannel) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// SetSource changes the source entries are written under
func (c *EventLogChannel) SetSource(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
}

// WriteEntry writes one entry under the current source
func (c *EventLogChannel) WriteEntry(message string, entryType severity.EntryType, eventID uint16) error {
	return c.store.WriteEntry(EventEntry{
		MachineName: c.machine,
		LogName:     c.log,
		Source:      c.Source(),
		Message:     message,
		Type:        entryType,
		EventID:     eventID,
	})
}

// DefaultEventLogDir returns the directory used by a file store opened with
// an empty DSN.
func DefaultEventLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "platformlog", "eventlog")
	}
	return filepath.Join(os.TempDir(), "platformlog", "eventlog")
}

// EventLogOpener opens a store for a parsed DSN
type EventLogOpener func(dsn *url.URL) (EventLog, error)

var (
	schemesMu sync.RWMutex
	schemes   = map[string]EventLogOpener{
		"file": func(u *url.URL) (EventLog, error) {
			path := u.Path
			if u.Host != "" && u.Host != "localhost" {
				path = filepath.Join(u.Host, u.Path)
			}
			if path == "" {
				path = DefaultEventLogDir()
			}
			return openFile(path)
		},
		"nats": func(u *url.URL) (EventLog, error) {
			store, err := NewNATSEventLog(u.String())
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		"memory": func(*url.URL) (EventLog, error) {
			return NewMemoryEventLog(), nil
		},
	}
)

func openFile(root string) (EventLog, error) {
	store, err := NewFileEventLog(root)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// RegisterEventLogScheme makes OpenEventLog handle scheme with opener
func RegisterEventLogScheme(scheme string, opener EventLogOpener) error {
	if scheme == "" {
		return errors.New("scheme cannot be empty")
	}
	if opener == nil {
		return errors.New("opener cannot be nil")
	}
	schemesMu.Lock()
	defer schemesMu.Unlock()
	schemes[strings.ToLower(scheme)] = opener
	return nil
}

// EventLogSchemes returns the registered DSN schemes
func EventLogSchemes() []string {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenEventLog opens a store from a DSN:
//
//	""               file store in DefaultEventLogDir
//	file:///path     file store rooted at /path
//	nats://host:port JetStream-backed store
//	memory://        in-process store
//
// Unregistered schemes fail with ErrPlatformUnsupported.
func OpenEventLog(dsn string) (EventLog, error) {
	if strings.TrimSpace(dsn) == "" {
		return openFile(DefaultEventLogDir())
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, types.NewError(types.ErrCodeInvalidConfig, "open event log", dsn, err)
	}

	schemesMu.RLock()
	opener, ok := schemes[strings.ToLower(u.Scheme)]
	schemesMu.RUnlock()
	if !ok {
		return nil, types.PlatformUnsupported("open event log", dsn,
			errors.Errorf("unsupported event log scheme %q", u.Scheme))
	}
	return opener(u)
}
