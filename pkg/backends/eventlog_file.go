package backends

import (
	"bufio"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wayneeseguin/platformlog/pkg/types"
)

// FileEventLog is an EventLog persisted under a root directory:
//
//	<root>/<machine>/sources.json       source -> log bindings
//	<root>/<machine>/logs/<log>.jsonl   one JSON entry per line
//
// Every operation holds an exclusive flock on <root>/<machine>/.lock, so
// several processes may share a root.
type FileEventLog struct {
	root string
}

// NewFileEventLog creates the root directory if needed
func NewFileEventLog(root string) (*FileEventLog, error) {
	root = filepath.Clean(root)
	// #nosec G301 - event logs are shared with other processes
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, types.PlatformUnsupported("open event log", root, errors.Wrap(err, "create directory"))
	}
	return &FileEventLog{root: root}, nil
}

// Root returns the store directory
func (f *FileEventLog) Root() string {
	return f.root
}

func (f *FileEventLog) machineDir(machine string) string {
	machine = NormalizeMachine(machine)
	if machine == LocalMachine {
		machine = "local"
	}
	return filepath.Join(f.root, url.PathEscape(strings.ToLower(machine)))
}

func (f *FileEventLog) logPath(logName, machine string) string {
	return filepath.Join(f.machineDir(machine), "logs", url.PathEscape(strings.ToLower(logName))+".jsonl")
}

// withLock runs fn with the machine directory locked and its source table
// loaded. When fn reports a change the table is written back.
func (f *FileEventLog) withLock(machine string, fn func(sources map[string]sourceBinding) (bool, error)) error {
	dir := f.machineDir(machine)
	// #nosec G301
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0755); err != nil {
		return errors.Wrap(err, "create directory")
	}

	lock := flock.New(filepath.Join(dir, ".lock"))
	if err := lock.Lock(); err != nil {
		return errors.Wrap(err, "acquire lock")
	}
	defer func() {
		_ = lock.Unlock() // Best effort unlock
	}()

	sources, err := f.readSources(dir)
	if err != nil {
		return err
	}
	changed, err := fn(sources)
	if err != nil {
		return err
	}
	if changed {
		return f.writeSources(dir, sources)
	}
	return nil
}

func (f *FileEventLog) readSources(dir string) (map[string]sourceBinding, error) {
	sources := make(map[string]sourceBinding)
	data, err := os.ReadFile(filepath.Join(dir, "sources.json")) // #nosec G304
	if os.IsNotExist(err) {
		return sources, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read sources")
	}
	if len(data) == 0 {
		return sources, nil
	}
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, errors.Wrap(err, "decode sources")
	}
	return sources, nil
}

func (f *FileEventLog) writeSources(dir string, sources map[string]sourceBinding) error {
	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode sources")
	}
	tmp := filepath.Join(dir, "sources.json.tmp")
	// #nosec G306 - source table is shared
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "write sources")
	}
	return errors.Wrap(os.Rename(tmp, filepath.Join(dir, "sources.json")), "replace sources")
}

// SourceExists implements EventLog
func (f *FileEventLog) SourceExists(source, machine string) (bool, error) {
	var exists bool
	err := f.withLock(machine, func(sources map[string]sourceBinding) (bool, error) {
		_, exists = sources[sourceKey(source)]
		return false, nil
	})
	if err != nil {
		return false, types.NewError(types.ErrCodeSourceManagement, "check source", source, err)
	}
	return exists, nil
}

// CreateSource implements EventLog
func (f *FileEventLog) CreateSource(data SourceCreationData) error {
	if err := validateCreate(data); err != nil {
		return err
	}
	var conflict error
	err := f.withLock(data.MachineName, func(sources map[string]sourceBinding) (bool, error) {
		if b, ok := sources[sourceKey(data.Source)]; ok {
			conflict = sourceExistsError(data.Source, b.Log)
			return false, nil
		}
		sources[sourceKey(data.Source)] = sourceBinding{Source: data.Source, Log: data.LogName}
		return true, nil
	})
	if err != nil {
		return types.NewError(types.ErrCodeSourceManagement, "create source", data.Source, err)
	}
	return conflict
}

// DeleteSource implements EventLog
func (f *FileEventLog) DeleteSource(source, machine string) error {
	var missing bool
	err := f.withLock(machine, func(sources map[string]sourceBinding) (bool, error) {
		if _, ok := sources[sourceKey(source)]; !ok {
			missing = true
			return false, nil
		}
		delete(sources, sourceKey(source))
		return true, nil
	})
	if err != nil {
		return types.NewError(types.ErrCodeSourceManagement, "delete source", source, err)
	}
	if missing {
		return sourceNotFound("delete source", source)
	}
	return nil
}

// LogNameFromSource implements EventLog
func (f *FileEventLog) LogNameFromSource(source, machine string) (string, error) {
	var logName string
	err := f.withLock(machine, func(sources map[string]sourceBinding) (bool, error) {
		logName = sources[sourceKey(source)].Log
		return false, nil
	})
	if err != nil {
		return "", types.NewError(types.ErrCodeSourceManagement, "resolve log", source, err)
	}
	return logName, nil
}

// WriteEntry implements EventLog
func (f *FileEventLog) WriteEntry(entry EventEntry) error {
	var mismatch error
	err := f.withLock(entry.MachineName, func(sources map[string]sourceBinding) (bool, error) {
		key := sourceKey(entry.Source)
		b, registered := sources[key]
		if mismatch = checkBinding(entry, b.Log); mismatch != nil {
			return false, nil
		}
		if !registered {
			sources[key] = sourceBinding{Source: entry.Source, Log: entry.LogName}
		}
		return !registered, f.appendEntry(entry)
	})
	if mismatch != nil {
		return mismatch
	}
	return err
}

func (f *FileEventLog) appendEntry(entry EventEntry) error {
	stored := StoredEntry{
		EventEntry: entry,
		RecordID:   uuid.NewString(),
		Written:    time.Now().UTC(),
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return errors.Wrap(err, "encode entry")
	}
	data = append(data, '\n')

	// #nosec G302 - event logs need to be readable
	file, err := os.OpenFile(f.logPath(entry.LogName, entry.MachineName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "open log")
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return errors.Wrap(err, "append entry")
	}
	return errors.Wrap(file.Close(), "close log")
}

// ListSources implements SourceLister
func (f *FileEventLog) ListSources(machine string) (map[string]string, error) {
	out := make(map[string]string)
	err := f.withLock(machine, func(sources map[string]sourceBinding) (bool, error) {
		for _, b := range sources {
			out[b.Source] = b.Log
		}
		return false, nil
	})
	return out, err
}

// ReadEntries implements EntryReader. A non-positive limit returns all
// entries; otherwise the newest limit entries are returned, oldest first.
func (f *FileEventLog) ReadEntries(logName, machine string, limit int) ([]StoredEntry, error) {
	file, err := os.Open(f.logPath(logName, machine)) // #nosec G304
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open log")
	}
	defer file.Close()

	var entries []StoredEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e StoredEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) > limit {
			entries = entries[1:]
		}
	}
	return entries, errors.Wrap(scanner.Err(), "read log")
}
