package sinks

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/eventid"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/selflog"
	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

func newEvent(level types.Level, tmpl string, props types.Properties) *types.LogEvent {
	return types.NewLogEvent(time.Now(), level, types.ParseTemplate(tmpl), props, nil)
}

func mustFormatter(t *testing.T, tmpl string) formatters.Formatter {
	t.Helper()
	f, err := formatters.NewTemplateFormatter(tmpl)
	if err != nil {
		t.Fatalf("NewTemplateFormatter: %v", err)
	}
	return f
}

// rawFormatter writes the template text only
var rawFormatter = formatters.FormatterFunc(func(e *types.LogEvent, w io.Writer) error {
	_, err := io.WriteString(w, e.TemplateText())
	return err
})

func TestBufferSink(t *testing.T) {
	ring := backends.NewRingBuffer(10)
	sink, err := NewBufferSink(ring, mustFormatter(t, formatters.DefaultOutputTemplate))
	if err != nil {
		t.Fatalf("NewBufferSink: %v", err)
	}

	tests := []struct {
		level    types.Level
		props    types.Properties
		wantPrio severity.BufferPriority
		wantTag  string
	}{
		{types.LevelTrace, nil, severity.PriorityVerbose, ""},
		{types.LevelInfo, types.Properties{"SourceContext": "MyApp.Net"}, severity.PriorityInfo, "MyApp.Net"},
		{types.LevelFatal, types.Properties{"SourceContext": "Core"}, severity.PriorityAssert, "Core"},
		{types.Level(42), nil, severity.PriorityVerbose, ""},
	}
	for _, tt := range tests {
		if err := sink.Emit(newEvent(tt.level, "hello", tt.props)); err != nil {
			t.Fatalf("Emit(%v): %v", tt.level, err)
		}
	}

	entries := ring.Entries()
	if len(entries) != len(tests) {
		t.Fatalf("expected %d entries, got %d", len(tests), len(entries))
	}
	for i, tt := range tests {
		if entries[i].Priority != tt.wantPrio || entries[i].Tag != tt.wantTag {
			t.Errorf("entry %d = %v/%q, want %v/%q", i, entries[i].Priority, entries[i].Tag, tt.wantPrio, tt.wantTag)
		}
	}
	if entries[1].Text != "[Information] hello\n" {
		t.Errorf("payload = %q", entries[1].Text)
	}
}

type failingBuffer struct{}

func (failingBuffer) WriteBuffer(severity.BufferPriority, string, string) error {
	return errors.New("buffer full")
}

func TestBufferSinkIgnoresWriteErrors(t *testing.T) {
	rec := &selflog.Recorder{}
	sink, _ := NewBufferSink(failingBuffer{}, rawFormatter)
	sink.WithDiagnostics(rec)

	if err := sink.Emit(newEvent(types.LevelInfo, "Upload {File}", nil)); err != nil {
		t.Errorf("buffer write errors must not surface, got %v", err)
	}

	lines := rec.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "buffer full") || !strings.Contains(lines[0], "Upload {File}") {
		t.Errorf("diagnostic = %q", lines[0])
	}
}

func TestSinkConstructionValidation(t *testing.T) {
	if _, err := NewBufferSink(backends.NewRingBuffer(1), nil); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("buffer sink without formatter: %v", err)
	}
	if _, err := NewBufferSink(nil, rawFormatter); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("buffer sink without buffer: %v", err)
	}
	if _, err := NewConsoleSink(nil, nil); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("console sink without formatter: %v", err)
	}

	store := backends.NewMemoryEventLog()
	for _, src := range []string{"", "   "} {
		_, err := NewEventLogSink(store, EventLogConfig{Source: src, Formatter: rawFormatter})
		if !errors.Is(err, types.ErrInvalidArgument) {
			t.Errorf("source %q: expected ErrInvalidArgument, got %v", src, err)
		}
	}
	if _, err := NewEventLogSink(store, EventLogConfig{Source: "App"}); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("event log sink without formatter: %v", err)
	}
	if _, err := NewEventLogSink(nil, EventLogConfig{Source: "App", Formatter: rawFormatter}); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("event log sink without store: %v", err)
	}
}

func TestEmitNilEvent(t *testing.T) {
	console, _ := NewConsoleSink(backends.NewConsole(io.Discard, io.Discard), rawFormatter)
	buffer, _ := NewBufferSink(backends.NewRingBuffer(1), rawFormatter)
	eventLog, _ := NewEventLogSink(backends.NewMemoryEventLog(), EventLogConfig{Source: "App", Formatter: rawFormatter})

	for _, s := range []Sink{console, buffer, eventLog} {
		if err := s.Emit(nil); !errors.Is(err, types.ErrInvalidArgument) {
			t.Errorf("%T.Emit(nil) = %v, want ErrInvalidArgument", s, err)
		}
	}
}

func TestConsoleSinkRoutesErrorsToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	sink, err := NewConsoleSink(backends.NewConsole(&out, &errOut), mustFormatter(t, formatters.DefaultOutputTemplate))
	if err != nil {
		t.Fatalf("NewConsoleSink: %v", err)
	}

	evt := newEvent(types.LevelError, "Upload failed for {user}", types.Properties{"user": "alice"})
	if err := sink.Emit(evt); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", out.String())
	}
	if errOut.String() != "[Error] Upload failed for alice\n" {
		t.Errorf("stderr = %q", errOut.String())
	}

	tests := []struct {
		level  types.Level
		stderr bool
	}{
		{types.LevelTrace, false},
		{types.LevelDebug, false},
		{types.LevelInfo, false},
		{types.LevelWarning, false},
		{types.LevelFatal, true},
		{types.Level(-3), false},
	}
	for _, tt := range tests {
		out.Reset()
		errOut.Reset()
		_ = sink.Emit(newEvent(tt.level, "line", nil))
		if (errOut.Len() > 0) != tt.stderr || (out.Len() > 0) == tt.stderr {
			t.Errorf("level %v: stdout=%q stderr=%q", tt.level, out.String(), errOut.String())
		}
	}
}

func TestConsoleSinkPropagatesFormatterError(t *testing.T) {
	boom := errors.New("bad template")
	sink, _ := NewConsoleSink(backends.NewConsole(io.Discard, io.Discard),
		formatters.FormatterFunc(func(*types.LogEvent, io.Writer) error { return boom }))
	if err := sink.Emit(newEvent(types.LevelInfo, "x", nil)); !errors.Is(err, boom) {
		t.Errorf("expected formatter error, got %v", err)
	}
}

func TestEventLogSinkSourceSanitizing(t *testing.T) {
	rec := &selflog.Recorder{}
	long := strings.Repeat("s", MaxSourceNameLength+20)

	tests := []struct {
		name      string
		source    string
		want      string
		diagLines int
	}{
		{"plain", "MyApp", "MyApp", 0},
		{"angle brackets", "<My>App", "_My_App", 0},
		{"exact limit", long[:MaxSourceNameLength], long[:MaxSourceNameLength], 0},
		{"too long", long, long[:MaxSourceNameLength], 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Reset()
			sink, err := NewEventLogSink(backends.NewMemoryEventLog(), EventLogConfig{
				Source: tt.source, Formatter: rawFormatter, Diagnostics: rec,
			})
			if err != nil {
				t.Fatalf("NewEventLogSink: %v", err)
			}
			if sink.Source() != tt.want {
				t.Errorf("Source() = %q, want %q", sink.Source(), tt.want)
			}
			if rec.Len() != tt.diagLines {
				t.Errorf("diagnostics = %v, want %d lines", rec.Lines(), tt.diagLines)
			}
		})
	}
}

func TestEventLogSinkDefaults(t *testing.T) {
	sink, err := NewEventLogSink(backends.NewMemoryEventLog(), EventLogConfig{Source: "App", LogName: " \t", Formatter: rawFormatter})
	if err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}
	if sink.LogName() != backends.DefaultLogName || sink.MachineName() != backends.LocalMachine {
		t.Errorf("LogName=%q MachineName=%q", sink.LogName(), sink.MachineName())
	}
}

func TestEventLogSinkEmit(t *testing.T) {
	store := backends.NewMemoryEventLog()
	sink, err := NewEventLogSink(store, EventLogConfig{Source: "MyApp", Formatter: mustFormatter(t, "{Message:l}")})
	if err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}

	levels := []types.Level{types.LevelInfo, types.LevelWarning, types.LevelError, types.LevelFatal, types.LevelTrace}
	for _, level := range levels {
		if err := sink.Emit(newEvent(level, "Connected", nil)); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	entries, _ := store.ReadEntries(backends.DefaultLogName, "", 0)
	if len(entries) != len(levels) {
		t.Fatalf("expected %d writes, got %d", len(levels), len(entries))
	}
	wantTypes := []severity.EntryType{severity.EntryInformation, severity.EntryWarning, severity.EntryError, severity.EntryError, severity.EntryInformation}
	for i, e := range entries {
		if e.EventID != 27101 {
			t.Errorf("entry %d id = %d, want 27101", i, e.EventID)
		}
		if e.Type != wantTypes[i] {
			t.Errorf("entry %d type = %v, want %v", i, e.Type, wantTypes[i])
		}
		if e.Source != "MyApp" || e.Message != "Connected" {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
}

func TestEventLogSinkTruncatesPayload(t *testing.T) {
	rec := &selflog.Recorder{}
	store := backends.NewMemoryEventLog()
	sink, _ := NewEventLogSink(store, EventLogConfig{Source: "App", Formatter: rawFormatter, Diagnostics: rec})

	big := strings.Repeat("é", MaxPayloadLength+100)
	if err := sink.Emit(newEvent(types.LevelInfo, big, nil)); err != nil {
		t.Fatalf("Emit must succeed on oversized payloads: %v", err)
	}

	entries, _ := store.ReadEntries(backends.DefaultLogName, "", 0)
	if len(entries) != 1 {
		t.Fatalf("expected one write, got %d", len(entries))
	}
	if entries[0].Message != strings.Repeat("é", MaxPayloadLength) {
		t.Errorf("payload length = %d characters", len([]rune(entries[0].Message)))
	}
	if rec.Len() != 1 {
		t.Errorf("expected one diagnostic, got %v", rec.Lines())
	}
}

func TestEventLogSinkPlatformWriteFailure(t *testing.T) {
	store := backends.NewMemoryEventLog()
	sink, _ := NewEventLogSink(store, EventLogConfig{Source: "App", Formatter: rawFormatter})

	denied := errors.New("access denied")
	store.SetWriteError(denied)

	err := sink.Emit(newEvent(types.LevelError, "x", nil))
	if !errors.Is(err, types.ErrPlatformWrite) || !errors.Is(err, denied) {
		t.Errorf("expected platform write error wrapping cause, got %v", err)
	}

	store.SetWriteError(nil)
	if err := sink.Emit(newEvent(types.LevelError, "x", nil)); err != nil {
		t.Errorf("sink state must be unaffected by a failed write: %v", err)
	}
}

func TestEventLogSinkUsesProvider(t *testing.T) {
	store := backends.NewMemoryEventLog()
	sink, _ := NewEventLogSink(store, EventLogConfig{
		Source:          "App",
		Formatter:       rawFormatter,
		EventIDProvider: eventid.ProviderFunc(func(*types.LogEvent) (uint16, error) { return 7, nil }),
	})
	_ = sink.Emit(newEvent(types.LevelInfo, "anything", nil))

	entries, _ := store.ReadEntries(backends.DefaultLogName, "", 0)
	if len(entries) != 1 || entries[0].EventID != 7 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestUnmanagedSourceMakesNoRegistrationCalls(t *testing.T) {
	store := backends.NewMemoryEventLog()
	sink, err := NewEventLogSink(store, EventLogConfig{Source: "Fresh", Formatter: rawFormatter, ManageSource: false})
	if err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}
	if calls := store.Calls(); len(calls) != 0 {
		t.Errorf("expected no management calls, got %v", calls)
	}
	if err := sink.Emit(newEvent(types.LevelInfo, "Connected", nil)); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

func TestManagedSourceRegistersWhenMissing(t *testing.T) {
	store := backends.NewMemoryEventLog()
	sink, err := NewEventLogSink(store, EventLogConfig{Source: "Fresh", LogName: "Custom", Formatter: rawFormatter, ManageSource: true})
	if err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}
	if sink.SourceState() != SourceRegisteredCorrectly {
		t.Errorf("state = %v", sink.SourceState())
	}
	if logName, _ := store.LogNameFromSource("Fresh", ""); logName != "Custom" {
		t.Errorf("source bound to %q, want Custom", logName)
	}
}

func TestManagedSourceAlreadyCorrect(t *testing.T) {
	store := backends.NewMemoryEventLog()
	_ = store.CreateSource(backends.SourceCreationData{Source: "App", LogName: "application"})

	rec := &selflog.Recorder{}
	sink, err := NewEventLogSink(store, EventLogConfig{Source: "App", Formatter: rawFormatter, ManageSource: true, Diagnostics: rec})
	if err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}
	if sink.SourceState() != SourceRegisteredCorrectly || rec.Len() != 0 {
		t.Errorf("state=%v diagnostics=%v", sink.SourceState(), rec.Lines())
	}
	want := []string{"CreateSource(App, application)", "SourceExists(App)", "LogNameFromSource(App)"}
	if calls := store.Calls(); strings.Join(calls, ";") != strings.Join(want, ";") {
		t.Errorf("management calls = %v, want %v", calls, want)
	}
}

func TestManagedSourceRepair(t *testing.T) {
	store := backends.NewMemoryEventLog()
	_ = store.CreateSource(backends.SourceCreationData{Source: "MyApp", LogName: "Legacy"})

	rec := &selflog.Recorder{}
	sink, err := NewEventLogSink(store, EventLogConfig{
		Source: "MyApp", LogName: "Application", Formatter: rawFormatter, ManageSource: true, Diagnostics: rec,
	})
	if err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}
	if sink.SourceState() != SourceRepaired {
		t.Errorf("state = %v, want Repaired", sink.SourceState())
	}

	if logName, _ := store.LogNameFromSource("MyApp", ""); logName != "Application" {
		t.Errorf("source bound to %q after repair", logName)
	}
	if exists, _ := store.SourceExists(MetaSource("Application"), ""); !exists {
		t.Error("meta-source was not created")
	}
	if rec.Len() != 1 {
		t.Errorf("expected one repair diagnostic, got %v", rec.Lines())
	}

	if err := sink.Emit(newEvent(types.LevelInfo, "Connected", nil)); err != nil {
		t.Fatalf("Emit after repair: %v", err)
	}

	entries, _ := store.ReadEntries("Application", "", 0)
	if len(entries) != 2 {
		t.Fatalf("expected notice plus one entry, got %d", len(entries))
	}
	notice := entries[0]
	if notice.Source != "platformlog-Application" || notice.EventID != eventid.SourceMovedEventID || notice.Type != severity.EntryInformation {
		t.Errorf("notice = %+v", notice)
	}
	if notice.Message != "The source 'MyApp' has been moved from the log 'Legacy' to the log 'Application'." {
		t.Errorf("notice message = %q", notice.Message)
	}
	if entries[1].Source != "MyApp" || entries[1].EventID != 27101 {
		t.Errorf("entry after repair = %+v", entries[1])
	}
}

func TestManagedSourceRepairReusesMetaSource(t *testing.T) {
	store := backends.NewMemoryEventLog()
	_ = store.CreateSource(backends.SourceCreationData{Source: "MyApp", LogName: "Legacy"})
	_ = store.CreateSource(backends.SourceCreationData{Source: "platformlog-Application", LogName: "Application"})

	if _, err := NewEventLogSink(store, EventLogConfig{Source: "MyApp", Formatter: rawFormatter, ManageSource: true, Diagnostics: selflog.Silent}); err != nil {
		t.Fatalf("NewEventLogSink: %v", err)
	}

	creates := 0
	for _, call := range store.Calls() {
		if strings.HasPrefix(call, "CreateSource(platformlog-") {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("meta-source should only be created by the setup, got %d creates", creates)
	}
}

type brokenStore struct {
	*backends.MemoryEventLog
}

func (brokenStore) SourceExists(string, string) (bool, error) {
	return false, errors.New("registry unavailable")
}

func TestManagedSourceStoreFailure(t *testing.T) {
	_, err := NewEventLogSink(brokenStore{backends.NewMemoryEventLog()}, EventLogConfig{Source: "App", Formatter: rawFormatter, ManageSource: true})
	if !errors.Is(err, types.ErrSourceManagement) {
		t.Errorf("expected ErrSourceManagement, got %v", err)
	}
}

func TestSourceLifecycleTransitions(t *testing.T) {
	store := backends.NewMemoryEventLog()
	channel := backends.NewEventLogChannel(store, "Application", "", "Svc")
	l := NewSourceLifecycle(channel, "Svc", selflog.Silent)

	state, err := l.Inspect()
	if err != nil || state != SourceUnregistered {
		t.Fatalf("Inspect = %v, %v", state, err)
	}
	next, err := l.Transition(state)
	if err != nil || next != SourceRegisteredCorrectly || !next.Terminal() {
		t.Fatalf("Transition(Unregistered) = %v, %v", next, err)
	}
	if again, _ := l.Transition(next); again != next {
		t.Errorf("terminal state changed to %v", again)
	}
	if _, err := l.Transition(SourceState(99)); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("unknown state: %v", err)
	}
	if SourceRegisteredElsewhere.Terminal() || SourceUnregistered.Terminal() {
		t.Error("non-terminal states reported terminal")
	}
}

func TestEventLogSinkConcurrentEmit(t *testing.T) {
	store := backends.NewMemoryEventLog()
	sink, _ := NewEventLogSink(store, EventLogConfig{Source: "App", Formatter: rawFormatter})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Emit(newEvent(types.LevelInfo, "Connected", nil))
		}()
	}
	wg.Wait()

	entries, _ := store.ReadEntries(backends.DefaultLogName, "", 0)
	if len(entries) != 50 {
		t.Errorf("expected 50 entries, got %d", len(entries))
	}
}
