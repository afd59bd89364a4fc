package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}

	m := c.GetMetrics()
	if m.ErrorCount != 0 || m.WriteCount != 0 || m.DiagnosticCount != 0 {
		t.Errorf("expected zero initial metrics, got %+v", m)
	}
	if c.Registry() == nil {
		t.Error("Registry() returned nil")
	}
}

func TestTrackEmit(t *testing.T) {
	c := NewCollector()

	tests := []struct {
		name  string
		sink  string
		level string
		count int
	}{
		{"Single console event", "console", "Information", 1},
		{"Several buffer warnings", "buffer", "Warning", 5},
		{"Many eventlog errors", "eventlog", "Error", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.count; i++ {
				c.TrackEmit(tt.sink, tt.level, time.Millisecond)
			}

			if got := c.GetMetrics().EventsLogged[tt.level]; got != uint64(tt.count) {
				t.Errorf("EventsLogged[%q] = %d, want %d", tt.level, got, tt.count)
			}
			if got := testutil.ToFloat64(c.events.WithLabelValues(tt.sink, tt.level)); got != float64(tt.count) {
				t.Errorf("events_total{%s,%s} = %v, want %d", tt.sink, tt.level, got, tt.count)
			}
		})
	}
}

func TestWriteTimes(t *testing.T) {
	c := NewCollector()

	c.TrackEmit("console", "Debug", 10*time.Millisecond)
	c.TrackEmit("console", "Debug", 30*time.Millisecond)

	m := c.GetMetrics()
	if m.WriteCount != 2 {
		t.Errorf("WriteCount = %d, want 2", m.WriteCount)
	}
	if m.AverageWriteTime != 20*time.Millisecond {
		t.Errorf("AverageWriteTime = %v, want 20ms", m.AverageWriteTime)
	}
	if m.MaxWriteTime != 30*time.Millisecond {
		t.Errorf("MaxWriteTime = %v, want 30ms", m.MaxWriteTime)
	}
}

func TestTrackError(t *testing.T) {
	c := NewCollector()

	c.TrackError("eventlog")
	c.TrackError("eventlog")
	c.TrackError("console")

	m := c.GetMetrics()
	if m.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", m.ErrorCount)
	}
	if m.ErrorsBySink["eventlog"] != 2 {
		t.Errorf("ErrorsBySink[eventlog] = %d, want 2", m.ErrorsBySink["eventlog"])
	}
	if got := testutil.ToFloat64(c.failures.WithLabelValues("console")); got != 1 {
		t.Errorf("failures_total{console} = %v, want 1", got)
	}
}

func TestTrackDiagnostic(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 4; i++ {
		c.TrackDiagnostic()
	}

	if got := c.GetMetrics().DiagnosticCount; got != 4 {
		t.Errorf("DiagnosticCount = %d, want 4", got)
	}
	if got := testutil.ToFloat64(c.diagnostics); got != 4 {
		t.Errorf("diagnostics_total = %v, want 4", got)
	}
}

func TestResetMetrics(t *testing.T) {
	c := NewCollector()
	c.TrackEmit("buffer", "Verbose", time.Millisecond)
	c.TrackError("buffer")
	c.TrackDiagnostic()

	c.ResetMetrics()

	m := c.GetMetrics()
	if len(m.EventsLogged) != 0 || m.ErrorCount != 0 || m.WriteCount != 0 || m.DiagnosticCount != 0 {
		t.Errorf("expected reset snapshot, got %+v", m)
	}
	if got := testutil.ToFloat64(c.events.WithLabelValues("buffer", "Verbose")); got != 1 {
		t.Errorf("events_total must survive reset, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.TrackEmit("console", "Information", time.Millisecond)
	c.TrackError("eventlog")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	for _, want := range []string{
		`platformlog_sink_events_total{level="Information",sink="console"} 1`,
		`platformlog_sink_failures_total{sink="eventlog"} 1`,
		"platformlog_sink_emit_duration_seconds_count",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestConcurrentTracking(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.TrackEmit("console", "Information", time.Microsecond)
				c.TrackError("console")
			}
		}()
	}
	wg.Wait()

	m := c.GetMetrics()
	if m.EventsLogged["Information"] != 800 {
		t.Errorf("EventsLogged = %d, want 800", m.EventsLogged["Information"])
	}
	if m.ErrorCount != 800 {
		t.Errorf("ErrorCount = %d, want 800", m.ErrorCount)
	}
}
