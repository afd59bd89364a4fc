package selflog

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"golang.org/x/time/rate"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Printf("payload trimmed to %d characters", 31839)
	r.Printf("second")

	lines := r.Lines()
	if len(lines) != 2 || lines[0] != "payload trimmed to 31839 characters" {
		t.Errorf("Lines() = %q", lines)
	}
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len after Reset = %d", r.Len())
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Printf("goroutine %d", i)
		}(i)
	}
	wg.Wait()
	if r.Len() != 20 {
		t.Errorf("expected 20 lines, got %d", r.Len())
	}
}

func TestNewWriterFormatsOneLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Printf("source %q moved\n", "app")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected exactly one line, got %q", out)
	}
	if !strings.HasSuffix(out, "source \"app\" moved\n") {
		t.Errorf("unexpected output %q", out)
	}
}

type panicWriter struct{}

func (panicWriter) Write([]byte) (int, error) { panic("broken pipe") }

func TestNewWriterNeverPanics(t *testing.T) {
	w := NewWriter(panicWriter{})
	w.Printf("this must not escape")
}

func TestDefaultSwap(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	rec := &Recorder{}
	SetDefault(rec)
	Printf("hello %s", "world")
	if rec.Len() != 1 {
		t.Fatalf("expected default writer to receive message")
	}

	if Resolve(nil) != Writer(rec) {
		t.Error("Resolve(nil) should return the default writer")
	}
	other := &Recorder{}
	if Resolve(other) != Writer(other) {
		t.Error("Resolve should prefer the injected writer")
	}

	Disable()
	Printf("dropped")
	if rec.Len() != 1 {
		t.Error("Disable should stop delivery to the old writer")
	}

	SetDefault(nil)
	Printf("still safe")
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi(a, nil, b).Printf("x")
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("Multi delivered %d/%d", a.Len(), b.Len())
	}
}

func TestLimited(t *testing.T) {
	rec := &Recorder{}
	l := Limited(rec, rate.Limit(0), 2)

	for i := 0; i < 5; i++ {
		l.Printf("message %d", i)
	}
	if rec.Len() != 2 {
		t.Errorf("expected burst of 2 to pass, got %d", rec.Len())
	}
	if l.Suppressed() != 3 {
		t.Errorf("Suppressed() = %d, want 3", l.Suppressed())
	}
}
