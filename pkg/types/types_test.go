package types

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantText []string
		wantHole []string
	}{
		{
			name:     "plain text",
			text:     "Connected",
			wantText: []string{"Connected"},
		},
		{
			name:     "single hole",
			text:     "Upload failed for {user}",
			wantText: []string{"Upload failed for "},
			wantHole: []string{"user"},
		},
		{
			name:     "escaped braces",
			text:     "literal {{braces}} here",
			wantText: []string{"literal {braces} here"},
		},
		{
			name:     "format and alignment",
			text:     "{Elapsed,8:N2} ms for {@Request}",
			wantText: []string{" ms for "},
			wantHole: []string{"Elapsed", "Request"},
		},
		{
			name:     "malformed hole kept as text",
			text:     "bad {not valid} hole",
			wantText: []string{"bad {not valid} hole"},
		},
		{
			name:     "unterminated hole",
			text:     "open {brace",
			wantText: []string{"open {brace"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := ParseTemplate(tt.text)
			if tmpl.Text != tt.text {
				t.Errorf("Text = %q, want %q", tmpl.Text, tt.text)
			}

			var texts, holes []string
			for _, tok := range tmpl.Tokens {
				switch tok.Kind {
				case TextToken:
					texts = append(texts, tok.Text)
				case PropertyToken:
					holes = append(holes, tok.Name)
				}
			}
			if fmt.Sprint(texts) != fmt.Sprint(tt.wantText) {
				t.Errorf("text tokens = %q, want %q", texts, tt.wantText)
			}
			if fmt.Sprint(holes) != fmt.Sprint(tt.wantHole) {
				t.Errorf("holes = %q, want %q", holes, tt.wantHole)
			}
		})
	}
}

func TestParseTemplateHoleDetails(t *testing.T) {
	tmpl := ParseTemplate("{@Request} took {Elapsed,-8:N2} {$Kind}")

	var holes []Token
	for _, tok := range tmpl.Tokens {
		if tok.Kind == PropertyToken {
			holes = append(holes, tok)
		}
	}
	if len(holes) != 3 {
		t.Fatalf("expected 3 holes, got %d", len(holes))
	}
	if holes[0].Destructure != DestructureStructure {
		t.Errorf("expected @ destructuring on %s", holes[0].Name)
	}
	if holes[1].Alignment != -8 || holes[1].Format != "N2" {
		t.Errorf("Elapsed alignment/format = %d/%q", holes[1].Alignment, holes[1].Format)
	}
	if holes[2].Destructure != DestructureStringify {
		t.Errorf("expected $ stringify on %s", holes[2].Name)
	}
}

func TestPropertyNames(t *testing.T) {
	tmpl := ParseTemplate("{a} then {b} then {a} again")
	names := tmpl.PropertyNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("PropertyNames() = %v", names)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"verbose", LevelTrace, false},
		{"TRACE", LevelTrace, false},
		{"debug", LevelDebug, false},
		{"Information", LevelInfo, false},
		{" warn ", LevelWarning, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelNames(t *testing.T) {
	if LevelWarning.ShortName() != "WRN" {
		t.Errorf("ShortName = %q", LevelWarning.ShortName())
	}
	if Level(42).Valid() {
		t.Error("Level(42) should not be valid")
	}
	if Level(42).String() != "Level(42)" {
		t.Errorf("String = %q", Level(42).String())
	}
}

func TestNewLogEventCopiesProperties(t *testing.T) {
	props := Properties{"user": "alice"}
	evt := NewLogEvent(time.Now(), LevelInfo, ParseTemplate("Hello {user}"), props, nil)
	props["user"] = "mallory"

	v, ok := evt.Property("user")
	if !ok || v != "alice" {
		t.Errorf("Property(user) = %v, %v", v, ok)
	}
	if evt.TemplateText() != "Hello {user}" {
		t.Errorf("TemplateText = %q", evt.TemplateText())
	}
}

func TestErrorIs(t *testing.T) {
	err := InvalidArgument("create sink", "source", "source cannot be empty")

	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("expected error to match ErrInvalidArgument")
	}
	if errors.Is(err, ErrPlatformWrite) {
		t.Error("did not expect error to match ErrPlatformWrite")
	}
	if !errors.Is(err, &Error{Code: ErrCodeInvalidArgument}) {
		t.Error("expected code comparison to match")
	}
	if CodeOf(fmt.Errorf("wrapped: %w", err)) != ErrCodeInvalidArgument {
		t.Error("CodeOf should see through wrapping")
	}
	if CodeOf(errors.New("plain")) != ErrCodeUnknown {
		t.Error("plain errors carry no code")
	}
}

func TestPlatformWriteUnwrap(t *testing.T) {
	denied := errors.New("access denied")
	err := PlatformWrite("Application", denied)

	if !errors.Is(err, denied) {
		t.Error("expected underlying error in chain")
	}
	if !errors.Is(err, ErrPlatformWrite) {
		t.Error("expected ErrPlatformWrite")
	}
	if err.Error() != "write entry failed on Application: access denied" {
		t.Errorf("Error() = %q", err.Error())
	}
}
