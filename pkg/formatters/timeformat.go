package formatters

import (
	"strings"
	"time"
)

// standardTimeFormats maps single-letter .NET standard formats to Go layouts.
var standardTimeFormats = map[string]string{
	"o": "2006-01-02T15:04:05.0000000Z07:00",
	"O": "2006-01-02T15:04:05.0000000Z07:00",
	"s": "2006-01-02T15:04:05",
	"u": "2006-01-02 15:04:05Z",
	"r": time.RFC1123,
	"R": time.RFC1123,
	"d": "1/2/2006",
	"t": "3:04 PM",
	"T": "3:04:05 PM",
}

// customTimeTokens maps custom .NET date/time specifiers to Go layout
// fragments. Longer specifiers come first so they win over their prefixes.
var customTimeTokens = []struct {
	pattern string
	layout  string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"tt", "PM"},
	{"zzz", "-07:00"},
	{"zz", "-07"},
	{"K", "Z07:00"},
}

// TimeLayout converts a .NET-style date/time format string into a Go time
// layout. Strings that already look like Go layouts are returned unchanged.
func TimeLayout(format string) string {
	if format == "" {
		return time.RFC3339Nano
	}
	if layout, ok := standardTimeFormats[format]; ok {
		return layout
	}
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}

	var b strings.Builder
	for i := 0; i < len(format); {
		c := format[i]

		// fractional seconds: f, ff, fff ... (up to 7)
		if c == 'f' || c == 'F' {
			n := run(format, i, c)
			if n > 9 {
				n = 9
			}
			digit := "0"
			if c == 'F' {
				digit = "9"
			}
			// Go needs the fraction attached to a '.' or ','.
			if b.Len() == 0 || !strings.HasSuffix(b.String(), ".") && !strings.HasSuffix(b.String(), ",") {
				b.WriteByte('.')
			}
			b.WriteString(strings.Repeat(digit, n))
			i += run(format, i, c)
			continue
		}

		if c == '\\' && i+1 < len(format) {
			b.WriteByte(format[i+1])
			i += 2
			continue
		}

		if c == '\'' || c == '"' {
			end := strings.IndexByte(format[i+1:], c)
			if end < 0 {
				b.WriteString(format[i+1:])
				break
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, tok := range customTimeTokens {
			if strings.HasPrefix(format[i:], tok.pattern) {
				b.WriteString(tok.layout)
				i += len(tok.pattern)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func run(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}
