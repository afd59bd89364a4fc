package formatters

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatProvider supplies culture-specific formatting of numbers.
type FormatProvider struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatProvider returns a provider for the given language.
func NewFormatProvider(tag language.Tag) *FormatProvider {
	return &FormatProvider{tag: tag, printer: message.NewPrinter(tag)}
}

// ParseFormatProvider parses a BCP 47 tag such as "de-DE". An empty string
// returns nil, meaning invariant formatting.
func ParseFormatProvider(s string) (*FormatProvider, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return nil, err
	}
	return NewFormatProvider(tag), nil
}

// Tag returns the provider's language.
func (p *FormatProvider) Tag() language.Tag {
	return p.tag
}

// invariant formats explicit numeric format codes when no provider is set.
var invariant = NewFormatProvider(language.AmericanEnglish)

// valueOptions controls how a single property value is rendered.
type valueOptions struct {
	format    string // value format specifier, e.g. "N2", "yyyy-MM-dd", "l"
	literal   bool   // strings are written without quotes
	json      bool   // structured values are written as JSON
	structure bool   // "@" destructuring hint
	provider  *FormatProvider
}

// renderValue converts a property value to text.
func renderValue(v interface{}, opts valueOptions) string {
	if opts.format == "l" {
		opts.literal = true
		opts.format = ""
	}

	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return renderString(val, opts)
	case []byte:
		return renderString(string(val), opts)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if opts.format != "" {
			return val.Format(TimeLayout(opts.format))
		}
		return val.Format(time.RFC3339Nano)
	case time.Duration:
		return val.String()
	case error:
		return renderString(val.Error(), opts)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return renderNumber(val, opts)
	case fmt.Stringer:
		return val.String()
	}

	if opts.structure || opts.json || isStructured(v) {
		return renderStructured(v, opts)
	}
	return fmt.Sprint(v)
}

func renderString(s string, opts valueOptions) string {
	if opts.literal {
		return s
	}
	if opts.json {
		b, _ := json.Marshal(s)
		return string(b)
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func isStructured(v interface{}) bool {
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

func renderStructured(v interface{}, opts valueOptions) string {
	if opts.json {
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	inner := valueOptions{provider: opts.provider, json: opts.json}
	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%v: %s", k.Interface(), renderValue(rv.MapIndex(k).Interface(), inner)))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = renderValue(rv.Index(i).Interface(), inner)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// renderNumber applies a .NET-style numeric format code (N, F, P, E, D, X)
// using the provider's locale, or the plain Go representation when there
// is no format code.
func renderNumber(v interface{}, opts valueOptions) string {
	p := opts.provider
	if opts.format == "" {
		if p != nil {
			return p.printer.Sprint(v)
		}
		return fmt.Sprint(v)
	}
	if p == nil {
		p = invariant
	}

	code := opts.format[0]
	digits := -1
	if len(opts.format) > 1 {
		if n, err := strconv.Atoi(opts.format[1:]); err == nil {
			digits = n
		}
	}
	fraction := func(def int) []number.Option {
		if digits < 0 {
			digits = def
		}
		return []number.Option{number.MinFractionDigits(digits), number.MaxFractionDigits(digits)}
	}

	switch code {
	case 'N', 'n':
		return p.printer.Sprint(number.Decimal(v, fraction(2)...))
	case 'F', 'f':
		return p.printer.Sprint(number.Decimal(v, append(fraction(2), number.NoSeparator())...))
	case 'P', 'p':
		return p.printer.Sprint(number.Percent(v, fraction(2)...))
	case 'E', 'e':
		f, _ := toFloat(v)
		if digits < 0 {
			digits = 6
		}
		return strconv.FormatFloat(f, byte(code), digits, 64)
	case 'D', 'd':
		if i, ok := toInt(v); ok {
			if digits < 0 {
				digits = 0
			}
			return fmt.Sprintf("%0*d", digits, i)
		}
	case 'X', 'x':
		if i, ok := toInt(v); ok {
			if digits < 0 {
				digits = 0
			}
			if code == 'X' {
				return fmt.Sprintf("%0*X", digits, i)
			}
			return fmt.Sprintf("%0*x", digits, i)
		}
	}
	return fmt.Sprint(v)
}

func toFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func toInt(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

// pad applies a template alignment: positive widths right-align, negative
// widths left-align.
func pad(s string, alignment int) string {
	if alignment == 0 {
		return s
	}
	width := alignment
	if width < 0 {
		width = -width
	}
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	fill := strings.Repeat(" ", width-n)
	if alignment < 0 {
		return s + fill
	}
	return fill + s
}

// FormatValue renders a single property value. Format "l" writes strings
// without quotes.
func FormatValue(v interface{}, format string, provider *FormatProvider) string {
	return renderValue(v, valueOptions{format: format, provider: provider})
}
