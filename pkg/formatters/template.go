package formatters

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Output template token names with special meaning.
const (
	TimestampToken  = "Timestamp"
	LevelToken      = "Level"
	MessageToken    = "Message"
	NewLineToken    = "NewLine"
	ExceptionToken  = "Exception"
	PropertiesToken = "Properties"
)

// TemplateFormatter renders events through an output template.
type TemplateFormatter struct {
	template *types.MessageTemplate
	provider *FormatProvider
	newline  string
	// names referenced directly by the output template; excluded from {Properties}
	referenced map[string]bool
}

// TemplateOption configures a TemplateFormatter.
type TemplateOption func(*TemplateFormatter)

// WithProvider sets the culture used for number formatting.
func WithProvider(p *FormatProvider) TemplateOption {
	return func(f *TemplateFormatter) {
		f.provider = p
	}
}

// WithNewLine overrides the text written for {NewLine}.
func WithNewLine(nl string) TemplateOption {
	return func(f *TemplateFormatter) {
		f.newline = nl
	}
}

// NewTemplateFormatter parses outputTemplate. An empty or blank template is
// rejected.
func NewTemplateFormatter(outputTemplate string, opts ...TemplateOption) (*TemplateFormatter, error) {
	if strings.TrimSpace(outputTemplate) == "" {
		return nil, types.InvalidArgument("create formatter", "outputTemplate", "must not be empty")
	}

	f := &TemplateFormatter{
		template:   types.ParseTemplate(outputTemplate),
		newline:    "\n",
		referenced: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	for _, name := range f.template.PropertyNames() {
		f.referenced[name] = true
	}
	return f, nil
}

// Template returns the output template text.
func (f *TemplateFormatter) Template() string {
	return f.template.Text
}

// Format implements Formatter.
func (f *TemplateFormatter) Format(event *types.LogEvent, w io.Writer) error {
	if event == nil {
		return types.InvalidArgument("format event", "event", "must not be nil")
	}

	var b strings.Builder
	for _, tok := range f.template.Tokens {
		if tok.Kind == types.TextToken {
			b.WriteString(tok.Text)
			continue
		}
		b.WriteString(pad(f.renderToken(event, tok), tok.Alignment))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return types.NewError(types.ErrCodeFormatFailed, "format event", f.template.Text, err)
	}
	return nil
}

func (f *TemplateFormatter) renderToken(event *types.LogEvent, tok types.Token) string {
	switch tok.Name {
	case TimestampToken:
		return event.Timestamp.Format(TimeLayout(tok.Format))
	case LevelToken:
		return FormatLevel(event.Level, tok.Format)
	case MessageToken:
		return RenderMessage(event, tok.Format, f.provider)
	case NewLineToken:
		return f.newline
	case ExceptionToken:
		if event.Exception == nil {
			return ""
		}
		return fmt.Sprintf("%+v", event.Exception) + f.newline
	case PropertiesToken:
		return f.renderProperties(event, tok.Format)
	}

	v, ok := event.Property(tok.Name)
	if !ok {
		return tok.Raw
	}
	opts := valueOptions{format: tok.Format, provider: f.provider, structure: tok.Destructure == types.DestructureStructure}
	if strings.ContainsRune(tok.Format, 'j') && !isNumericFormat(tok.Format) {
		opts.json = true
		opts.format = strings.ReplaceAll(tok.Format, "j", "")
	}
	return renderValue(v, opts)
}

// renderProperties lists properties not used by the message template or the
// output template, sorted by name.
func (f *TemplateFormatter) renderProperties(event *types.LogEvent, format string) string {
	inMessage := make(map[string]bool)
	for _, name := range event.MessageTemplate.PropertyNames() {
		inMessage[name] = true
	}

	names := make([]string, 0, len(event.Properties))
	for name := range event.Properties {
		if inMessage[name] || f.referenced[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	opts := valueOptions{provider: f.provider, json: strings.Contains(format, "j")}
	parts := make([]string, len(names))
	for i, name := range names {
		key := name
		if opts.json {
			key = `"` + name + `"`
		}
		parts[i] = key + ": " + renderValue(event.Properties[name], opts)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// RenderMessage renders the event's message template with its property
// values. Format "l" writes strings without quotes; "j" writes structured
// values as JSON.
func RenderMessage(event *types.LogEvent, format string, provider *FormatProvider) string {
	if event == nil || event.MessageTemplate == nil {
		return ""
	}
	literal := strings.Contains(format, "l")
	jsonValues := strings.Contains(format, "j")

	var b strings.Builder
	for _, tok := range event.MessageTemplate.Tokens {
		if tok.Kind == types.TextToken {
			b.WriteString(tok.Text)
			continue
		}
		v, ok := event.Property(tok.Name)
		if !ok {
			b.WriteString(tok.Raw)
			continue
		}
		opts := valueOptions{
			format:    tok.Format,
			literal:   literal,
			json:      jsonValues,
			structure: tok.Destructure == types.DestructureStructure,
			provider:  provider,
		}
		if tok.Destructure == types.DestructureStringify {
			v = fmt.Sprint(v)
		}
		b.WriteString(pad(renderValue(v, opts), tok.Alignment))
	}
	return b.String()
}

// FormatLevel renders a level using the output template level formats:
// "u3" (INF), "w3" (inf), "t3" (Inf), "u" (INFORMATION), "w" (information).
// Any other format gives the full name.
func FormatLevel(level types.Level, format string) string {
	name := level.String()
	short := level.ShortName()

	switch format {
	case "u3":
		return short
	case "w3":
		return strings.ToLower(short)
	case "t3":
		return titleCase(short)
	case "u":
		return strings.ToUpper(name)
	case "w":
		return strings.ToLower(name)
	case "t":
		return name
	}
	if len(format) == 2 && unicode.IsDigit(rune(format[1])) {
		n := int(format[1] - '0')
		if n > 0 && n < len(name) {
			name = name[:n]
		}
		switch format[0] {
		case 'u':
			return strings.ToUpper(name)
		case 'w':
			return strings.ToLower(name)
		}
	}
	return name
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func isNumericFormat(format string) bool {
	if format == "" {
		return false
	}
	switch format[0] {
	case 'N', 'n', 'F', 'f', 'P', 'p', 'E', 'e', 'D', 'd', 'X', 'x':
		for _, r := range format[1:] {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	}
	return false
}
