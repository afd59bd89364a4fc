package formatters

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wayneeseguin/platformlog/pkg/types"
)

// JSONFormatter formats log events as line-delimited JSON
type JSONFormatter struct {
	TimestampFormat string   // Go layout; RFC3339Nano when empty
	IncludeFields   []string // Optional: specific properties to include
	ExcludeFields   []string // Optional: properties to exclude
	Provider        *FormatProvider
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes one JSON object followed by a newline
func (f *JSONFormatter) Format(event *types.LogEvent, w io.Writer) error {
	if event == nil {
		return types.InvalidArgument("format event", "event", "must not be nil")
	}

	entry := map[string]interface{}{
		"timestamp":       f.formatTimestamp(event.Timestamp),
		"level":           event.Level.String(),
		"messageTemplate": event.TemplateText(),
		"renderedMessage": RenderMessage(event, "l", f.Provider),
	}

	props := make(map[string]interface{})
	for k, v := range event.Properties {
		if !f.shouldExcludeField(k) {
			props[k] = jsonValue(v)
		}
	}
	if len(props) > 0 {
		entry["properties"] = props
	}

	if event.Exception != nil {
		entry["exception"] = fmt.Sprintf("%+v", event.Exception)
	}

	data, err := f.safeMarshal(entry)
	if err != nil {
		return types.NewError(types.ErrCodeFormatFailed, "format event", event.TemplateText(), err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return types.NewError(types.ErrCodeFormatFailed, "format event", event.TemplateText(), err)
	}
	return nil
}

func (f *JSONFormatter) formatTimestamp(t time.Time) string {
	if f.TimestampFormat == "" {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(f.TimestampFormat)
}

// shouldExcludeField checks if a property should be left out of the output
func (f *JSONFormatter) shouldExcludeField(field string) bool {
	for _, excluded := range f.ExcludeFields {
		if field == excluded {
			return true
		}
	}

	if len(f.IncludeFields) > 0 {
		for _, included := range f.IncludeFields {
			if field == included {
				return false
			}
		}
		return true
	}

	return false
}

// WithIncludeFields sets properties to include in JSON output
func (f *JSONFormatter) WithIncludeFields(fields ...string) *JSONFormatter {
	f.IncludeFields = fields
	return f
}

// WithExcludeFields sets properties to exclude from JSON output
func (f *JSONFormatter) WithExcludeFields(fields ...string) *JSONFormatter {
	f.ExcludeFields = fields
	return f
}

// jsonValue keeps values encoding/json cannot represent usefully from
// collapsing to "{}".
func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}
	return v
}

// safeMarshal marshals data, falling back to a depth-limited copy when the
// value cannot be encoded directly.
func (f *JSONFormatter) safeMarshal(data map[string]interface{}) ([]byte, error) {
	result, err := json.Marshal(data)
	if err == nil {
		return result, nil
	}
	return json.Marshal(makeSafe(data, 0, 5))
}

func makeSafe(data interface{}, depth, maxDepth int) interface{} {
	if depth >= maxDepth {
		return "[max depth reached]"
	}

	switch v := data.(type) {
	case map[string]interface{}:
		safe := make(map[string]interface{}, len(v))
		for k, val := range v {
			safe[k] = makeSafe(val, depth+1, maxDepth)
		}
		return safe
	case []interface{}:
		safe := make([]interface{}, len(v))
		for i, val := range v {
			safe[i] = makeSafe(val, depth+1, maxDepth)
		}
		return safe
	case string, bool, nil, float64, float32, int, int64, int32, uint, uint64, uint32:
		return v
	default:
		if _, err := json.Marshal(v); err != nil {
			return fmt.Sprintf("%v", v)
		}
		return v
	}
}
