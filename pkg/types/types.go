package types

import (
	"time"
)

// SourceContextPropertyName is the well-known property carrying the name of
// the component that produced an event. Buffer sinks use it as their tag.
const SourceContextPropertyName = "SourceContext"

// Properties maps property names to their captured values.
type Properties map[string]interface{}

// LogEvent is a single structured log event. Events are created upstream and
// are read-only to sinks.
type LogEvent struct {
	Timestamp       time.Time
	Level           Level
	MessageTemplate *MessageTemplate
	Properties      Properties
	Exception       error
}

// NewLogEvent creates an event. The properties map is copied so later changes
// by the caller are not observed by sinks.
func NewLogEvent(timestamp time.Time, level Level, template *MessageTemplate, props Properties, exception error) *LogEvent {
	if template == nil {
		template = ParseTemplate("")
	}
	copied := make(Properties, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return &LogEvent{
		Timestamp:       timestamp,
		Level:           level,
		MessageTemplate: template,
		Properties:      copied,
		Exception:       exception,
	}
}

// Property returns a property value and whether it was present.
func (e *LogEvent) Property(name string) (interface{}, bool) {
	if e == nil || e.Properties == nil {
		return nil, false
	}
	v, ok := e.Properties[name]
	return v, ok
}

// TemplateText returns the raw message template text, or "".
func (e *LogEvent) TemplateText() string {
	if e == nil || e.MessageTemplate == nil {
		return ""
	}
	return e.MessageTemplate.Text
}
