// Package eventid derives bounded numeric event identifiers from message
// template text.
//
// The persistent event log requires a 16-bit event code on every entry. The
// default Provider hashes the raw template text so that every occurrence of
// the same message shares one stable identifier across runs and processes.
// Distinct templates may collide; the identifier is a bucket, not a key.
package eventid

import (
	"strings"
	"unicode/utf16"

	"github.com/wayneeseguin/platformlog/pkg/types"
)

// SourceMovedEventID is reserved for the notice written when an event source
// is migrated between logs.
const SourceMovedEventID uint16 = 3

// Provider supplies the event identifier for an event.
type Provider interface {
	ComputeEventID(event *types.LogEvent) (uint16, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(event *types.LogEvent) (uint16, error)

// ComputeEventID calls f(event).
func (f ProviderFunc) ComputeEventID(event *types.LogEvent) (uint16, error) {
	return f(event)
}

// HashProvider computes identifiers with Hash over the event's template text.
type HashProvider struct{}

// NewHashProvider returns the default Provider.
func NewHashProvider() *HashProvider {
	return &HashProvider{}
}

// ComputeEventID implements Provider.
func (HashProvider) ComputeEventID(event *types.LogEvent) (uint16, error) {
	if event == nil {
		return 0, types.InvalidArgument("compute event id", "event", "event cannot be nil")
	}
	return Hash(event.TemplateText())
}

// Hash is a 16-bit Jenkins one-at-a-time hash over the UTF-16 code units of
// text. All arithmetic wraps at 16 bits. Empty or whitespace-only text is
// rejected.
func Hash(text string) (uint16, error) {
	if strings.TrimSpace(text) == "" {
		return 0, types.InvalidArgument("compute event id", "template", "template text cannot be empty or whitespace")
	}

	var hash uint16
	for _, c := range utf16.Encode([]rune(text)) {
		hash += c
		hash += hash << 10
		hash ^= hash >> 6
	}
	hash += hash << 3
	hash ^= hash >> 11
	hash += hash << 15
	return hash, nil
}
