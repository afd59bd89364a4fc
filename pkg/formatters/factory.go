package formatters

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Factory creates formatter instances by name
type Factory struct {
	mu         sync.RWMutex
	formatters map[string]FormatterConstructor
}

// FormatterConstructor creates a formatter. outputTemplate may be ignored by
// formatters that have no template.
type FormatterConstructor func(outputTemplate string, provider *FormatProvider) (Formatter, error)

// NewFactory creates a new formatter factory with "template" and "json"
// registered
func NewFactory() *Factory {
	f := &Factory{
		formatters: make(map[string]FormatterConstructor),
	}

	_ = f.Register("template", func(tmpl string, p *FormatProvider) (Formatter, error) {
		return NewTemplateFormatter(tmpl, WithProvider(p))
	})

	_ = f.Register("json", func(_ string, p *FormatProvider) (Formatter, error) {
		jf := NewJSONFormatter()
		jf.Provider = p
		return jf, nil
	})

	return f
}

// Register registers a new formatter constructor
func (f *Factory) Register(name string, constructor FormatterConstructor) error {
	if name == "" {
		return errors.New("formatter name cannot be empty")
	}
	if constructor == nil {
		return errors.New("formatter constructor cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatters[name] = constructor
	return nil
}

// CreateFormatter creates a formatter by name
func (f *Factory) CreateFormatter(name, outputTemplate string, provider *FormatProvider) (Formatter, error) {
	f.mu.RLock()
	constructor, exists := f.formatters[name]
	f.mu.RUnlock()

	if !exists {
		return nil, errors.Errorf("formatter %q not registered", name)
	}

	return constructor(outputTemplate, provider)
}

// ListFormatters returns the sorted names of all registered formatters
func (f *Factory) ListFormatters() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.formatters))
	for name := range f.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultFactory is the global formatter factory
var DefaultFactory = NewFactory()

// Register registers a formatter with the default factory
func Register(name string, constructor FormatterConstructor) error {
	return DefaultFactory.Register(name, constructor)
}

// CreateFormatter creates a formatter using the default factory
func CreateFormatter(name, outputTemplate string, provider *FormatProvider) (Formatter, error) {
	return DefaultFactory.CreateFormatter(name, outputTemplate, provider)
}
