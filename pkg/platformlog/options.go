package platformlog

import (
	"io"
	"strings"

	"github.com/wayneeseguin/platformlog/pkg/backends"
	"github.com/wayneeseguin/platformlog/pkg/eventid"
	"github.com/wayneeseguin/platformlog/pkg/formatters"
	"github.com/wayneeseguin/platformlog/pkg/types"
	"golang.org/x/text/language"
)

// SinkOption configures a sink added through a Builder. Options that do not
// apply to a sink are ignored by it.
type SinkOption func(*sinkConfig) error

// sinkConfig holds sink configuration during building
type sinkConfig struct {
	name           string
	outputTemplate string
	provider       *formatters.FormatProvider
	formatter      formatters.Formatter
	minimum        types.Level

	// event log
	manageSource bool
	machine      string
	logName      string
	ids          eventid.Provider
	store        backends.EventLog
	storeDSN     string

	// buffer log
	buffer        backends.BufferLog
	syslogNetwork string
	syslogAddress string

	// console
	stdout io.Writer
	stderr io.Writer
}

// WithOutputTemplate sets the output template used to render each event.
// A blank template is rejected.
func WithOutputTemplate(template string) SinkOption {
	return func(c *sinkConfig) error {
		if strings.TrimSpace(template) == "" {
			return types.InvalidArgument("configure sink", "outputTemplate", "must not be empty")
		}
		c.outputTemplate = template
		return nil
	}
}

// WithFormatProvider sets the culture used to format numbers in the output
// template.
//
// Example:
//
//	platformlog.WithFormatProvider(language.German) // 1.234,5
func WithFormatProvider(tag language.Tag) SinkOption {
	return func(c *sinkConfig) error {
		c.provider = formatters.NewFormatProvider(tag)
		return nil
	}
}

// WithFormatter replaces template rendering with a custom formatter.
func WithFormatter(f formatters.Formatter) SinkOption {
	return func(c *sinkConfig) error {
		if f == nil {
			return types.InvalidArgument("configure sink", "formatter", "must not be nil")
		}
		c.formatter = f
		return nil
	}
}

// WithRestrictedToMinimumLevel sets the lowest level the sink receives.
func WithRestrictedToMinimumLevel(level types.Level) SinkOption {
	return func(c *sinkConfig) error {
		if !level.Valid() {
			return types.InvalidArgument("configure sink", "restrictedToMinimumLevel", "unknown level "+level.String())
		}
		c.minimum = level
		return nil
	}
}

// WithSinkName sets the name the sink is reported under in diagnostics and
// metrics. Defaults to "buffer", "console" or "eventlog".
func WithSinkName(name string) SinkOption {
	return func(c *sinkConfig) error {
		if strings.TrimSpace(name) == "" {
			return types.InvalidArgument("configure sink", "name", "must not be empty")
		}
		c.name = name
		return nil
	}
}

// WithManageSource enables event source registration and repair at
// construction.
func WithManageSource(manage bool) SinkOption {
	return func(c *sinkConfig) error {
		c.manageSource = manage
		return nil
	}
}

// WithMachineName sets the host whose event log is written. Empty means the
// local machine.
func WithMachineName(machine string) SinkOption {
	return func(c *sinkConfig) error {
		c.machine = machine
		return nil
	}
}

// WithLogName sets the event log name. Empty means "Application".
func WithLogName(logName string) SinkOption {
	return func(c *sinkConfig) error {
		c.logName = logName
		return nil
	}
}

// WithEventIDProvider replaces the template hash used for event ids.
func WithEventIDProvider(p eventid.Provider) SinkOption {
	return func(c *sinkConfig) error {
		if p == nil {
			return types.InvalidArgument("configure sink", "eventIdProvider", "must not be nil")
		}
		c.ids = p
		return nil
	}
}

// WithEventLogStore sets the event log store. The caller keeps ownership.
func WithEventLogStore(store backends.EventLog) SinkOption {
	return func(c *sinkConfig) error {
		if store == nil {
			return types.InvalidArgument("configure sink", "store", "must not be nil")
		}
		c.store = store
		return nil
	}
}

// WithEventLogDSN opens the event log store from a DSN at build time (see
// backends.OpenEventLog). The logger closes it.
func WithEventLogDSN(dsn string) SinkOption {
	return func(c *sinkConfig) error {
		c.storeDSN = dsn
		return nil
	}
}

// WithBufferBackend sets the transient buffer the buffer sink writes to. The
// caller keeps ownership.
func WithBufferBackend(buffer backends.BufferLog) SinkOption {
	return func(c *sinkConfig) error {
		if buffer == nil {
			return types.InvalidArgument("configure sink", "buffer", "must not be nil")
		}
		c.buffer = buffer
		return nil
	}
}

// WithSyslogAddress sets the syslog daemon used as the transient buffer.
// Empty values probe the local syslog socket.
func WithSyslogAddress(network, address string) SinkOption {
	return func(c *sinkConfig) error {
		c.syslogNetwork = network
		c.syslogAddress = address
		return nil
	}
}

// WithConsoleWriters redirects the console sink. Nil writers keep the
// process's stdout and stderr.
func WithConsoleWriters(out, errOut io.Writer) SinkOption {
	return func(c *sinkConfig) error {
		c.stdout = out
		c.stderr = errOut
		return nil
	}
}

// buildFormatter returns the configured formatter, or a template formatter
// over the configured or default output template.
func (c *sinkConfig) buildFormatter(defaultTemplate string) (formatters.Formatter, error) {
	if c.formatter != nil {
		return c.formatter, nil
	}
	template := c.outputTemplate
	if template == "" {
		template = defaultTemplate
	}
	return formatters.NewTemplateFormatter(template, formatters.WithProvider(c.provider))
}
