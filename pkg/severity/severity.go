// Package severity maps generic log levels onto the native severity
// vocabulary of each platform log facility.
//
// All mappings are total: a level outside the known range maps to the
// lowest informational category of the target platform.
package severity

import "github.com/wayneeseguin/platformlog/pkg/types"

// BufferPriority is the priority of an entry in the transient circular log
// buffer. Values follow the logcat priority numbering.
type BufferPriority int

const (
	PriorityVerbose BufferPriority = 2
	PriorityDebug   BufferPriority = 3
	PriorityInfo    BufferPriority = 4
	PriorityWarn    BufferPriority = 5
	PriorityError   BufferPriority = 6
	PriorityAssert  BufferPriority = 7
)

// String returns the single-letter logcat code for the priority.
func (p BufferPriority) String() string {
	switch p {
	case PriorityVerbose:
		return "V"
	case PriorityDebug:
		return "D"
	case PriorityInfo:
		return "I"
	case PriorityWarn:
		return "W"
	case PriorityError:
		return "E"
	case PriorityAssert:
		return "A"
	default:
		return "?"
	}
}

// EntryType is the category of an entry in the persistent event log. The
// event log has no assertion category.
type EntryType int

const (
	EntryError       EntryType = 1
	EntryWarning     EntryType = 2
	EntryInformation EntryType = 4
)

// String returns the display name of the entry type.
func (t EntryType) String() string {
	switch t {
	case EntryError:
		return "Error"
	case EntryWarning:
		return "Warning"
	case EntryInformation:
		return "Information"
	default:
		return "Information"
	}
}

// ToBufferPriority maps a level to a buffer priority. Fatal uses the
// assertion priority.
func ToBufferPriority(level types.Level) BufferPriority {
	switch level {
	case types.LevelTrace:
		return PriorityVerbose
	case types.LevelDebug:
		return PriorityDebug
	case types.LevelInfo:
		return PriorityInfo
	case types.LevelWarning:
		return PriorityWarn
	case types.LevelError:
		return PriorityError
	case types.LevelFatal:
		return PriorityAssert
	default:
		return PriorityVerbose
	}
}

// ToEntryType maps a level to an event log entry type. Fatal folds into
// EntryError.
func ToEntryType(level types.Level) EntryType {
	switch level {
	case types.LevelTrace, types.LevelDebug, types.LevelInfo:
		return EntryInformation
	case types.LevelWarning:
		return EntryWarning
	case types.LevelError, types.LevelFatal:
		return EntryError
	default:
		return EntryInformation
	}
}

// IsErrorStream reports whether a console entry at level belongs on the
// standard error stream.
func IsErrorStream(level types.Level) bool {
	return level == types.LevelError || level == types.LevelFatal
}

// Syslog severities (RFC 5424).
const (
	SyslogEmergency = 0
	SyslogAlert     = 1
	SyslogCritical  = 2
	SyslogError     = 3
	SyslogWarning   = 4
	SyslogNotice    = 5
	SyslogInfo      = 6
	SyslogDebug     = 7
)

// ToSyslogSeverity maps a buffer priority to the syslog severity used when
// the buffer is backed by the system logger.
func ToSyslogSeverity(p BufferPriority) int {
	switch p {
	case PriorityVerbose, PriorityDebug:
		return SyslogDebug
	case PriorityInfo:
		return SyslogInfo
	case PriorityWarn:
		return SyslogWarning
	case PriorityError:
		return SyslogError
	case PriorityAssert:
		return SyslogCritical
	default:
		return SyslogDebug
	}
}
