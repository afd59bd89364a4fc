package platformlog

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// Common errors re-exported from package types so callers can compare with
// errors.Is without importing it.
var (
	ErrInvalidArgument     = types.ErrInvalidArgument
	ErrInvalidConfig       = types.ErrInvalidConfig
	ErrPlatformUnsupported = types.ErrPlatformUnsupported
	ErrPlatformWrite       = types.ErrPlatformWrite
	ErrFormatFailed        = types.ErrFormatFailed
	ErrSourceMismatch      = types.ErrSourceMismatch
	ErrSourceManagement    = types.ErrSourceManagement
)

// ErrClosed is returned by Close when the logger was already closed.
var ErrClosed = errors.New("logger closed")

// panicError converts a recovered panic into an error carrying the stack of
// the panicking goroutine.
func panicError(sink string, recovered interface{}) error {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	var msg string
	switch v := recovered.(type) {
	case error:
		msg = v.Error()
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return errors.Errorf("sink %s panicked: %s\n%s", sink, msg, buf[:n])
}
