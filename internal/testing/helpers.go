package testing

import (
	"os"
	"testing"
)

// DefaultNATSURL is used by integration tests when PLATFORMLOG_TEST_NATS_URL
// is not set.
const DefaultNATSURL = "nats://127.0.0.1:4222"

// Unit returns true if running in unit test mode.
// Unit tests should be fast and not require external services such as a
// NATS server or a local syslog daemon.
func Unit() bool {
	// Check if explicitly running unit tests only (highest priority)
	if os.Getenv("PLATFORMLOG_UNIT_TESTS_ONLY") == "true" {
		return true
	}

	switch os.Getenv("PLATFORMLOG_RUN_INTEGRATION_TESTS") {
	case "true":
		return false
	case "false":
		return true
	}

	// Default to unit mode if not explicitly running integration tests
	return true
}

// Integration returns true if running in integration test mode.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test if running in unit test mode.
func SkipIfUnit(t *testing.T, message ...string) {
	t.Helper()
	if Unit() {
		msg := "Skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// NATSURL returns the server integration tests connect to.
func NATSURL() string {
	if url := os.Getenv("PLATFORMLOG_TEST_NATS_URL"); url != "" {
		return url
	}
	return DefaultNATSURL
}
