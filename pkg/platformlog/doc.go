// Package platformlog routes structured log events to the log facilities a
// host platform provides: a transient circular log buffer, the console, and
// a persistent event log.
//
// A Logger owns a set of sinks, each with its own minimum level. Writes are
// synchronous; a sink that fails loses only the current event and the
// failure is reported on the diagnostic channel (see package selflog).
//
// Key Features:
//
//   - Message templates with named holes bound from positional arguments
//   - Per-sink output templates and culture-specific value formatting
//   - Content-derived 16-bit event ids for the event log
//   - Optional repair of event sources registered to the wrong log
//   - File-backed (flock) and NATS JetStream event log stores
//   - Prometheus metrics for emits, failures and diagnostics
//
// Basic Usage:
//
//	logger, err := platformlog.NewBuilder().
//		WithMinimumLevel(types.LevelDebug).
//		WriteToConsole().
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
//
//	logger.Information("Connected to {Host} in {Elapsed} ms", "db1", 42)
//
// Event Log:
//
//	logger, err := platformlog.NewBuilder().
//		WriteToEventLog("Billing",
//			platformlog.WithLogName("Payments"),
//			platformlog.WithManageSource(true),
//			platformlog.WithRestrictedToMinimumLevel(types.LevelWarning)).
//		Build()
//
// With manageSource enabled, a source bound to another log is moved to the
// configured log at construction and the move is recorded in the target log
// under the "platformlog-<log>" source with event id 3.
//
// Source Context:
//
//	billing := logger.ForContext("Billing.Invoices")
//	billing.Warning("Invoice {Id} overdue", 1042)
//
// The buffer sink uses the SourceContext property as its tag.
package platformlog
