// Package cli provides the `platformlog` command-line tool.
//
// The commands build a pipeline from PLATFORMLOG_* environment variables
// (see internal/config) and let operators write events, inspect event
// sources and read back the event log from a terminal or a shell script.
//
// Usage
//
//	platformlog emit --sink console --level warning "Disk {Mount} at {Percent}%" /var 93
//
//	platformlog emit --sink eventlog --source Billing --log Payments \
//	    --manage-source --property Tenant=acme "Invoice {Id} overdue" 1042
//
//	# one event per stdin line; "WRN: text" style prefixes select the level
//	tail -f app.out | platformlog pipe --sink buffer --metrics-addr :9102
//
//	platformlog sources list
//	platformlog sources exists Billing
//	platformlog sources delete Billing
//
//	platformlog tail --log Payments --limit 20
//	platformlog hash "Upload failed for {user}"
//
// Notes
//
//   - --env-file loads a .env file before the environment is read.
//     Variables already set in the environment win.
//   - sources and tail need a store that can enumerate its contents: the
//     file store (the default) and, for sources list, the NATS store.
package cli
