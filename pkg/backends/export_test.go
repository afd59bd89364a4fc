package backends

// SetLocalSyslogSockets replaces the probed socket paths until the returned
// function is called.
func SetLocalSyslogSockets(paths ...string) func() {
	saved := localSyslogSockets
	localSyslogSockets = paths
	return func() { localSyslogSockets = saved }
}
