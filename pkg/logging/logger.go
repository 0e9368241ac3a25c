package logging

// Logger is the logging collaborator handed to engine components.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(messageFmt string, args ...interface{})
	Info(messageFmt string, args ...interface{})
	Warn(messageFmt string, args ...interface{})
	Error(err error, messageFmt string, args ...interface{})
}

// subsystemLogger routes every call to the package-level functions under a fixed subsystem.
type subsystemLogger struct {
	subsystem string
}

// For returns a Logger bound to subsystem.
func For(subsystem string) Logger {
	return subsystemLogger{subsystem: subsystem}
}

func (l subsystemLogger) Debug(messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, l.subsystem, nil, messageFmt, args...)
}

func (l subsystemLogger) Info(messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, l.subsystem, nil, messageFmt, args...)
}

func (l subsystemLogger) Warn(messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, l.subsystem, nil, messageFmt, args...)
}

func (l subsystemLogger) Error(err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, l.subsystem, err, messageFmt, args...)
}
