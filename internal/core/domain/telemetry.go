package domain

// VertexStatus is the lifecycle state of a rule as shown in progress output.
type VertexStatus string

const (
	// VertexStatusPending indicates the rule is waiting for its inputs or a slot.
	VertexStatusPending VertexStatus = "pending"
	// VertexStatusRunning indicates the command is executing.
	VertexStatusRunning VertexStatus = "running"
	// VertexStatusCompleted indicates the command succeeded.
	VertexStatusCompleted VertexStatus = "completed"
	// VertexStatusFailed indicates the command or one of its inputs failed.
	VertexStatusFailed VertexStatus = "failed"
	// VertexStatusCached indicates every output was already built.
	VertexStatusCached VertexStatus = "cached"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// IsTerminal checks if a status is a terminal state.
func (s VertexStatus) IsTerminal() bool {
	switch s {
	case VertexStatusCompleted, VertexStatusFailed, VertexStatusCached:
		return true
	default:
		return false
	}
}

// Status maps an outcome to its terminal vertex status.
func (o *Outcome) Status() VertexStatus {
	switch {
	case o == nil:
		return VertexStatusPending
	case o.Err != nil:
		return VertexStatusFailed
	case o.Skipped:
		return VertexStatusCached
	default:
		return VertexStatusCompleted
	}
}
