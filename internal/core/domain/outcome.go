package domain

import "time"

// Outcome is the recorded result of a rule within one build. Its presence
// means the rule will not run again in this build.
type Outcome struct {
	// Err is nil when the command succeeded or was skipped.
	Err error
	// Skipped is set when every declared output was already READY.
	Skipped bool
	// Inputs lists the paths the command was observed reading, sorted.
	Inputs []string
	// Duration is the wall time spent in the command.
	Duration time.Duration
}

// Succeeded reports whether the rule finished without error.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Err == nil
}
