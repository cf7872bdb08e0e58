package domain

import "go.trai.ch/zerr"

var (
	// ErrBuildExecutionFailed is returned when at least one rule failed during a build.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrRuleExecutionFailed is returned when a rule's command exits unsuccessfully.
	ErrRuleExecutionFailed = zerr.New("rule execution failed")

	// ErrDependencyFailed is returned when a rule cannot run because one of its inputs failed to build.
	ErrDependencyFailed = zerr.New("dependency failed")

	// ErrInconsistentOutputs is returned when only some of a rule's outputs are already built.
	ErrInconsistentOutputs = zerr.New("some but not all outputs are ready")

	// ErrNoTargetsSpecified is returned when a build is started without targets.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrNoRuleSource is returned when neither a query program nor a rules file is given.
	ErrNoRuleSource = zerr.New("no rule source specified")

	// ErrAmbiguousRuleSource is returned when both a query program and a rules file are given.
	ErrAmbiguousRuleSource = zerr.New("query program and rules file are mutually exclusive")

	// ErrRuleQueryFailed is returned when the rule database cannot answer a query.
	ErrRuleQueryFailed = zerr.New("rule query failed")

	// ErrMalformedQueryReply is returned when the query program's reply does not follow the block format.
	ErrMalformedQueryReply = zerr.New("malformed query reply")

	// ErrQueryProgramFailed is returned when the query program cannot be started or has exited.
	ErrQueryProgramFailed = zerr.New("query program failed")

	// ErrRulesFileInvalid is returned when the static rules file cannot be parsed.
	ErrRulesFileInvalid = zerr.New("invalid rules file")

	// ErrDuplicateOutput is returned when two rules declare the same output.
	ErrDuplicateOutput = zerr.New("output declared by more than one rule")

	// ErrInvalidSettings is returned when a setting has an unusable value.
	ErrInvalidSettings = zerr.New("invalid settings")

	// ErrSettingsLoadFailed is returned when the settings file cannot be read.
	ErrSettingsLoadFailed = zerr.New("failed to load settings")

	// ErrListenFailed is returned when a job socket cannot be created.
	ErrListenFailed = zerr.New("failed to listen on job socket")

	// ErrCommandStartFailed is returned when a traced command cannot be started.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrBadGreeting is returned when a session does not open with the protocol greeting.
	ErrBadGreeting = zerr.New("expected protocol greeting")

	// ErrFrameTooLarge is returned when a frame exceeds the maximum frame size.
	ErrFrameTooLarge = zerr.New("protocol frame too large")

	// ErrFrameTruncated is returned when a frame is too short for its function payload.
	ErrFrameTruncated = zerr.New("protocol frame truncated")

	// ErrUnknownFunction is returned when a frame carries an unknown function identifier.
	ErrUnknownFunction = zerr.New("unknown function identifier")

	// ErrDependencyCycle is returned when a build would wait, directly or not, on itself.
	ErrDependencyCycle = zerr.New("dependency cycle")

	// ErrOutputCleanupFailed is returned when a stale output cannot be removed.
	ErrOutputCleanupFailed = zerr.New("failed to remove stale output")

	// ErrJobNotActive is raised when a job completes without being registered as active.
	ErrJobNotActive = zerr.New("completed job was not active")

	// ErrIllegalTransition is raised when a path status would move backwards or skip a state.
	ErrIllegalTransition = zerr.New("illegal path status transition")
)
