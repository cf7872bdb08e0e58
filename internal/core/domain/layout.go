package domain

import "os"

const (
	// SettingsFileName is the optional per-project settings file.
	SettingsFileName = "seer.yaml"

	// RulesFileName is the default static rules file.
	RulesFileName = "seer.rules.yaml"

	// EnvPrefix prefixes every settings override read from the environment.
	EnvPrefix = "SEER"

	// DefaultShimPath is the interception library injected into traced commands.
	DefaultShimPath = "./fs_override.so"
)

// Environment contract between the connection server and the interception shim.
const (
	EnvPreload    = "LD_PRELOAD"
	EnvMasterAddr = "BUILDSOME_MASTER_UNIX_SOCKADDR"
	EnvJobID      = "BUILDSOME_JOB_ID"
	EnvRootFilter = "BUILDSOME_ROOT_FILTER"
)

// Interception protocol constants.
const (
	// ProtocolGreeting prefixes the first frame of every session.
	ProtocolGreeting = "PROTOCOL10: HELLO, I AM: "
	// GoAhead is the acknowledgment that releases a delayed call.
	GoAhead = "GO"
	// MaxFrameSize bounds a single protocol frame.
	MaxFrameSize = 0x8000
	// MaxPath is the size of every fixed path field in a call payload.
	MaxPath = 256
	// MaxTraceMessage is the size of the message field of a trace call.
	MaxTraceMessage = 1024
)

// Shell is the interpreter rule commands run under.
const Shell = "/bin/sh"

// DefaultSocketDir returns the directory job sockets are created in.
func DefaultSocketDir() string {
	return os.TempDir()
}
