package domain

import (
	"runtime"

	"go.trai.ch/zerr"
)

// Settings holds the tunables of one invocation.
type Settings struct {
	// Jobs caps the number of commands executing at once.
	Jobs int `mapstructure:"jobs"`
	// ShimPath is the interception library injected via LD_PRELOAD.
	// Empty disables injection.
	ShimPath string `mapstructure:"shim"`
	// SocketDir holds the per-job listening sockets.
	SocketDir string `mapstructure:"socket_dir"`
	// RootFilter limits which paths the shim reports.
	RootFilter string `mapstructure:"root_filter"`
	// ConnectionLimit bounds concurrent session handlers per job.
	ConnectionLimit int `mapstructure:"connection_limit"`
	// InputParallelism bounds parallel wants of declared inputs per job.
	InputParallelism int `mapstructure:"input_parallelism"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
	// JSONLogs switches the logger to JSON records.
	JSONLogs bool `mapstructure:"json_logs"`
}

// DefaultSettings returns the settings used when nothing is configured.
// RootFilter and ShimPath are left relative; callers resolve them against
// the working directory.
func DefaultSettings() Settings {
	return Settings{
		Jobs:             runtime.NumCPU(),
		ShimPath:         DefaultShimPath,
		SocketDir:        DefaultSocketDir(),
		ConnectionLimit:  32,
		InputParallelism: 32,
	}
}

// Validate checks the settings for values that cannot work.
func (s *Settings) Validate() error {
	if s.Jobs < 1 {
		return zerr.With(ErrInvalidSettings, "jobs", s.Jobs)
	}
	if s.ConnectionLimit < 1 {
		return zerr.With(ErrInvalidSettings, "connection_limit", s.ConnectionLimit)
	}
	if s.InputParallelism < 1 {
		return zerr.With(ErrInvalidSettings, "input_parallelism", s.InputParallelism)
	}
	if s.SocketDir == "" {
		return zerr.With(ErrInvalidSettings, "socket_dir", s.SocketDir)
	}
	return nil
}
