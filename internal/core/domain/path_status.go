package domain

// PathStatus is the build status of a single path within one build.
// The only legal transitions are Unknown -> Pending -> Ready.
type PathStatus int

const (
	// PathUnknown means no one has asked for the path yet.
	PathUnknown PathStatus = iota
	// PathPending means exactly one builder is producing the path.
	PathPending
	// PathReady means the build of the path has finished, successfully or not.
	PathReady
)

// String returns the status name.
func (s PathStatus) String() string {
	switch s {
	case PathUnknown:
		return "unknown"
	case PathPending:
		return "pending"
	case PathReady:
		return "ready"
	default:
		return "invalid"
	}
}

// CanTransition reports whether moving from s to next is legal.
func (s PathStatus) CanTransition(next PathStatus) bool {
	return next == s+1 && next <= PathReady
}
