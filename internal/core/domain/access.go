package domain

// FuncID identifies the intercepted filesystem call reported by the shim.
type FuncID uint32

// Function identifiers, in wire order.
const (
	FuncOpenR FuncID = 0x10000 + iota
	FuncOpenW
	FuncCreat
	FuncStat
	FuncLstat
	FuncOpendir
	FuncAccess
	FuncTruncate
	FuncUnlink
	FuncRename
	FuncChmod
	FuncReadlink
	FuncMknod
	FuncMkdir
	FuncRmdir
	FuncSymlink
	FuncLink
	FuncChown
	FuncExec
	FuncExecP
	FuncRealpath
	FuncTrace
)

var funcNames = map[FuncID]string{
	FuncOpenR:    "openr",
	FuncOpenW:    "openw",
	FuncCreat:    "creat",
	FuncStat:     "stat",
	FuncLstat:    "lstat",
	FuncOpendir:  "opendir",
	FuncAccess:   "access",
	FuncTruncate: "truncate",
	FuncUnlink:   "unlink",
	FuncRename:   "rename",
	FuncChmod:    "chmod",
	FuncReadlink: "readlink",
	FuncMknod:    "mknod",
	FuncMkdir:    "mkdir",
	FuncRmdir:    "rmdir",
	FuncSymlink:  "symlink",
	FuncLink:     "link",
	FuncChown:    "chown",
	FuncExec:     "exec",
	FuncExecP:    "execp",
	FuncRealpath: "realpath",
	FuncTrace:    "trace",
}

// Valid reports whether f is a known function identifier.
func (f FuncID) Valid() bool {
	_, ok := funcNames[f]
	return ok
}

// String returns the short call name, e.g. "openr".
func (f FuncID) String() string {
	if name, ok := funcNames[f]; ok {
		return name
	}
	return "invalid"
}

// ReadsInput reports whether the call observes a path that may have to be
// built first.
func (f FuncID) ReadsInput() bool {
	switch f {
	case FuncOpenR, FuncStat, FuncLstat, FuncOpendir, FuncAccess, FuncReadlink,
		FuncSymlink, FuncExec, FuncExecP, FuncRealpath:
		return true
	default:
		return false
	}
}

// MutatesOutput reports whether the call creates, changes or removes a path.
func (f FuncID) MutatesOutput() bool {
	switch f {
	case FuncOpenW, FuncCreat, FuncTruncate, FuncUnlink, FuncRename, FuncChmod,
		FuncMknod, FuncMkdir, FuncRmdir, FuncLink, FuncChown:
		return true
	default:
		return false
	}
}

// Access is one filesystem call reported by a traced process.
type Access struct {
	Func    FuncID
	Path    string
	Delayed bool
	// Message is only set for FuncTrace.
	Message string
}
