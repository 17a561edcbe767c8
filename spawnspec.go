package execkit

// stdioSpec is the internal, fully-resolved counterpart of Stdio. It is the
// same tagged union but with any pipe/file-open side effects represented
// explicitly as fields lowering has already decided on, per spec.md §3.
type stdioSpec struct {
	kind  stdioKind
	fd    int
	path  string
	mode  OpenMode
	perms uint32
	hasPerms bool
}

func (s stdioSpec) validate(direction ioDirection) *Error {
	switch s.kind {
	case stdioFd:
		if s.fd < 0 {
			return newErr(KindInvalidStdio, nil, "fd must be non-negative")
		}
	case stdioFile:
		if direction == dirIn && !s.mode.readable() {
			return newErr(KindInvalidStdio, nil, "stdin file mode must be readable")
		}
		if direction != dirIn && !s.mode.writable() {
			return newErr(KindInvalidStdio, nil, "stdout/stderr file mode must be writable")
		}
	case stdioDupStdout:
		if direction != dirErr {
			return newErr(KindInvalidStdio, nil, "dup_stdout only valid for stderr")
		}
	}
	return nil
}

type ioDirection int

const (
	dirIn ioDirection = iota
	dirOut
	dirErr
)

// lowerStdio resolves a user-facing Stdio into its fully-decided stdioSpec.
// direction matters only for stdioFile with no explicit mode: stdin defaults
// to ModeRead, stdout/stderr default to ModeWriteTruncate.
func lowerStdio(s Stdio, direction ioDirection) stdioSpec {
	mode := s.mode
	if s.kind == stdioFile && !s.hasMode {
		if direction == dirIn {
			mode = ModeRead
		} else {
			mode = ModeWriteTruncate
		}
	}
	return stdioSpec{
		kind:     s.kind,
		fd:       s.fd,
		path:     s.path,
		mode:     mode,
		perms:    s.perms,
		hasPerms: s.hasPerms,
	}
}

// spawnOpts mirrors Command.opts (spec.md §3): process-group creation and
// stderr/stdout merging.
type spawnOpts struct {
	NewProcessGroup        bool
	MergeStderrIntoStdout  bool
}

// SpawnSpec is the internal, fully-resolved spawn specification produced by
// lowering. It is what backends consume; it never holds user-facing types.
type SpawnSpec struct {
	Argv []string
	Cwd  string // empty means "inherit parent cwd"
	Envp []string

	Stdin  stdioSpec
	Stdout stdioSpec
	Stderr stdioSpec

	Opts         spawnOpts
	ProcessGroup *int // set by pipeline on non-leader stages
}

// Spawned is the live record a Backend.Spawn returns: the child's identity
// and any parent-side ends of piped stdio, not yet handed to a Child/Pipe.
type Spawned struct {
	Pid              int
	Pgid             int
	NewProcessGroup  bool
	StdinFd          *ownedFd
	StdoutFd         *ownedFd
	StderrFd         *ownedFd
}
