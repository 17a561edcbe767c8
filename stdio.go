package execkit

// OpenMode is the open discipline for Stdio.File, mirroring the POSIX
// open(2) access-mode/creation distinctions spec.md §3 requires lowering to
// validate against stdio direction.
type OpenMode int

const (
	// ModeRead opens the file read-only. Only valid for stdin.
	ModeRead OpenMode = iota
	// ModeWriteTruncate opens (creating if needed) and truncates. Valid for
	// stdout/stderr.
	ModeWriteTruncate
	// ModeWriteAppend opens (creating if needed) for append. Valid for
	// stdout/stderr.
	ModeWriteAppend
	// ModeReadWrite opens for both reading and writing. Valid for any slot.
	ModeReadWrite
)

func (m OpenMode) readable() bool {
	return m == ModeRead || m == ModeReadWrite
}

func (m OpenMode) writable() bool {
	return m == ModeWriteTruncate || m == ModeWriteAppend || m == ModeReadWrite
}

// stdioKind tags the variant held by a Stdio value.
type stdioKind int

const (
	stdioUnset stdioKind = iota
	stdioInherit
	stdioNull
	stdioPiped
	stdioFd
	stdioFile
	stdioDupStdout
)

// Stdio is the user-facing tagged union selecting how a child's stream is
// wired: inherit | null | piped | fd(n) | file(path, mode, perms?). The zero
// value means "unset" (lowering fills in the mode-dependent default).
type Stdio struct {
	kind     stdioKind
	fd       int
	path     string
	mode     OpenMode
	hasMode  bool   // false means "let lowering pick a direction-appropriate default"
	perms    uint32 // only meaningful when hasPerms is true
	hasPerms bool
}

// Inherit connects the child's stream to the parent's corresponding stream.
func Inherit() Stdio { return Stdio{kind: stdioInherit} }

// Null connects the child's stream to the platform null device.
func Null() Stdio { return Stdio{kind: stdioNull} }

// Piped creates an OS pipe; the parent keeps the opposite end, reachable via
// Child.TakeStdin/TakeStdout/TakeStderr.
func Piped() Stdio { return Stdio{kind: stdioPiped} }

// Fd wires the child's stream directly to an existing, already-open file
// descriptor in the parent. n must be >= 0 (validated at lowering time).
func Fd(n int) Stdio { return Stdio{kind: stdioFd, fd: n} }

// File opens path, defaulting to ModeRead for stdin and ModeWriteTruncate for
// stdout/stderr. Since a bare Stdio value doesn't yet know which stream slot
// it will fill, the direction-appropriate default is resolved at lowering
// time; use FileMode/FilePerm to pin an explicit mode regardless of slot.
func File(path string) Stdio { return Stdio{kind: stdioFile, path: path} }

// FileMode is like File but with an explicit open mode.
func FileMode(path string, mode OpenMode) Stdio {
	return Stdio{kind: stdioFile, path: path, mode: mode, hasMode: true}
}

// FilePerm is like FileMode but with explicit file-creation permission bits.
func FilePerm(path string, mode OpenMode, perms uint32) Stdio {
	return Stdio{kind: stdioFile, path: path, mode: mode, hasMode: true, perms: perms, hasPerms: true}
}

// dupStdout is only constructible internally by lowering when
// MergeStderrIntoStdout is set; spec.md §3 calls out that it "is not
// user-constructible".
func dupStdout() Stdio { return Stdio{kind: stdioDupStdout} }

func (s Stdio) isUnset() bool { return s.kind == stdioUnset }
