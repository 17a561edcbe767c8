//go:build windows

package execkit

// This module targets POSIX platforms only (spec.md §1 Non-goals: "Windows
// job objects"). Every entry point that would otherwise touch a backend
// reports a clear, typed error instead of failing to build: a caller that
// conditionally compiles for Windows still gets a meaningful *Error instead
// of a missing symbol.

type posixBackend struct{}

func newPosixBackend() Backend { return &posixBackend{} }

var errNotSupported = newErr(KindSpawnFailed, nil, "execkit: POSIX process execution is not supported on this platform")

// ExitStatus stands in for status.go's POSIX-backed type, which depends on
// golang.org/x/sys/unix and has no Windows build. No value is ever produced
// on this platform (every entry point above returns errNotSupported before
// reaching a wait), so the minimal surface other non-platform-gated files
// reference (Success, String) is all this stub needs.
type ExitStatus struct{}

func (s *ExitStatus) Success() bool  { return false }
func (s *ExitStatus) String() string { return "<not supported>" }

// ownedFd, Pipe, newOSPipe and drainConcurrently stand in for their
// !windows counterparts, which the platform-independent files reference;
// newOSPipe and drainConcurrently report errNotSupported.
type ownedFd struct{}

type Pipe struct{ fd *ownedFd }

func (p *Pipe) Fd() int      { return -1 }
func (p *Pipe) Close() error { return nil }

func newOSPipe() (r, w *Pipe, err error) { return nil, nil, errNotSupported }

func drainConcurrently(stdout, stderr *Pipe) (outBuf, errBuf []byte, err error) {
	return nil, nil, errNotSupported
}

func (b *posixBackend) Spawn(spec *SpawnSpec) (*Spawned, error) { return nil, errNotSupported }

func (b *posixBackend) Wait(s *Spawned, opts WaitOptions) (*ExitStatus, error) {
	return nil, errNotSupported
}

func (b *posixBackend) TryWait(s *Spawned) (*ExitStatus, error) { return nil, errNotSupported }

func (b *posixBackend) Terminate(s *Spawned) error { return errNotSupported }

func (b *posixBackend) Kill(s *Spawned) error { return errNotSupported }

func (b *posixBackend) Signal(s *Spawned, sig Signal) error { return errNotSupported }

func spawnForkExec(spec *SpawnSpec) (*Spawned, error) { return nil, errNotSupported }

func resolveProgramPath(argv0, cwd string) (string, error) { return "", errNotSupported }
