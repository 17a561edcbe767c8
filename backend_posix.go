//go:build !windows

package execkit

import (
	"golang.org/x/sys/unix"
)

// posixBackend implements Backend for POSIX platforms (Linux, Darwin).
// Windows is explicitly out of scope (spec.md §1 Non-goals); see
// build_unsupported.go.
type posixBackend struct{}

func newPosixBackend() Backend {
	return &posixBackend{}
}

// forceForkExec is a build-time/test override that disables the fast path,
// per spec.md §4.2 "A build-time override forces the fallback path (used to
// exercise it in tests)." It is a package var rather than a build tag so
// tests in this package can flip it per-subtest without a separate build.
var forceForkExec bool

// Spawn selects a strategy per spec.md §4.2 "Strategy selection" and
// realizes spec into a live child.
func (b *posixBackend) Spawn(spec *SpawnSpec) (*Spawned, error) {
	if !forceForkExec && canUseFastPath(spec) {
		sp, err := spawnPosixSpawn(spec)
		if err == nil {
			return sp, nil
		}
		// Fast-path preparation failures (not exec failures) are not
		// silently downgraded to the fallback: spec.md treats strategy
		// selection as a pre-spawn decision, not a try/retry loop.
		return nil, err
	}
	return spawnForkExec(spec)
}

// canUseFastPath implements spec.md §4.2's disallow rules: fast path is
// unavailable when a cwd change is requested on a platform lacking
// addchdir_np, or a process-group change is requested where the spawn
// attribute isn't supported. On the platforms this module targets
// (Linux glibc >= 2.29, Darwin 10.15+) both capabilities exist, so the only
// remaining gate is the chdir-support probe itself (hasChdirSupport, defined
// per-platform) guarding against older glibc.
func canUseFastPath(spec *SpawnSpec) bool {
	if spec.Cwd != "" && !hasChdirSupport() {
		return false
	}
	return true
}

func (b *posixBackend) Wait(s *Spawned, opts WaitOptions) (*ExitStatus, error) {
	ops := &posixWaitOps{s: s, b: b}
	return runWaitPolicy(ops, currentClock(), opts)
}

func (b *posixBackend) TryWait(s *Spawned) (*ExitStatus, error) {
	ops := &posixWaitOps{s: s, b: b}
	return ops.tryWait()
}

func (b *posixBackend) Terminate(s *Spawned) error {
	return b.Signal(s, SIGTERM)
}

func (b *posixBackend) Kill(s *Spawned) error {
	return b.Signal(s, SIGKILL)
}

func (b *posixBackend) Signal(s *Spawned, sig Signal) error {
	pid := targetPid(s, s.NewProcessGroup && s.Pgid > 0)
	if err := unix.Kill(pid, unix.Signal(sig)); err != nil {
		return newErr(KindKillFailed, err, "signal")
	}
	return nil
}

// posixWaitOps adapts posixBackend + a single Spawned into the waitOps
// surface the pure wait-policy algorithm (waitpolicy.go) consumes.
type posixWaitOps struct {
	s *Spawned
	b *posixBackend
}

func (o *posixWaitOps) tryWait() (*ExitStatus, error) {
	var status unix.WaitStatus
	var rusage unix.Rusage
	pid, err := unix.Wait4(o.s.Pid, &status, unix.WNOHANG, &rusage)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if pid == 0 {
		return nil, nil
	}
	return statusFromWait(status, &rusage), nil
}

func (o *posixWaitOps) waitBlocking() (*ExitStatus, error) {
	var status unix.WaitStatus
	var rusage unix.Rusage
	for {
		_, err := unix.Wait4(o.s.Pid, &status, 0, &rusage)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		return statusFromWait(status, &rusage), nil
	}
}

func (o *posixWaitOps) terminate() error {
	return o.b.Terminate(o.s)
}

func (o *posixWaitOps) kill() error {
	return o.b.Kill(o.s)
}
