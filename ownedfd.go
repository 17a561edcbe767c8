//go:build !windows

package execkit

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ownedFd is a scoped, move-only wrapper around a raw file descriptor. It
// guarantees release on every exit path and makes double-close impossible by
// swapping the stored fd for -1 when it is taken or closed (grounded on the
// teacher's closeAfterStart/closeClosers scope-guard idiom in spawn_darwin.go).
type ownedFd struct {
	fd int32 // -1 once released or taken
}

func newOwnedFd(fd int) *ownedFd {
	v := &ownedFd{fd: int32(fd)}
	return v
}

// Fd returns the raw descriptor, or -1 if it has been released/taken.
func (o *ownedFd) Fd() int {
	if o == nil {
		return -1
	}
	return int(atomic.LoadInt32(&o.fd))
}

// Take moves the descriptor out, leaving this ownedFd empty. The caller is
// now responsible for it.
func (o *ownedFd) Take() int {
	if o == nil {
		return -1
	}
	return int(atomic.SwapInt32(&o.fd, -1))
}

// Close releases the descriptor if still owned; double-close is a no-op.
func (o *ownedFd) Close() error {
	if o == nil {
		return nil
	}
	fd := atomic.SwapInt32(&o.fd, -1)
	if fd < 0 {
		return nil
	}
	if err := unix.Close(int(fd)); err != nil {
		return newErr(KindCloseFailed, err, "close")
	}
	return nil
}

// fdGuard tracks a flat list of prepared-but-not-yet-committed owned fds and
// closes all of them on failure. Spec.md §4.2 calls this "a scope guard that
// closes them on any failure path"; §9 explicitly rules out a graph, just a
// flat vector.
type fdGuard struct {
	fds []*ownedFd
}

func (g *fdGuard) track(fd *ownedFd) *ownedFd {
	g.fds = append(g.fds, fd)
	return fd
}

func (g *fdGuard) closeAll() {
	for _, fd := range g.fds {
		fd.Close()
	}
	g.fds = nil
}

// release empties the guard without closing anything, for the success path
// where ownership has moved elsewhere (e.g. into a Spawned/Pipe).
func (g *fdGuard) release() {
	g.fds = nil
}
