//go:build !windows

package execkit

import (
	"golang.org/x/sys/unix"
)

// drainConcurrently reads stdout and stderr to completion without ever
// blocking on one stream while data backs up on the other, the deadlock
// os/exec.Cmd.Output avoids by spawning one goroutine per stream. Here the
// same guarantee is built on a single-threaded poll(2) loop instead (spec.md
// §4.3's "readiness-driven" requirement): both fds are set non-blocking and
// registered with poll, and a stream is only read from when poll reports it
// readable, then drained in 8 KiB reads until EAGAIN, so a full pipe buffer
// on one stream never starves reads on the other. Grounded
// on the poll-driven copy loop in buildah's chroot/run_common.go.
//
// Either pipe may be nil (stream wasn't piped); drainConcurrently returns
// immediately if both are nil.
func drainConcurrently(stdout, stderr *Pipe) (outBuf, errBuf []byte, err error) {
	type stream struct {
		pipe *Pipe
		buf  *[]byte
		done bool
	}
	streams := make([]*stream, 0, 2)
	if stdout != nil {
		streams = append(streams, &stream{pipe: stdout, buf: &outBuf})
	}
	if stderr != nil {
		streams = append(streams, &stream{pipe: stderr, buf: &errBuf})
	}
	if len(streams) == 0 {
		return nil, nil, nil
	}
	defer func() {
		for _, s := range streams {
			s.pipe.Close()
		}
	}()
	for _, s := range streams {
		if serr := unix.SetNonblock(s.pipe.Fd(), true); serr != nil {
			return nil, nil, newErr(KindReadFailed, serr, "set non-blocking")
		}
	}

	readBuf := make([]byte, 8*1024)
	remaining := len(streams)

	for remaining > 0 {
		fds := make([]unix.PollFd, 0, len(streams))
		active := make([]*stream, 0, len(streams))
		for _, s := range streams {
			if s.done {
				continue
			}
			fds = append(fds, unix.PollFd{Fd: int32(s.pipe.Fd()), Events: unix.POLLIN})
			active = append(active, s)
		}

		n, perr := unix.Poll(fds, -1)
		if perr == unix.EINTR {
			continue
		}
		if perr != nil {
			return outBuf, errBuf, newErr(KindReadFailed, perr, "poll")
		}
		if n == 0 {
			continue
		}

		for i, fd := range fds {
			if fd.Revents == 0 {
				continue
			}
			s := active[i]
			if fd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				for {
					nread, rerr := s.pipe.ReadSome(readBuf)
					if nread > 0 {
						*s.buf = append(*s.buf, readBuf[:nread]...)
					}
					if e, ok := rerr.(*Error); ok && e.Cause == unix.EAGAIN {
						break
					}
					if rerr != nil || nread == 0 {
						s.done = true
						remaining--
						break
					}
				}
			}
		}
	}

	return outBuf, errBuf, nil
}
