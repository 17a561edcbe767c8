//go:build !windows

package execkit

import (
	"io"

	"golang.org/x/sys/unix"
)

// Pipe is an owning, move-only byte-oriented endpoint wrapping a single fd,
// per spec.md §4.5. It retries on EINTR and closes its fd on Close; a Pipe
// that has been closed (or whose fd was taken) is inert.
type Pipe struct {
	fd *ownedFd
}

func newPipe(fd int) *Pipe {
	return &Pipe{fd: newOwnedFd(fd)}
}

// Fd returns the underlying descriptor, or -1 if closed/taken.
func (p *Pipe) Fd() int {
	if p == nil {
		return -1
	}
	return p.fd.Fd()
}

// ReadSome performs a single read, retrying on EINTR.
func (p *Pipe) ReadSome(buf []byte) (int, error) {
	fd := p.Fd()
	if fd < 0 {
		return 0, newErr(KindReadFailed, io.ErrClosedPipe, "read")
	}
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return n, newErr(KindReadFailed, err, "read")
		}
		return n, nil
	}
}

// WriteSome performs a single write, retrying on EINTR.
func (p *Pipe) WriteSome(buf []byte) (int, error) {
	fd := p.Fd()
	if fd < 0 {
		return 0, newErr(KindWriteFailed, io.ErrClosedPipe, "write")
	}
	for {
		n, err := unix.Write(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return n, newErr(KindWriteFailed, err, "write")
		}
		return n, nil
	}
}

// ReadAll reads until EOF, appending into an internal buffer.
func (p *Pipe) ReadAll() ([]byte, error) {
	var out []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := p.ReadSome(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil
		}
	}
}

// WriteAll loops until all of data has been written, or fails with
// KindWriteFailed on a zero-return partial write (spec.md §4.5).
func (p *Pipe) WriteAll(data []byte) error {
	for len(data) > 0 {
		n, err := p.WriteSome(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return newErr(KindWriteFailed, io.ErrShortWrite, "write")
		}
		data = data[n:]
	}
	return nil
}

// Close closes the underlying fd; safe to call more than once.
func (p *Pipe) Close() error {
	if p == nil {
		return nil
	}
	return p.fd.Close()
}

// Read implements io.Reader by delegating to ReadSome, so a Pipe can be
// handed to io.Copy or bufio readers by callers who took it via
// Child.TakeStdout etc.
func (p *Pipe) Read(buf []byte) (int, error) {
	n, err := p.ReadSome(buf)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer by delegating to WriteSome.
func (p *Pipe) Write(buf []byte) (int, error) {
	return p.WriteSome(buf)
}

// newOSPipe creates an anonymous pipe with both ends close-on-exec, per
// spec.md §4.5 "All procly-created pipes are close-on-exec at creation."
func newOSPipe() (r, w *Pipe, err error) {
	var fds [2]int
	if perr := unix.Pipe2(fds[:], unix.O_CLOEXEC); perr != nil {
		return nil, nil, newErr(KindPipeFailed, perr, "pipe2")
	}
	return newPipe(fds[0]), newPipe(fds[1]), nil
}
