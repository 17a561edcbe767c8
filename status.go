//go:build !windows

package execkit

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ExitStatus is the portable outcome of a finished child: either it called
// _exit/returned from main with a code in [0,255], or it ended some other
// way (signal, stop, continue) captured as native platform status.
type ExitStatus struct {
	exited bool
	code   int32
	native unix.WaitStatus
	rusage *unix.Rusage
}

func exitedStatus(code int32, native unix.WaitStatus) *ExitStatus {
	return &ExitStatus{exited: true, code: code, native: native}
}

func otherStatus(native unix.WaitStatus) *ExitStatus {
	return &ExitStatus{exited: false, native: native}
}

// Success reports whether the process exited with code 0.
func (s *ExitStatus) Success() bool {
	return s.exited && s.code == 0
}

// Exited reports whether the process terminated by calling exit (as opposed
// to being killed by a signal, stopped, or continued).
func (s *ExitStatus) Exited() bool {
	return s.exited
}

// Code returns the exit code and true, or (0, false) if the process did not
// exit normally (ExitStatus::exited(c,n).code() == some(c); ::other(n).code()
// == none, per spec.md §8).
func (s *ExitStatus) Code() (int32, bool) {
	if !s.exited {
		return 0, false
	}
	return s.code, true
}

// Signaled reports whether the process was terminated by a signal.
func (s *ExitStatus) Signaled() bool {
	return !s.exited && s.native.Signaled()
}

// Signal returns the terminating signal, if Signaled reports true.
func (s *ExitStatus) Signal() unix.Signal {
	return s.native.Signal()
}

// Sys returns the raw platform wait status, for callers that need it.
func (s *ExitStatus) Sys() unix.WaitStatus {
	return s.native
}

// SysUsage returns resource usage info collected at wait time, if any.
func (s *ExitStatus) SysUsage() *unix.Rusage {
	return s.rusage
}

// UserTime returns the user CPU time of the exited process and its children.
func (s *ExitStatus) UserTime() time.Duration {
	if s.rusage == nil {
		return 0
	}
	return time.Duration(s.rusage.Utime.Nano()) * time.Nanosecond
}

// SystemTime returns the system CPU time of the exited process and its children.
func (s *ExitStatus) SystemTime() time.Duration {
	if s.rusage == nil {
		return 0
	}
	return time.Duration(s.rusage.Stime.Nano()) * time.Nanosecond
}

func (s *ExitStatus) String() string {
	if s == nil {
		return "<nil>"
	}
	switch {
	case s.exited:
		if s.code == 0 {
			return "exit status 0"
		}
		return fmt.Sprintf("exit status %d", s.code)
	case s.native.Signaled():
		sig := s.native.Signal()
		str := sig.String()
		if s.native.CoreDump() {
			str += " (core dumped)"
		}
		return "signal: " + str
	case s.native.Stopped():
		return "stop signal: " + s.native.StopSignal().String()
	case s.native.Continued():
		return "continued"
	default:
		return fmt.Sprintf("unknown status: %v", s.native)
	}
}

func statusFromWait(status unix.WaitStatus, rusage *unix.Rusage) *ExitStatus {
	var st *ExitStatus
	if status.Exited() {
		st = exitedStatus(int32(status.ExitStatus()), status)
	} else {
		st = otherStatus(status)
	}
	st.rusage = rusage
	return st
}
