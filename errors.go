package execkit

import (
	"errors"
	"syscall"
)

// ErrorKind is the closed set of domain error categories carried by *Error.
// Entry points report failures as *Error with one of these kinds, except a
// non-success exit from Output (*ExitError, or *PipelineExitError for a
// pipeline) and a CommandContext whose context is already done at Spawn
// (ctx.Err()).
type ErrorKind int

const (
	KindOK ErrorKind = iota
	KindEmptyArgv
	KindInvalidStdio
	KindInvalidPipeline
	KindPipeFailed
	KindSpawnFailed
	KindWaitFailed
	KindReadFailed
	KindWriteFailed
	KindOpenFailed
	KindCloseFailed
	KindDupFailed
	KindChdirFailed
	KindKillFailed
	KindTimeout
	KindNotFound
	KindDotRelative
)

func (k ErrorKind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmptyArgv:
		return "empty_argv"
	case KindInvalidStdio:
		return "invalid_stdio"
	case KindInvalidPipeline:
		return "invalid_pipeline"
	case KindPipeFailed:
		return "pipe_failed"
	case KindSpawnFailed:
		return "spawn_failed"
	case KindWaitFailed:
		return "wait_failed"
	case KindReadFailed:
		return "read_failed"
	case KindWriteFailed:
		return "write_failed"
	case KindOpenFailed:
		return "open_failed"
	case KindCloseFailed:
		return "close_failed"
	case KindDupFailed:
		return "dup_failed"
	case KindChdirFailed:
		return "chdir_failed"
	case KindKillFailed:
		return "kill_failed"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindDotRelative:
		return "dot_relative"
	default:
		return "unknown"
	}
}

// Error is the error type execkit entry points return for failures (see
// ErrorKind for the exceptions). Cause
// carries the underlying OS errno when the failure originated in a syscall;
// it is nil for pure domain failures (empty argv, timeout, ...).
type Error struct {
	Kind    ErrorKind
	Cause   error
	Context string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Context != "" {
			return e.Context + ": " + e.Kind.String() + ": " + e.Cause.Error()
		}
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	if e.Context != "" {
		return e.Context + ": " + e.Kind.String()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same ErrorKind, so callers
// can match a kind with errors.Is(err, &execkit.Error{Kind: execkit.KindTimeout}).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind ErrorKind, cause error, context string) *Error {
	return &Error{Kind: kind, Cause: cause, Context: context}
}

// errno extracts a syscall.Errno from err, if any.
func errno(err error) (syscall.Errno, bool) {
	var e syscall.Errno
	if errors.As(err, &e) {
		return e, true
	}
	return 0, false
}

// ExitError reports an unsuccessful exit by a command. It wraps the exit
// status the way the teacher's *ExitError does, but speaks in terms of the
// portable ExitStatus rather than a raw unix.WaitStatus.
type ExitError struct {
	*ExitStatus

	// Stderr holds the standard error drained by Command.Output; it is nil
	// when stderr was not piped (redirected by the caller, or merged into
	// stdout).
	Stderr []byte
}

func (e *ExitError) Error() string {
	return e.ExitStatus.String()
}

// ErrNotFound is returned by LookPath when no executable is found on PATH.
var ErrNotFound = errors.New("execkit: executable file not found in $PATH")

// ErrDot indicates a path lookup resolved to an executable in the current
// directory because of an (implicit or explicit) "." entry in $PATH.
var ErrDot = errors.New("execkit: cannot run executable found relative to current directory")
