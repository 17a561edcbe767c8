package execkit

import (
	"context"
	"sync"
)

// Child is a live handle to a spawned process: its pid/pgid, the parent-side
// ends of any piped stdio, and the operations spec.md §3/§6 define over a
// running child (wait, try_wait, terminate, kill, signal).
type Child struct {
	spawned *Spawned

	mu     sync.Mutex
	stdin  *Pipe
	stdout *Pipe
	stderr *Pipe
	taken  struct{ stdin, stdout, stderr bool }

	waitOnce sync.Once
	waitRes  *ExitStatus
	waitErr  error
	waited   bool

	cancel context.CancelFunc
}

func newChild(s *Spawned) *Child {
	c := &Child{spawned: s}
	if s.StdinFd != nil {
		c.stdin = &Pipe{fd: s.StdinFd}
	}
	if s.StdoutFd != nil {
		c.stdout = &Pipe{fd: s.StdoutFd}
	}
	if s.StderrFd != nil {
		c.stderr = &Pipe{fd: s.StderrFd}
	}
	return c
}

// Pid returns the child's process id.
func (c *Child) Pid() int { return c.spawned.Pid }

// Pgid returns the child's process group id, or 0 if it was not placed in a
// new/explicit group.
func (c *Child) Pgid() int { return c.spawned.Pgid }

// TakeStdin returns the parent-side write end of stdin, if Piped() was used,
// transferring ownership to the caller. A second call returns nil.
func (c *Child) TakeStdin() *Pipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken.stdin || c.stdin == nil {
		return nil
	}
	c.taken.stdin = true
	return c.stdin
}

// TakeStdout returns the parent-side read end of stdout, if Piped() was
// used, transferring ownership to the caller. A second call returns nil.
func (c *Child) TakeStdout() *Pipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken.stdout || c.stdout == nil {
		return nil
	}
	c.taken.stdout = true
	return c.stdout
}

// TakeStderr returns the parent-side read end of stderr, if Piped() was
// used, transferring ownership to the caller. A second call returns nil.
func (c *Child) TakeStderr() *Pipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken.stderr || c.stderr == nil {
		return nil
	}
	c.taken.stderr = true
	return c.stderr
}

// Wait blocks until the child exits, per spec.md §4.4 (no timeout).
func (c *Child) Wait() (*ExitStatus, error) {
	return c.WaitTimeout(WaitOptions{})
}

// WaitTimeout waits with the timeout + escalation policy of spec.md §4.4.
// Calling it more than once returns the first call's result; a process can
// only be reaped once.
func (c *Child) WaitTimeout(opts WaitOptions) (*ExitStatus, error) {
	c.waitOnce.Do(func() {
		c.waitRes, c.waitErr = defaultBackend.Wait(c.spawned, opts)
		c.waited = true
	})
	return c.waitRes, c.waitErr
}

// TryWait performs a single non-blocking poll for exit, per spec.md §4.4's
// try_wait primitive. It does not participate in the Wait-once memoization:
// once TryWait has returned a status the process has been reaped, and a
// later Wait, which calls wait4 on the same pid again, fails with
// KindWaitFailed.
func (c *Child) TryWait() (*ExitStatus, error) {
	return defaultBackend.TryWait(c.spawned)
}

// Terminate sends the platform's graceful-stop signal (SIGTERM), or to the
// whole process group if the child was started with NewProcessGroup.
func (c *Child) Terminate() error {
	return defaultBackend.Terminate(c.spawned)
}

// Kill sends SIGKILL, or to the whole process group if the child was
// started with NewProcessGroup.
func (c *Child) Kill() error {
	return defaultBackend.Kill(c.spawned)
}

// Signal sends an arbitrary signal to the child (or its process group).
func (c *Child) Signal(sig Signal) error {
	return defaultBackend.Signal(c.spawned, sig)
}

// watchContext arranges for the child to be killed if ctx is canceled
// before it exits naturally, per spec.md §4.1's CommandContext semantics.
// The watcher goroutine exits once Wait (called from anywhere) completes.
func (c *Child) watchContext(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.Kill()
		case <-done:
		}
	}()
	go func() {
		c.Wait()
		close(done)
	}()
}
