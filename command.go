// Package execkit is a cross-platform (POSIX), shell-free process-execution
// library: it launches child processes, wires their standard streams,
// composes them into pipelines, waits for completion under timeout and
// cancellation policies, and captures output without deadlocking on OS
// pipe-buffer back-pressure.
package execkit

import (
	"context"
)

// EnvValue is the result of looking up an env_delta entry: either "set to
// this value" or "unset", per spec.md §3 ("mapping from key to set(value) |
// unset").
type EnvValue struct {
	unset bool
	value string
}

// SetEnv constructs an EnvValue that sets a variable to value.
func SetEnv(value string) EnvValue { return EnvValue{value: value} }

// UnsetEnv constructs an EnvValue that removes a variable from the resolved
// environment, even if InheritEnv pulled it in.
func UnsetEnv() EnvValue { return EnvValue{unset: true} }

// SpawnOptions are the user-facing spawn options of spec.md §6.
type SpawnOptions struct {
	NewProcessGroup       bool
	MergeStderrIntoStdout bool
}

// Command is the user-facing builder for a single child process. It is pure
// data until Spawn/Status/Output calls lowering and the backend; nothing
// about it performs a syscall on construction (spec.md §4.1's "lowering is
// pure").
type Command struct {
	argv []string

	cwd string

	inheritEnv bool
	envDelta   map[string]EnvValue

	stdin  Stdio
	stdout Stdio
	stderr Stdio

	opts SpawnOptions

	ctx context.Context
}

// NewCommand builds a Command for the given program and arguments. argv[0]
// is the program; it is not resolved against $PATH here (that happens at
// spawn time by the backend) unless the caller explicitly uses LookPath
// themselves, mirroring the teacher's Command() convenience but keeping
// lowering itself syscall-free.
func NewCommand(program string, args ...string) *Command {
	return &Command{
		argv:     append([]string{program}, args...),
		envDelta: make(map[string]EnvValue),
	}
}

// CommandContext is like NewCommand but ties the command's lifetime to ctx:
// Spawn fails immediately if ctx is already done, and a background watcher
// kills the process if ctx is canceled after Spawn succeeds.
func CommandContext(ctx context.Context, program string, args ...string) *Command {
	c := NewCommand(program, args...)
	c.ctx = ctx
	return c
}

// Arg appends a single argument.
func (c *Command) Arg(a string) *Command {
	c.argv = append(c.argv, a)
	return c
}

// Args appends multiple arguments.
func (c *Command) Args(as ...string) *Command {
	c.argv = append(c.argv, as...)
	return c
}

// Dir sets the child's working directory.
func (c *Command) Dir(dir string) *Command {
	c.cwd = dir
	return c
}

// InheritEnv causes the current process environment to seed the resolved
// environment before EnvSet/EnvUnset deltas are applied. Without this call
// the child's environment is exactly the deltas (spec.md: "No environment
// inheritance by default").
func (c *Command) InheritEnv() *Command {
	c.inheritEnv = true
	return c
}

// EnvSet records that key should resolve to value in the lowered envp,
// overriding inheritance.
func (c *Command) EnvSet(key, value string) *Command {
	c.envDelta[key] = SetEnv(value)
	return c
}

// EnvUnset records that key should be absent from the lowered envp, even if
// InheritEnv pulled it in from the current process.
func (c *Command) EnvUnset(key string) *Command {
	c.envDelta[key] = UnsetEnv()
	return c
}

// Stdin sets the child's standard input selection.
func (c *Command) Stdin(s Stdio) *Command {
	c.stdin = s
	return c
}

// Stdout sets the child's standard output selection.
func (c *Command) Stdout(s Stdio) *Command {
	c.stdout = s
	return c
}

// Stderr sets the child's standard error selection.
func (c *Command) Stderr(s Stdio) *Command {
	c.stderr = s
	return c
}

// WithOptions sets the command's spawn options (process group, stderr
// merging).
func (c *Command) WithOptions(opts SpawnOptions) *Command {
	c.opts = opts
	return c
}

// lowerMode selects the defaulting behavior used by lowering: spawnModeSpawn
// leaves unset streams as inherit; spawnModeOutput defaults unset
// stdout/stderr to piped (spec.md §4.1).
type lowerMode int

const (
	spawnModeSpawn lowerMode = iota
	spawnModeOutput
)

// Spawn lowers the command and starts it via the default backend, returning
// a live Child handle.
func (c *Command) Spawn() (*Child, error) {
	return c.spawnWithMode(spawnModeSpawn, nil)
}

// Status lowers, spawns, waits (no timeout) and returns the resulting
// ExitStatus, discarding any piped stdio by leaving it unset (== inherit).
func (c *Command) Status() (*ExitStatus, error) {
	child, err := c.Spawn()
	if err != nil {
		return nil, err
	}
	return child.Wait()
}

// Output lowers with spawnModeOutput (defaulting stdout/stderr to piped
// unless the caller overrode them), spawns, drains both streams
// concurrently without deadlocking, and waits. It is the composition point
// spec.md §5 "Ordering" describes: spawn -> close unused stdin writer ->
// drain concurrently -> wait.
type Output struct {
	Stdout []byte
	Stderr []byte
	Status *ExitStatus
}

func (c *Command) Output() (*Output, error) {
	child, err := c.spawnWithMode(spawnModeOutput, nil)
	if err != nil {
		return nil, err
	}
	return runOutputSequence(child)
}

func runOutputSequence(child *Child) (*Output, error) {
	// The head's stdin was never written to by us; close it immediately so
	// a child reading from stdin sees EOF rather than hanging forever.
	if in := child.TakeStdin(); in != nil {
		in.Close()
	}

	outPipe := child.TakeStdout()
	errPipe := child.TakeStderr()

	stdout, stderr, drainErr := drainConcurrently(outPipe, errPipe)

	status, waitErr := child.Wait()
	out := &Output{Stdout: stdout, Stderr: stderr, Status: status}
	if waitErr != nil {
		return out, waitErr
	}
	if drainErr != nil {
		return out, drainErr
	}
	if status != nil && !status.Success() {
		return out, &ExitError{ExitStatus: status, Stderr: stderr}
	}
	return out, nil
}

func (c *Command) spawnWithMode(mode lowerMode, overrides *stdioOverrides) (*Child, error) {
	if c.ctx != nil {
		select {
		case <-c.ctx.Done():
			return nil, c.ctx.Err()
		default:
		}
	}
	spec, err := lowerCommand(c, mode, overrides)
	if err != nil {
		return nil, err
	}
	spawned, err := defaultBackend.Spawn(spec)
	if err != nil {
		return nil, err
	}
	child := newChild(spawned)
	if c.ctx != nil {
		child.watchContext(c.ctx)
	}
	return child, nil
}
