package execkit

import (
	"golang.org/x/sync/errgroup"
)

// PipelineBuilder composes N commands into a pipeline: stage i's stdout
// feeds stage i+1's stdin over an anonymous pipe, per spec.md §4.6. It is
// built incrementally with Pipe, mirroring a shell "cmd1 | cmd2 | cmd3"
// without ever invoking a shell.
type PipelineBuilder struct {
	stages []*Command

	pipefail bool
	newGroup bool

	headStdin  *Stdio
	tailStdout *Stdio
	tailStderr *Stdio
}

// NewPipeline starts a pipeline with head as its first stage.
func NewPipeline(head *Command) *PipelineBuilder {
	return &PipelineBuilder{stages: []*Command{head}}
}

// Pipe appends next as the pipeline's new tail stage, its stdin fed from the
// current tail's stdout.
func (p *PipelineBuilder) Pipe(next *Command) *PipelineBuilder {
	p.stages = append(p.stages, next)
	return p
}

// Pipefail controls whether the pipeline's overall success requires every
// stage to succeed (true) or only the last stage (false, the shell
// default), per spec.md §4.6.
func (p *PipelineBuilder) Pipefail(v bool) *PipelineBuilder {
	p.pipefail = v
	return p
}

// NewProcessGroup places every stage into one new process group rooted at
// the first stage's pid, so the whole pipeline can be signaled as a unit.
func (p *PipelineBuilder) NewProcessGroup(v bool) *PipelineBuilder {
	p.newGroup = v
	return p
}

// Stdin overrides the head stage's stdin (default: inherit).
func (p *PipelineBuilder) Stdin(s Stdio) *PipelineBuilder {
	p.headStdin = &s
	return p
}

// Stdout overrides the tail stage's stdout (default: inherit).
func (p *PipelineBuilder) Stdout(s Stdio) *PipelineBuilder {
	p.tailStdout = &s
	return p
}

// Stderr overrides the tail stage's stderr (default: inherit).
func (p *PipelineBuilder) Stderr(s Stdio) *PipelineBuilder {
	p.tailStderr = &s
	return p
}

// PipelineChild is the live handle to a running pipeline: one Child per
// stage, in order.
type PipelineChild struct {
	children []*Child
	pipefail bool
	newGroup bool
}

// TakeStdin returns the parent-side write end of the head stage's stdin, if
// it was piped, transferring ownership to the caller. A second call returns
// nil.
func (pc *PipelineChild) TakeStdin() *Pipe {
	if len(pc.children) == 0 {
		return nil
	}
	return pc.children[0].TakeStdin()
}

// TakeStdout returns the parent-side read end of the tail stage's stdout, if
// it was piped, transferring ownership to the caller. A second call returns
// nil.
func (pc *PipelineChild) TakeStdout() *Pipe {
	if len(pc.children) == 0 {
		return nil
	}
	return pc.children[len(pc.children)-1].TakeStdout()
}

// TakeStderr returns the parent-side read end of the tail stage's stderr, if
// it was piped, transferring ownership to the caller. A second call returns
// nil.
func (pc *PipelineChild) TakeStderr() *Pipe {
	if len(pc.children) == 0 {
		return nil
	}
	return pc.children[len(pc.children)-1].TakeStderr()
}

// PipelineStatus is the aggregate outcome of a finished pipeline.
type PipelineStatus struct {
	Statuses []*ExitStatus
	Success  bool
}

// PipelineOutput is the aggregate drained output of a finished pipeline,
// mirroring Command's Output.
type PipelineOutput struct {
	Stdout []byte
	Stderr []byte
	Status *PipelineStatus
}

// PipelineExitError reports an unsuccessful pipeline exit, mirroring
// ExitError but speaking in terms of the whole pipeline's aggregate status.
type PipelineExitError struct {
	*PipelineStatus
	Stderr []byte
}

func (e *PipelineExitError) Error() string {
	if n := len(e.Statuses); n > 0 {
		return "pipeline: " + e.Statuses[n-1].String()
	}
	return "pipeline: no stages"
}

// Spawn lowers and starts every stage, wiring the inter-stage pipes and
// (if requested) a shared process group, per spec.md §4.6's "lower_pipeline"
// + "spawn in order, propagating pgid from the first stage". If any stage
// fails to spawn, every already-spawned stage is killed and reaped
// concurrently (via errgroup) before the error is returned, so a partial
// pipeline never leaks running children.
func (p *PipelineBuilder) Spawn() (*PipelineChild, error) {
	return p.spawn(p.tailStdout, p.tailStderr)
}

// Status spawns the pipeline and waits (no timeout), returning the
// aggregate PipelineStatus, discarding any piped stdio by leaving it unset
// (== inherit).
func (p *PipelineBuilder) Status() (*PipelineStatus, error) {
	child, err := p.Spawn()
	if err != nil {
		return nil, err
	}
	return child.Wait()
}

// Output spawns the pipeline, defaulting the tail stage's stdout/stderr to
// piped unless the caller overrode them, drains both concurrently without
// deadlocking, and waits. It follows the same spawn -> close unused stdin
// writer -> drain -> wait sequence as Command.Output.
func (p *PipelineBuilder) Output() (*PipelineOutput, error) {
	stdout := p.tailStdout
	if stdout == nil {
		piped := Piped()
		stdout = &piped
	}
	stderr := p.tailStderr
	if stderr == nil {
		piped := Piped()
		stderr = &piped
	}

	child, err := p.spawn(stdout, stderr)
	if err != nil {
		return nil, err
	}

	if in := child.TakeStdin(); in != nil {
		in.Close()
	}
	outPipe := child.TakeStdout()
	errPipe := child.TakeStderr()
	drained, stderrBytes, drainErr := drainConcurrently(outPipe, errPipe)

	status, waitErr := child.Wait()
	out := &PipelineOutput{Stdout: drained, Stderr: stderrBytes, Status: status}
	if waitErr != nil {
		return out, waitErr
	}
	if drainErr != nil {
		return out, drainErr
	}
	if status != nil && !status.Success {
		return out, &PipelineExitError{PipelineStatus: status, Stderr: stderrBytes}
	}
	return out, nil
}

func (p *PipelineBuilder) spawn(tailStdout, tailStderr *Stdio) (*PipelineChild, error) {
	n := len(p.stages)
	if _, err := lowerPipelineStageModes(n); err != nil {
		return nil, err
	}

	type innerPipe struct{ r, w *Pipe }
	pipes := make([]innerPipe, n-1)
	for i := range pipes {
		r, w, err := newOSPipe()
		if err != nil {
			for j := 0; j < i; j++ {
				pipes[j].r.Close()
				pipes[j].w.Close()
			}
			return nil, err
		}
		pipes[i] = innerPipe{r: r, w: w}
	}
	closeAllPipes := func() {
		for _, pp := range pipes {
			pp.r.Close()
			pp.w.Close()
		}
	}

	children := make([]*Child, 0, n)
	var leaderPgid *int

	fail := func(err error) (*PipelineChild, error) {
		closeAllPipes()
		if len(children) > 0 {
			var g errgroup.Group
			for _, ch := range children {
				ch := ch
				g.Go(func() error {
					ch.Kill()
					ch.Wait()
					return nil
				})
			}
			g.Wait()
		}
		return nil, err
	}

	for i, cmd := range p.stages {
		overrides := &stdioOverrides{}
		if i == 0 {
			overrides.stdin = p.headStdin
		} else {
			in := Fd(pipes[i-1].r.Fd())
			overrides.stdin = &in
		}
		if i == n-1 {
			overrides.stdout = tailStdout
			overrides.stderr = tailStderr
		} else {
			out := Fd(pipes[i].w.Fd())
			overrides.stdout = &out
		}

		spec, err := lowerCommand(cmd, spawnModeSpawn, overrides)
		if err != nil {
			return fail(err)
		}
		if i == 0 && p.newGroup {
			spec.Opts.NewProcessGroup = true
		} else if leaderPgid != nil {
			spec.ProcessGroup = leaderPgid
		}

		spawned, err := defaultBackend.Spawn(spec)
		if err != nil {
			return fail(err)
		}
		child := newChild(spawned)
		children = append(children, child)

		if i == 0 && p.newGroup {
			pg := spawned.Pgid
			leaderPgid = &pg
		}

		// Both ends of pipe[i-1] and pipe[i] that this stage just consumed
		// are now dup'd into the child; the parent's copies serve no
		// further purpose and must be closed so EOF propagates correctly
		// down the pipeline.
		if i > 0 {
			pipes[i-1].r.Close()
		}
		if i < n-1 {
			pipes[i].w.Close()
		}
	}

	return &PipelineChild{children: children, pipefail: p.pipefail, newGroup: p.newGroup}, nil
}

// Wait waits for every stage and aggregates the result per spec.md §4.6:
// with pipefail, success requires every stage to succeed; without it, only
// the last stage's status matters (the shell default).
func (pc *PipelineChild) Wait() (*PipelineStatus, error) {
	statuses := make([]*ExitStatus, len(pc.children))
	var g errgroup.Group
	for i, ch := range pc.children {
		i, ch := i, ch
		g.Go(func() error {
			st, err := ch.Wait()
			statuses[i] = st
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return &PipelineStatus{Statuses: statuses}, err
	}

	success := true
	if pc.pipefail {
		for _, st := range statuses {
			if st == nil || !st.Success() {
				success = false
				break
			}
		}
	} else if n := len(statuses); n > 0 {
		last := statuses[n-1]
		success = last != nil && last.Success()
	}

	return &PipelineStatus{Statuses: statuses, Success: success}, nil
}

// Terminate sends SIGTERM to every stage, or to the shared process group if
// NewProcessGroup was requested (a single signal then suffices).
func (pc *PipelineChild) Terminate() error {
	if pc.newGroup && len(pc.children) > 0 {
		return pc.children[0].Terminate()
	}
	var firstErr error
	for _, ch := range pc.children {
		if err := ch.Terminate(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Kill sends SIGKILL to every stage, or to the shared process group.
func (pc *PipelineChild) Kill() error {
	if pc.newGroup && len(pc.children) > 0 {
		return pc.children[0].Kill()
	}
	var firstErr error
	for _, ch := range pc.children {
		if err := ch.Kill(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
