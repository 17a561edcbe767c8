package execkit

import "time"

// DefaultKillGrace is the default grace period between a soft termination
// signal and an escalation to kill, per spec.md §6 ("kill_grace: duration
// (default 200 ms)").
const DefaultKillGrace = 200 * time.Millisecond

// pollStep is how long the wait policy sleeps between try_wait polls while a
// timeout is in effect (spec.md §4.4: "sleep one step (1 ms)").
const pollStep = time.Millisecond

// WaitOptions parameterizes a bounded wait. Timeout nil means "wait
// forever" (equivalent to wait_blocking). KillGrace defaults to
// DefaultKillGrace when zero.
type WaitOptions struct {
	Timeout   *time.Duration
	KillGrace time.Duration
}

// waitOps is the minimal backend surface the wait policy algorithm needs;
// kept as an interface (rather than depending on *Backend concretely) so the
// state machine in runWaitPolicy can be unit tested against a fake, per
// spec.md §4.4 ("a pure algorithm over a WaitOps interface").
type waitOps interface {
	tryWait() (*ExitStatus, error)
	waitBlocking() (*ExitStatus, error)
	terminate() error
	kill() error
}

// runWaitPolicy implements the timeout + graceful-termination state machine
// of spec.md §4.4: no timeout blocks; with a timeout, it polls until the
// deadline, then escalates terminate -> (grace window) -> kill, always
// reporting KindTimeout once escalation has begun (even if the child exits
// during the grace window) because the caller's contract was "succeed within
// timeout".
func runWaitPolicy(ops waitOps, clock Clock, opts WaitOptions) (*ExitStatus, error) {
	if opts.Timeout == nil {
		st, err := ops.waitBlocking()
		if err != nil {
			return nil, newErr(KindWaitFailed, err, "wait")
		}
		return st, nil
	}

	killGrace := opts.KillGrace
	if killGrace == 0 {
		killGrace = DefaultKillGrace
	}

	deadline := clock.Now().Add(*opts.Timeout)
	for clock.Now().Before(deadline) || clock.Now().Equal(deadline) {
		st, err := ops.tryWait()
		if err != nil {
			return nil, newErr(KindWaitFailed, err, "try_wait")
		}
		if st != nil {
			return st, nil
		}
		if clock.Now().Equal(deadline) || clock.Now().After(deadline) {
			break
		}
		clock.Sleep(pollStep)
	}
	// One last immediate check at/after the deadline before escalating.
	if st, err := ops.tryWait(); err != nil {
		return nil, newErr(KindWaitFailed, err, "try_wait")
	} else if st != nil {
		return st, nil
	}

	if err := ops.terminate(); err != nil {
		return nil, newErr(KindKillFailed, err, "terminate")
	}
	graceDeadline := clock.Now().Add(killGrace)
	for clock.Now().Before(graceDeadline) {
		st, err := ops.tryWait()
		if err != nil {
			return nil, newErr(KindWaitFailed, err, "try_wait")
		}
		if st != nil {
			// Finished during the grace window: still a timeout, per
			// spec.md §4.4's rationale ("the process did not meet [the
			// caller's] contract").
			return nil, newErr(KindTimeout, nil, "wait")
		}
		clock.Sleep(pollStep)
	}

	if err := ops.kill(); err != nil {
		return nil, newErr(KindKillFailed, err, "kill")
	}
	// Reap to avoid a zombie; the result is discarded per spec.md §4.4 step 4.
	ops.waitBlocking()
	return nil, newErr(KindTimeout, nil, "wait")
}
