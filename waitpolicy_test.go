package execkit

import (
	"errors"
	"testing"
	"time"
)

// fakeWaitOps drives runWaitPolicy deterministically: tryWait reports exit
// only once exitAfter calls have been made (simulating a child that keeps
// running for a while), terminate/kill just record that they were called.
type fakeWaitOps struct {
	tryCount      int
	exitAfter     int
	terminated    bool
	killed        bool
	terminateErr  error
	killErr       error
	exitOnTerm    bool // exit during the grace window after terminate()
}

func (f *fakeWaitOps) tryWait() (*ExitStatus, error) {
	f.tryCount++
	if f.terminated && f.exitOnTerm {
		return exitedStatus(0, 0), nil
	}
	if f.exitAfter > 0 && f.tryCount >= f.exitAfter {
		return exitedStatus(0, 0), nil
	}
	return nil, nil
}

func (f *fakeWaitOps) waitBlocking() (*ExitStatus, error) {
	return exitedStatus(0, 0), nil
}

func (f *fakeWaitOps) terminate() error {
	f.terminated = true
	return f.terminateErr
}

func (f *fakeWaitOps) kill() error {
	f.killed = true
	return f.killErr
}

func TestRunWaitPolicyNoTimeoutBlocks(t *testing.T) {
	ops := &fakeWaitOps{}
	clock := newManualClock(time.Unix(0, 0))
	status, err := runWaitPolicy(ops, clock, WaitOptions{})
	if err != nil {
		t.Fatalf("runWaitPolicy() error = %v, want nil", err)
	}
	if !status.Success() {
		t.Errorf("Success() = false, want true")
	}
	if ops.terminated || ops.killed {
		t.Error("terminate/kill should not be called when no timeout is set")
	}
}

func TestRunWaitPolicyExitsBeforeDeadline(t *testing.T) {
	ops := &fakeWaitOps{exitAfter: 3}
	clock := newManualClock(time.Unix(0, 0))
	timeout := time.Second
	status, err := runWaitPolicy(ops, clock, WaitOptions{Timeout: &timeout})
	if err != nil {
		t.Fatalf("runWaitPolicy() error = %v, want nil", err)
	}
	if !status.Success() {
		t.Errorf("Success() = false, want true")
	}
	if ops.terminated {
		t.Error("terminate should not be called when the child exits before the deadline")
	}
}

func TestRunWaitPolicyEscalatesToKillOnTimeout(t *testing.T) {
	ops := &fakeWaitOps{exitAfter: 0} // never exits on its own
	clock := newManualClock(time.Unix(0, 0))
	timeout := 10 * time.Millisecond
	status, err := runWaitPolicy(ops, clock, WaitOptions{Timeout: &timeout, KillGrace: 5 * time.Millisecond})
	if status != nil {
		t.Errorf("runWaitPolicy() status = %v, want nil", status)
	}
	execErr, ok := err.(*Error)
	if !ok || execErr.Kind != KindTimeout {
		t.Fatalf("runWaitPolicy() error = %v, want KindTimeout", err)
	}
	if !ops.terminated {
		t.Error("terminate() should have been called")
	}
	if !ops.killed {
		t.Error("kill() should have been called after the grace window elapsed")
	}
}

func TestRunWaitPolicyExitDuringGraceWindowIsStillTimeout(t *testing.T) {
	ops := &fakeWaitOps{exitOnTerm: true}
	clock := newManualClock(time.Unix(0, 0))
	timeout := 10 * time.Millisecond
	status, err := runWaitPolicy(ops, clock, WaitOptions{Timeout: &timeout, KillGrace: 50 * time.Millisecond})
	if status != nil {
		t.Errorf("runWaitPolicy() status = %v, want nil", status)
	}
	execErr, ok := err.(*Error)
	if !ok || execErr.Kind != KindTimeout {
		t.Fatalf("runWaitPolicy() error = %v, want KindTimeout even though the child exited during the grace window", err)
	}
	if ops.killed {
		t.Error("kill() should not be reached when the child exits during the grace window")
	}
}

func TestRunWaitPolicyDefaultKillGrace(t *testing.T) {
	ops := &fakeWaitOps{}
	clock := newManualClock(time.Unix(0, 0))
	timeout := time.Millisecond
	_, err := runWaitPolicy(ops, clock, WaitOptions{Timeout: &timeout})
	if err == nil {
		t.Fatal("runWaitPolicy() error = nil, want KindTimeout")
	}
	if !ops.terminated || !ops.killed {
		t.Error("expected both terminate and kill to run with the default grace period")
	}
}

func TestRunWaitPolicyTryWaitErrorPropagates(t *testing.T) {
	ops := &erroringWaitOps{err: errors.New("boom")}
	clock := newManualClock(time.Unix(0, 0))
	timeout := time.Second
	_, err := runWaitPolicy(ops, clock, WaitOptions{Timeout: &timeout})
	execErr, ok := err.(*Error)
	if !ok || execErr.Kind != KindWaitFailed {
		t.Fatalf("runWaitPolicy() error = %v, want KindWaitFailed", err)
	}
}

type erroringWaitOps struct{ err error }

func (e *erroringWaitOps) tryWait() (*ExitStatus, error)     { return nil, e.err }
func (e *erroringWaitOps) waitBlocking() (*ExitStatus, error) { return nil, e.err }
func (e *erroringWaitOps) terminate() error                  { return nil }
func (e *erroringWaitOps) kill() error                        { return nil }
