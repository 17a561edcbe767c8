package execkit

import (
	"bytes"
	"testing"
)

// TestDrainConcurrentlyNoDeadlockOnFullBuffers writes more than a typical
// pipe buffer's worth of data to both stdout and stderr from independent
// goroutines, verifying drainConcurrently reads both without either writer
// blocking the other -- the scenario that deadlocks a sequential
// read-stdout-then-stderr implementation.
func TestDrainConcurrentlyNoDeadlockOnFullBuffers(t *testing.T) {
	outR, outW, err := newOSPipe()
	if err != nil {
		t.Fatalf("newOSPipe() error = %v", err)
	}
	errR, errW, err := newOSPipe()
	if err != nil {
		t.Fatalf("newOSPipe() error = %v", err)
	}

	payload := bytes.Repeat([]byte("x"), 4*1024*1024)
	go func() {
		outW.WriteAll(payload)
		outW.Close()
	}()
	go func() {
		errW.WriteAll(payload)
		errW.Close()
	}()

	gotOut, gotErr, err := drainConcurrently(outR, errR)
	if err != nil {
		t.Fatalf("drainConcurrently() error = %v, want nil", err)
	}
	if len(gotOut) != len(payload) {
		t.Errorf("len(stdout) = %d, want %d", len(gotOut), len(payload))
	}
	if len(gotErr) != len(payload) {
		t.Errorf("len(stderr) = %d, want %d", len(gotErr), len(payload))
	}
}

func TestDrainConcurrentlyBothNil(t *testing.T) {
	out, errOut, err := drainConcurrently(nil, nil)
	if out != nil || errOut != nil || err != nil {
		t.Errorf("drainConcurrently(nil, nil) = (%v, %v, %v), want (nil, nil, nil)", out, errOut, err)
	}
}

func TestDrainConcurrentlySingleStream(t *testing.T) {
	r, w, err := newOSPipe()
	if err != nil {
		t.Fatalf("newOSPipe() error = %v", err)
	}
	go func() {
		w.WriteAll([]byte("only stdout"))
		w.Close()
	}()
	out, errOut, err := drainConcurrently(r, nil)
	if err != nil {
		t.Fatalf("drainConcurrently() error = %v, want nil", err)
	}
	if string(out) != "only stdout" {
		t.Errorf("stdout = %q, want %q", out, "only stdout")
	}
	if errOut != nil {
		t.Errorf("stderr = %v, want nil", errOut)
	}
}
