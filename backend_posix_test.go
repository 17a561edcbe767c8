package execkit

import "testing"

func TestPosixBackendForceForkExecFallback(t *testing.T) {
	forceForkExec = true
	defer func() { forceForkExec = false }()

	status, err := NewCommand("true").Status()
	if err != nil {
		t.Fatalf("Status() error = %v, want nil", err)
	}
	if !status.Success() {
		t.Error("Success() = false, want true via forced fork/exec fallback")
	}
}

func TestPosixBackendFastPathDefault(t *testing.T) {
	status, err := NewCommand("true").Status()
	if err != nil {
		t.Fatalf("Status() error = %v, want nil", err)
	}
	if !status.Success() {
		t.Error("Success() = false, want true via the default fast path")
	}
}

func TestCanUseFastPathRejectsChdirWithoutSupport(t *testing.T) {
	spec := &SpawnSpec{Argv: []string{"true"}, Cwd: "/tmp"}
	if !hasChdirSupport() {
		if canUseFastPath(spec) {
			t.Error("canUseFastPath() = true, want false when chdir isn't supported and Cwd is set")
		}
	}
}

func TestCanUseFastPathAllowsNoChdir(t *testing.T) {
	spec := &SpawnSpec{Argv: []string{"true"}}
	if !canUseFastPath(spec) {
		t.Error("canUseFastPath() = false, want true when no Cwd override is requested")
	}
}

func TestWithBackendRestoresPrevious(t *testing.T) {
	before := defaultBackend
	fake := &fakeBackend{}
	withBackend(fake, func() {
		if defaultBackend != Backend(fake) {
			t.Error("defaultBackend inside withBackend should be the installed backend")
		}
	})
	if defaultBackend != before {
		t.Error("defaultBackend after withBackend should restore the previous backend")
	}
}

type fakeBackend struct{}

func (fakeBackend) Spawn(spec *SpawnSpec) (*Spawned, error)             { return &Spawned{Pid: 1}, nil }
func (fakeBackend) Wait(s *Spawned, opts WaitOptions) (*ExitStatus, error) {
	return exitedStatus(0, 0), nil
}
func (fakeBackend) TryWait(s *Spawned) (*ExitStatus, error) { return exitedStatus(0, 0), nil }
func (fakeBackend) Terminate(s *Spawned) error              { return nil }
func (fakeBackend) Kill(s *Spawned) error                   { return nil }
func (fakeBackend) Signal(s *Spawned, sig Signal) error     { return nil }
