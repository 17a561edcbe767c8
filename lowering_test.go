package execkit

import (
	"os"
	"testing"
)

func TestLowerEnvNoInheritNoDeltaIsNil(t *testing.T) {
	envp := lowerEnv(false, nil)
	if envp != nil {
		t.Errorf("lowerEnv(false, nil) = %v, want nil", envp)
	}
}

func TestLowerEnvDeltaOnlyIsDeterministic(t *testing.T) {
	delta := map[string]EnvValue{
		"B": SetEnv("2"),
		"A": SetEnv("1"),
	}
	got := lowerEnv(false, delta)
	want := []string{"A=1", "B=2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("lowerEnv() = %v, want %v", got, want)
	}
}

func TestLowerEnvInheritThenUnset(t *testing.T) {
	os.Setenv("EXECKIT_TEST_VAR", "should_not_appear")
	defer os.Unsetenv("EXECKIT_TEST_VAR")

	delta := map[string]EnvValue{"EXECKIT_TEST_VAR": UnsetEnv()}
	got := lowerEnv(true, delta)
	for _, kv := range got {
		if len(kv) >= len("EXECKIT_TEST_VAR=") && kv[:len("EXECKIT_TEST_VAR")] == "EXECKIT_TEST_VAR" {
			t.Errorf("lowerEnv() included EXECKIT_TEST_VAR, want it unset: %v", got)
		}
	}
}

func TestLowerCommandEmptyArgv(t *testing.T) {
	c := NewCommand("")
	_, err := lowerCommand(c, spawnModeSpawn, nil)
	if err == nil {
		t.Fatal("lowerCommand() error = nil, want KindEmptyArgv")
	}
	execErr := err.(*Error)
	if execErr.Kind != KindEmptyArgv {
		t.Errorf("lowerCommand() error kind = %v, want KindEmptyArgv", execErr.Kind)
	}
}

func TestLowerCommandOutputModeDefaultsPipedStreams(t *testing.T) {
	c := NewCommand("true")
	spec, err := lowerCommand(c, spawnModeOutput, nil)
	if err != nil {
		t.Fatalf("lowerCommand() error = %v, want nil", err)
	}
	if spec.Stdout.kind != stdioPiped {
		t.Errorf("Stdout.kind = %v, want stdioPiped", spec.Stdout.kind)
	}
	if spec.Stderr.kind != stdioPiped {
		t.Errorf("Stderr.kind = %v, want stdioPiped", spec.Stderr.kind)
	}
	if spec.Stdin.kind != stdioInherit {
		t.Errorf("Stdin.kind = %v, want stdioInherit (unset defaults to inherit)", spec.Stdin.kind)
	}
}

func TestLowerCommandSpawnModeDefaultsInherit(t *testing.T) {
	c := NewCommand("true")
	spec, err := lowerCommand(c, spawnModeSpawn, nil)
	if err != nil {
		t.Fatalf("lowerCommand() error = %v, want nil", err)
	}
	if spec.Stdout.kind != stdioInherit || spec.Stderr.kind != stdioInherit {
		t.Errorf("Stdout/Stderr = %v/%v, want stdioInherit", spec.Stdout.kind, spec.Stderr.kind)
	}
}

func TestLowerCommandOverridesWinOverDefaults(t *testing.T) {
	c := NewCommand("true")
	pipedStdin := Piped()
	spec, err := lowerCommand(c, spawnModeOutput, &stdioOverrides{stdin: &pipedStdin})
	if err != nil {
		t.Fatalf("lowerCommand() error = %v, want nil", err)
	}
	if spec.Stdin.kind != stdioPiped {
		t.Errorf("Stdin.kind = %v, want stdioPiped (from override)", spec.Stdin.kind)
	}
}

func TestLowerCommandMergeStderrIntoStdout(t *testing.T) {
	c := NewCommand("true").WithOptions(SpawnOptions{MergeStderrIntoStdout: true})
	spec, err := lowerCommand(c, spawnModeSpawn, nil)
	if err != nil {
		t.Fatalf("lowerCommand() error = %v, want nil", err)
	}
	if spec.Stderr.kind != stdioDupStdout {
		t.Errorf("Stderr.kind = %v, want stdioDupStdout", spec.Stderr.kind)
	}
}

func TestLowerCommandStdinFileAcceptsDefaultMode(t *testing.T) {
	c := NewCommand("cat").Stdin(File("/tmp/whatever"))
	spec, err := lowerCommand(c, spawnModeSpawn, nil)
	if err != nil {
		t.Fatalf("lowerCommand() error = %v, want nil", err)
	}
	if spec.Stdin.mode != ModeRead {
		t.Errorf("Stdin.mode = %v, want ModeRead", spec.Stdin.mode)
	}
}

func TestStdioValidateRejectsNegativeFd(t *testing.T) {
	spec := lowerStdio(Fd(-1), dirIn)
	if err := spec.validate(dirIn); err == nil {
		t.Fatal("validate() error = nil, want KindInvalidStdio for negative fd")
	}
}

func TestStdioValidateRejectsWriteOnlyStdinFile(t *testing.T) {
	spec := lowerStdio(FileMode("/tmp/whatever", ModeWriteTruncate), dirIn)
	if err := spec.validate(dirIn); err == nil {
		t.Fatal("validate() error = nil, want KindInvalidStdio for a write-only stdin file")
	}
}

func TestStdioValidateRejectsReadOnlyStderrFile(t *testing.T) {
	spec := lowerStdio(FileMode("/tmp/whatever", ModeRead), dirErr)
	if err := spec.validate(dirErr); err == nil {
		t.Fatal("validate() error = nil, want KindInvalidStdio for a read-only stderr file")
	}
}

func TestStdioValidateRejectsDupStdoutForStdout(t *testing.T) {
	spec := lowerStdio(dupStdout(), dirOut)
	if err := spec.validate(dirOut); err == nil {
		t.Fatal("validate() error = nil, want KindInvalidStdio: dup_stdout only valid for stderr")
	}
}

func TestLowerStdioFileDefaultsModeByDirection(t *testing.T) {
	in := lowerStdio(File("/tmp/whatever"), dirIn)
	if in.mode != ModeRead {
		t.Errorf("stdin File() mode = %v, want ModeRead", in.mode)
	}
	if err := in.validate(dirIn); err != nil {
		t.Errorf("stdin File() validate() error = %v, want nil", err)
	}

	out := lowerStdio(File("/tmp/whatever"), dirOut)
	if out.mode != ModeWriteTruncate {
		t.Errorf("stdout File() mode = %v, want ModeWriteTruncate", out.mode)
	}
	if err := out.validate(dirOut); err != nil {
		t.Errorf("stdout File() validate() error = %v, want nil", err)
	}

	errSpec := lowerStdio(File("/tmp/whatever"), dirErr)
	if errSpec.mode != ModeWriteTruncate {
		t.Errorf("stderr File() mode = %v, want ModeWriteTruncate", errSpec.mode)
	}
}

func TestLowerStdioFileModeOverridesDefault(t *testing.T) {
	spec := lowerStdio(FileMode("/tmp/whatever", ModeRead), dirIn)
	if spec.mode != ModeRead {
		t.Errorf("FileMode(ModeRead) mode = %v, want ModeRead", spec.mode)
	}
}

func TestLowerPipelineStageModesRejectsEmpty(t *testing.T) {
	if _, err := lowerPipelineStageModes(0); err == nil {
		t.Fatal("lowerPipelineStageModes(0) error = nil, want KindInvalidPipeline")
	}
}

func TestLowerPipelineStageModesCount(t *testing.T) {
	modes, err := lowerPipelineStageModes(3)
	if err != nil {
		t.Fatalf("lowerPipelineStageModes(3) error = %v, want nil", err)
	}
	if len(modes) != 3 {
		t.Errorf("len(modes) = %d, want 3", len(modes))
	}
}
