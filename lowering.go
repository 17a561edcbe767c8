package execkit

import (
	"os"
	"sort"
	"strings"
)

// stdioOverrides lets the pipeline inject inter-stage file descriptors and
// end-caps into a stage's lowering without the stage's Command needing to
// know it is part of a pipeline (spec.md §4.1 "overrides may override any of
// the three streams").
type stdioOverrides struct {
	stdin  *Stdio
	stdout *Stdio
	stderr *Stdio
}

// lowerCommand translates a user-facing Command into a resolved SpawnSpec,
// catching every semantic error before any syscall, per spec.md §4.1.
func lowerCommand(c *Command, mode lowerMode, overrides *stdioOverrides) (*SpawnSpec, error) {
	if len(c.argv) == 0 || c.argv[0] == "" {
		return nil, newErr(KindEmptyArgv, nil, "lower_command")
	}

	spec := &SpawnSpec{
		Argv: append([]string(nil), c.argv...),
		Cwd:  c.cwd,
		Opts: spawnOpts{
			NewProcessGroup:       c.opts.NewProcessGroup,
			MergeStderrIntoStdout: c.opts.MergeStderrIntoStdout,
		},
	}

	spec.Envp = lowerEnv(c.inheritEnv, c.envDelta)

	stdin, stdout, stderr := c.stdin, c.stdout, c.stderr
	if mode == spawnModeOutput {
		if stdout.isUnset() {
			stdout = Piped()
		}
		if stderr.isUnset() {
			stderr = Piped()
		}
	}
	if overrides != nil {
		if overrides.stdin != nil {
			stdin = *overrides.stdin
		}
		if overrides.stdout != nil {
			stdout = *overrides.stdout
		}
		if overrides.stderr != nil {
			stderr = *overrides.stderr
		}
	}
	if stdin.isUnset() {
		stdin = Inherit()
	}
	if stdout.isUnset() {
		stdout = Inherit()
	}
	if stderr.isUnset() {
		stderr = Inherit()
	}

	if spec.Opts.MergeStderrIntoStdout {
		stderr = dupStdout()
	}

	spec.Stdin = lowerStdio(stdin, dirIn)
	spec.Stdout = lowerStdio(stdout, dirOut)
	spec.Stderr = lowerStdio(stderr, dirErr)

	if err := spec.Stdin.validate(dirIn); err != nil {
		return nil, err
	}
	if err := spec.Stdout.validate(dirOut); err != nil {
		return nil, err
	}
	if err := spec.Stderr.validate(dirErr); err != nil {
		return nil, err
	}

	return spec, nil
}

// lowerEnv folds inheritance and the env_delta into a deterministic, sorted
// envp, per spec.md §4.1: "If inherit_env, the process environment is read
// at this point and folded into a sorted map; then env_delta is applied...
// The resulting envp is deterministic."
func lowerEnv(inherit bool, delta map[string]EnvValue) []string {
	env := make(map[string]string)
	if inherit {
		for _, kv := range os.Environ() {
			if idx := strings.IndexByte(kv, '='); idx >= 0 {
				env[kv[:idx]] = kv[idx+1:]
			}
		}
	}
	for k, v := range delta {
		if v.unset {
			delete(env, k)
		} else {
			env[k] = v.value
		}
	}
	if !inherit && len(delta) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// PipelineSpec is the lowered form of a PipelineBuilder: N resolved
// SpawnSpecs plus the pipefail/process-group policy, per spec.md §4.1/§4.6.
type PipelineSpec struct {
	Stages    []*SpawnSpec
	Pipefail  bool
	NewGroup  bool
}

// lowerPipelineStageModes is the pure part of pipeline lowering: it rejects
// an empty pipeline with KindInvalidPipeline and returns one lowerMode per
// stage, every entry being spawnModeSpawn.
//
// It does NOT lower the stages, allocate the inter-stage pipes or apply the
// head/tail stdio overrides -- that belongs to the composition layer
// (pipeline.go), which calls lowerCommand per-stage with concrete pipe-fd
// overrides once the pipes exist; the pipe allocation is inherently a
// syscall.
func lowerPipelineStageModes(n int) ([]lowerMode, error) {
	if n == 0 {
		return nil, newErr(KindInvalidPipeline, nil, "lower_pipeline")
	}
	modes := make([]lowerMode, n)
	for i := 0; i < n-1; i++ {
		modes[i] = spawnModeSpawn
	}
	return modes, nil
}
