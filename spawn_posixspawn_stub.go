//go:build (linux || darwin) && !cgo

package execkit

// Without cgo there is no way to call posix_spawn(3); every spawn falls back
// to spawnForkExec. When canUseFastPath (backend_posix.go) selects the fast
// path, spawnPosixSpawn below delegates to spawnForkExec; hasChdirSupport
// reports false unconditionally, so a spec with a Cwd goes to spawnForkExec
// directly.
func hasChdirSupport() bool { return false }

func spawnPosixSpawn(spec *SpawnSpec) (*Spawned, error) {
	return spawnForkExec(spec)
}
