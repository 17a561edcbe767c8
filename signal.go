package execkit

// Signal is a portable signal number, independent of golang.org/x/sys/unix
// (which has no Windows build at all) so the Backend/Child API surface
// stays buildable on every platform even though only POSIX backends
// currently implement it. Only the low signal range below is numbered
// identically across every POSIX platform this module targets; SIGUSR1,
// SIGUSR2 and SIGCHLD are NOT in this set because their numbers diverge
// between Linux and Darwin (see signal_linux.go/signal_darwin.go).
type Signal int32

const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGKILL Signal = 9
	SIGPIPE Signal = 13
	SIGTERM Signal = 15
)
