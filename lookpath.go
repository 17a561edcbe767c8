package execkit

import (
	"os"
	"path/filepath"
	"strings"
)

// LookPath resolves file to a runnable path the way a POSIX shell's $PATH
// search does: a name containing a slash is checked in place, everything
// else is tried against each PATH entry in order. A hit that resolves
// outside of an absolute directory (PATH held "." or an empty entry) is
// still returned, but wrapped in a *Error satisfying errors.Is(err, ErrDot)
// so the caller can decide whether running it is safe.
func LookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		if !isRunnable(file) {
			return "", newErr(KindNotFound, ErrNotFound, file)
		}
		return file, nil
	}
	return searchPath(file)
}

// searchPath walks $PATH looking for an executable named file, returning the
// first candidate that stats as runnable.
func searchPath(file string) (string, error) {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "." // empty PATH entry means "current directory"
		}
		candidate := filepath.Join(dir, file)
		if !isRunnable(candidate) {
			continue
		}
		if filepath.IsAbs(candidate) {
			return candidate, nil
		}
		return candidate, newErr(KindDotRelative, ErrDot, file)
	}
	return "", newErr(KindNotFound, ErrNotFound, file)
}

// isRunnable reports whether path exists, is not a directory, and has some
// execute bit set.
func isRunnable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return false
	}
	return fi.Mode()&0111 != 0
}
