//go:build (linux || darwin) && cgo

package execkit

/*
#include <spawn.h>
#include <stdlib.h>
#include <string.h>
#include <errno.h>
#include <signal.h>
#include <unistd.h>
#include <fcntl.h>

int init_file_actions(posix_spawn_file_actions_t *actions) {
    return posix_spawn_file_actions_init(actions);
}

int destroy_file_actions(posix_spawn_file_actions_t *actions) {
    return posix_spawn_file_actions_destroy(actions);
}

int add_close_action(posix_spawn_file_actions_t *actions, int fd) {
    return posix_spawn_file_actions_addclose(actions, fd);
}

int add_dup2_action(posix_spawn_file_actions_t *actions, int fd, int newfd) {
    return posix_spawn_file_actions_adddup2(actions, fd, newfd);
}

int add_open_action(posix_spawn_file_actions_t *actions, int fd, const char *path, int oflag, mode_t mode) {
    return posix_spawn_file_actions_addopen(actions, fd, path, oflag, mode);
}

// Both glibc (>= 2.29) and Darwin (10.15+) expose addchdir_np under the same
// name; Darwin 26+ additionally exposes the POSIX-standardized
// posix_spawn_file_actions_addchdir without the _np suffix. Generalizing the
// teacher's Darwin-only weak-import probe (spawn_darwin.go) to cover both
// platforms is this module's one deliberate extension beyond the teacher,
// per SPEC_FULL.md §4.2.a.
#if defined(__APPLE__) && defined(__MACH__)
extern int posix_spawn_file_actions_addchdir(posix_spawn_file_actions_t *file_actions, const char *path) __attribute__((weak_import));
#pragma clang diagnostic push
#pragma clang diagnostic ignored "-Wdeprecated-declarations"
extern int posix_spawn_file_actions_addchdir_np(posix_spawn_file_actions_t *file_actions, const char *path) __attribute__((weak_import));
#pragma clang diagnostic pop

int add_chdir_action(posix_spawn_file_actions_t *actions, const char *path) {
    if (posix_spawn_file_actions_addchdir != NULL) {
        return posix_spawn_file_actions_addchdir(actions, path);
    }
    #pragma clang diagnostic push
    #pragma clang diagnostic ignored "-Wdeprecated-declarations"
    if (posix_spawn_file_actions_addchdir_np != NULL) {
        return posix_spawn_file_actions_addchdir_np(actions, path);
    }
    #pragma clang diagnostic pop
    return ENOSYS;
}

int has_chdir_support() {
    if (posix_spawn_file_actions_addchdir != NULL) {
        return 1;
    }
    #pragma clang diagnostic push
    #pragma clang diagnostic ignored "-Wdeprecated-declarations"
    int result = posix_spawn_file_actions_addchdir_np != NULL ? 1 : 0;
    #pragma clang diagnostic pop
    return result;
}
#elif defined(__GLIBC__)
// glibc has shipped posix_spawn_file_actions_addchdir_np since 2.29. Weak-
// attribute it too, so an older glibc still link-succeeds and simply
// reports no chdir support (forcing the fork/exec fallback for any spec
// with a Dir set), matching spec.md §4.2's strategy-selection rule.
extern int posix_spawn_file_actions_addchdir_np(posix_spawn_file_actions_t *file_actions, const char *path) __attribute__((weak));

int add_chdir_action(posix_spawn_file_actions_t *actions, const char *path) {
    if (posix_spawn_file_actions_addchdir_np != NULL) {
        return posix_spawn_file_actions_addchdir_np(actions, path);
    }
    return ENOSYS;
}

int has_chdir_support() {
    return posix_spawn_file_actions_addchdir_np != NULL ? 1 : 0;
}
#else
int add_chdir_action(posix_spawn_file_actions_t *actions, const char *path) {
    return ENOSYS;
}
int has_chdir_support() {
    return 0;
}
#endif

int init_spawnattr(posix_spawnattr_t *attr) {
    return posix_spawnattr_init(attr);
}

int destroy_spawnattr(posix_spawnattr_t *attr) {
    return posix_spawnattr_destroy(attr);
}

int set_spawnattr_flags(posix_spawnattr_t *attr, short flags) {
    return posix_spawnattr_setflags(attr, flags);
}

int set_spawnattr_pgroup(posix_spawnattr_t *attr, pid_t pgroup) {
    return posix_spawnattr_setpgroup(attr, pgroup);
}

int set_spawnattr_sigdefault(posix_spawnattr_t *attr, sigset_t *sigdefault) {
    return posix_spawnattr_setsigdefault(attr, sigdefault);
}

int set_spawnattr_sigmask(posix_spawnattr_t *attr, sigset_t *sigmask) {
    return posix_spawnattr_setsigmask(attr, sigmask);
}

int do_posix_spawn(pid_t *pid, const char *path,
                   posix_spawn_file_actions_t *file_actions,
                   posix_spawnattr_t *attrp,
                   char *const argv[], char *const envp[]) {
    return posix_spawn(pid, path, file_actions, attrp, argv, envp);
}

void sigset_empty(sigset_t *set) {
    sigemptyset(set);
}

void sigset_fill(sigset_t *set) {
    sigfillset(set);
}
*/
import "C"

import (
	"os"
	"syscall"
	"unsafe"
)

func hasChdirSupport() bool {
	return C.has_chdir_support() != 0
}

// spawnPosixSpawn realizes spec via the library-provided fast path: a single
// posix_spawn(3) call with file actions + attributes, per spec.md §4.2
// "Fast-path protocol". It mirrors the teacher's Darwin-only Cmd.Start but
// is driven by a resolved SpawnSpec instead of a Cmd, and generalized to
// Linux as well as Darwin.
func spawnPosixSpawn(spec *SpawnSpec) (*Spawned, error) {
	var fileActions C.posix_spawn_file_actions_t
	if ret := C.init_file_actions(&fileActions); ret != 0 {
		return nil, newErr(KindSpawnFailed, syscall.Errno(ret), "posix_spawn_file_actions_init")
	}
	defer C.destroy_file_actions(&fileActions)

	guard := &fdGuard{}
	defer guard.closeAll()

	// parentGuard tracks the parent-side ends of any piped stdio; it is
	// released just before the success return since ownership moves into
	// Spawned, and closed by the deferred closeAll() on any earlier return.
	parentGuard := &fdGuard{}
	defer parentGuard.closeAll()

	var parentStdin, parentStdout, parentStderr *ownedFd

	if err := addStdioFileActions(&fileActions, spec.Stdin, 0, dirIn, guard, &parentStdin); err != nil {
		return nil, err
	}
	parentGuard.track(parentStdin)
	if err := addStdioFileActions(&fileActions, spec.Stdout, 1, dirOut, guard, &parentStdout); err != nil {
		return nil, err
	}
	parentGuard.track(parentStdout)
	if spec.Stderr.kind == stdioDupStdout {
		if ret := C.add_dup2_action(&fileActions, 1, 2); ret != 0 {
			return nil, newErr(KindDupFailed, syscall.Errno(ret), "dup2 stdout->stderr")
		}
	} else {
		if err := addStdioFileActions(&fileActions, spec.Stderr, 2, dirErr, guard, &parentStderr); err != nil {
			return nil, err
		}
		parentGuard.track(parentStderr)
	}

	if spec.Cwd != "" {
		cDir := C.CString(spec.Cwd)
		defer C.free(unsafe.Pointer(cDir))
		if ret := C.add_chdir_action(&fileActions, cDir); ret != 0 {
			return nil, newErr(KindChdirFailed, syscall.Errno(ret), "addchdir")
		}
	}

	var attr C.posix_spawnattr_t
	if ret := C.init_spawnattr(&attr); ret != 0 {
		return nil, newErr(KindSpawnFailed, syscall.Errno(ret), "posix_spawnattr_init")
	}
	defer C.destroy_spawnattr(&attr)

	var flags C.short
	flags |= C.POSIX_SPAWN_SETSIGDEF | C.POSIX_SPAWN_SETSIGMASK

	pgid := 0
	if spec.Opts.NewProcessGroup {
		flags |= C.POSIX_SPAWN_SETPGROUP
		pgid = 0 // 0 => new group rooted at the spawned pid itself
	} else if spec.ProcessGroup != nil {
		flags |= C.POSIX_SPAWN_SETPGROUP
		pgid = *spec.ProcessGroup
	}
	C.set_spawnattr_pgroup(&attr, C.pid_t(pgid))
	C.set_spawnattr_flags(&attr, flags)

	var sigdefault, sigmask C.sigset_t
	C.sigset_fill(&sigdefault)
	C.sigset_empty(&sigmask)
	C.set_spawnattr_sigdefault(&attr, &sigdefault)
	C.set_spawnattr_sigmask(&attr, &sigmask)

	path, perr := resolveProgramPath(spec.Argv[0], spec.Cwd)
	if perr != nil {
		return nil, newErr(KindSpawnFailed, perr, "resolve program path")
	}
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	cArgs := make([]*C.char, len(spec.Argv)+1)
	for i, a := range spec.Argv {
		cArgs[i] = C.CString(a)
		defer C.free(unsafe.Pointer(cArgs[i]))
	}
	cArgs[len(spec.Argv)] = nil

	env := spec.Envp
	cEnv := make([]*C.char, len(env)+1)
	for i, e := range env {
		cEnv[i] = C.CString(e)
		defer C.free(unsafe.Pointer(cEnv[i]))
	}
	cEnv[len(env)] = nil

	var pid C.pid_t
	ret := C.do_posix_spawn(&pid, cPath, &fileActions, &attr,
		(**C.char)(unsafe.Pointer(&cArgs[0])),
		(**C.char)(unsafe.Pointer(&cEnv[0])))
	if ret != 0 {
		return nil, newErr(KindSpawnFailed, syscall.Errno(ret), "posix_spawn")
	}

	childPid := int(pid)
	resultPgid := 0
	if spec.Opts.NewProcessGroup {
		resultPgid = childPid
	} else if spec.ProcessGroup != nil {
		resultPgid = *spec.ProcessGroup
	}

	parentGuard.release()
	return &Spawned{
		Pid:             childPid,
		Pgid:            resultPgid,
		NewProcessGroup: spec.Opts.NewProcessGroup,
		StdinFd:         parentStdin,
		StdoutFd:        parentStdout,
		StderrFd:        parentStderr,
	}, nil
}

// addStdioFileActions appends the file actions needed to wire one stdio
// slot, tracking any fd this process opens for later closure and writing
// the parent-side pipe end (if any) into *parentEnd, per spec.md §4.2
// "For each stdio slot translate to add-open / add-dup2 / add-close
// actions; pipe slots allocate a pair, dup the appropriate end to the
// target fd, and close both source fds in the child."
func addStdioFileActions(actions *C.posix_spawn_file_actions_t, s stdioSpec, targetFd int, dir ioDirection, guard *fdGuard, parentEnd **ownedFd) *Error {
	switch s.kind {
	case stdioInherit, stdioUnset:
		return nil // nothing to do; child inherits parent's fd via default
	case stdioNull:
		flag := C.O_RDONLY
		if dir != dirIn {
			flag = C.O_WRONLY
		}
		cNull := C.CString(os.DevNull)
		defer C.free(unsafe.Pointer(cNull))
		if ret := C.add_open_action(actions, C.int(targetFd), cNull, C.int(flag), 0); ret != 0 {
			return newErr(KindOpenFailed, syscall.Errno(ret), "open /dev/null")
		}
		return nil
	case stdioFd:
		if ret := C.add_dup2_action(actions, C.int(s.fd), C.int(targetFd)); ret != 0 {
			return newErr(KindDupFailed, syscall.Errno(ret), "dup2")
		}
		return nil
	case stdioFile:
		flag := openFlagsFor(s.mode)
		perms := uint32(0644)
		if s.hasPerms {
			perms = s.perms
		}
		cPath := C.CString(s.path)
		defer C.free(unsafe.Pointer(cPath))
		if ret := C.add_open_action(actions, C.int(targetFd), cPath, C.int(flag), C.mode_t(perms)); ret != 0 {
			return newErr(KindOpenFailed, syscall.Errno(ret), "open "+s.path)
		}
		return nil
	case stdioPiped:
		r, w, perr := newOSPipe()
		if perr != nil {
			return perr.(*Error)
		}
		var childEnd, parent *ownedFd
		if dir == dirIn {
			childEnd, parent = r.fd, w.fd
		} else {
			childEnd, parent = w.fd, r.fd
		}
		if ret := C.add_dup2_action(actions, C.int(childEnd.Fd()), C.int(targetFd)); ret != 0 {
			childEnd.Close()
			parent.Close()
			return newErr(KindDupFailed, syscall.Errno(ret), "dup2 pipe")
		}
		guard.track(childEnd)
		*parentEnd = parent
		return nil
	default:
		return newErr(KindInvalidStdio, nil, "unresolved stdio kind")
	}
}
