// Package exec provides the operating system primitives the supervisor is
// built on: starting a shell command, listing the process table and reaping
// exited children. Test doubles are provided for each of them.
package exec

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// Shell is the interpreter every command is run through.
const Shell = "/bin/sh"

// NoPID is returned in place of a process ID when a process failed to start.
const NoPID = -1

// ShellLauncher starts commands through the shell. It is the only place in
// the program that hands a string to a shell; commands are trusted input and
// are not sanitized.
type ShellLauncher struct{}

// Launch starts command as "sh -c command" inside dir, with both stdout and
// stderr appended to logFile. The log file and its parent directories are
// created if missing. The process is started in its own session so it is
// detached from the supervisor's terminal and outlives the supervisor.
//
// The returned PID is NoPID if an error is returned.
func (ShellLauncher) Launch(command, logFile, dir string) (int, error) {
	f, err := OpenLog(logFile)
	if err != nil {
		return NoPID, err
	}
	// The child has its own copy of the descriptor once started.
	defer f.Close()

	cmd := exec.Command(Shell, "-c", command)
	cmd.Dir = dir
	cmd.Stdin = nil // /dev/null
	cmd.Stdout = f
	cmd.Stderr = f
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return NoPID, errors.Wrap(err, "failed to start shell")
	}

	pid := cmd.Process.Pid

	// The process is never waited on through its handle; exited children are
	// collected by Reap instead.
	cmd.Process.Release()

	return pid, nil
}

// OpenLog opens the file at path for appending, creating it and its parent
// directories if needed.
func OpenLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	return f, nil
}
