// Package gitcmd wraps os/exec for the subprocesses gs4 shells out to
// (git, bash). It adds perf tracing, a restricted environment and
// stderr-annotated errors, the way a long-lived sync daemon needs to.
package gitcmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"syscall"

	log "github.com/msolo/go-bis/glug"
	"github.com/pkg/errors"
)

// Trace gates the per-command perf log line. Set it to false to keep
// output quiet.
var Trace = true

// Cmd wraps exec.Cmd with tracing and richer error reporting.
type Cmd struct {
	*exec.Cmd
	trace bool
}

// Command builds a traced Cmd, analogous to exec.Command.
func Command(name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.Command(name, arg...), trace: Trace}
}

// CommandContext builds a traced, context-bound Cmd.
func CommandContext(ctx context.Context, name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.CommandContext(ctx, name, arg...), trace: Trace}
}

// ExitError wraps exec.ExitError with the command that produced it, so
// callers can log something actionable instead of a bare exit status.
type ExitError struct {
	*exec.ExitError
	Cmd *exec.Cmd
}

func (xe *ExitError) Cause() error { return xe.ExitError }

func (xe *ExitError) Error() string {
	return fmt.Sprintf("cmd failed: %s\n%s", xe.ExitError, xe.ExitError.Stderr)
}

func wrapErr(err error, cmd *exec.Cmd) error {
	err = errors.Cause(err)
	if exitErr, ok := err.(*exec.ExitError); ok {
		prefix := "  " + path.Base(cmd.Args[0]) + ": "
		if len(exitErr.Stderr) > 0 {
			exitErr.Stderr = append([]byte(prefix),
				bytes.Replace(exitErr.Stderr[:len(exitErr.Stderr)-1], []byte("\n"), []byte("\n"+prefix), -1)...)
			exitErr.Stderr = append(exitErr.Stderr, '\n')
		}
		return &ExitError{exitErr, cmd}
	}
	return err
}

func (cmd *Cmd) bashString() string {
	return BashQuoteCmd(cmd.Args)
}

// Run executes the command, discarding stdout, and returns an annotated
// error on non-zero exit.
func (cmd *Cmd) Run() error {
	if cmd.trace {
		defer log.Tracef("exec: %s", cmd.bashString()).Finish()
	}
	return wrapErr(cmd.Cmd.Run(), cmd.Cmd)
}

// Output runs the command and returns captured stdout.
func (cmd *Cmd) Output() ([]byte, error) {
	if cmd.trace {
		defer log.Tracef("exec: %s", cmd.bashString()).Finish()
	}
	data, err := cmd.Cmd.Output()
	return data, wrapErr(err, cmd.Cmd)
}

// CombinedOutput runs the command and returns combined stdout+stderr.
func (cmd *Cmd) CombinedOutput() ([]byte, error) {
	if cmd.trace {
		defer log.Tracef("exec: %s", cmd.bashString()).Finish()
	}
	data, err := cmd.Cmd.CombinedOutput()
	return data, wrapErr(err, cmd.Cmd)
}

// ExitStatus extracts the numeric exit status from an error produced by
// this package, or returns an error if err isn't an exit error.
func ExitStatus(err error) (int, error) {
	cause := errors.Cause(err)
	if xe, ok := cause.(*ExitError); ok {
		return xe.ExitError.Sys().(syscall.WaitStatus).ExitStatus(), nil
	}
	if exitErr, ok := cause.(*exec.ExitError); ok {
		return exitErr.Sys().(syscall.WaitStatus).ExitStatus(), nil
	}
	return 0, errors.New("invalid error type")
}

// RestrictedEnv returns a minimal, deterministic environment for
// subprocesses: only the handful of variables git/ssh/bash actually need,
// plus anything prefixed GIT_TRACE for ad hoc debugging. A missing
// required variable is a configuration error, not something to paper
// over.
func RestrictedEnv() []string {
	keys := []string{"PATH", "USER", "LOGNAME", "HOME"}
	env := make([]string, 0, len(keys))
	for _, key := range keys {
		val := os.Getenv(key)
		if val == "" {
			panic("invalid env, missing key: " + key)
		}
		env = append(env, key+"="+val)
	}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "GIT_TRACE") {
			env = append(env, kv)
		}
	}
	return env
}
