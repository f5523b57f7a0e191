// Package shx runs a multi-line shell script with strict failure
// semantics, the way cmd/git-sync uses a preamble-plus-tempfile bash
// invocation for every VCS porcelain call it shells out to.
package shx

import (
	"context"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/tebeka/atexit"

	"github.com/msolo/gs4/internal/gitcmd"
)

// DefaultTimeout is the wall-clock budget for a single script invocation
// in a Runner built by New. Run uses the Runner's Timeout when
// Options.Timeout is zero.
const DefaultTimeout = 120 * time.Second

// DefaultInterpreter is the shell of a Runner built by New. Run uses the
// Runner's Interpreter when Options.Interpreter is empty.
const DefaultInterpreter = "/bin/bash"

// DefaultPreamble is prepended to every script so a forgotten `set -e`
// doesn't let a failing step pass silently.
const DefaultPreamble = "set -eux -o pipefail"

// Options configures a single Run call.
type Options struct {
	Script      string
	Dir         string
	Timeout     time.Duration
	Interpreter string
	Preamble    string
	// Check fails Run on a non-zero exit. Defaults to true; set
	// CheckDisabled to opt out per-call.
	CheckDisabled bool
	Capture       bool
}

// Result carries captured output, when Options.Capture was set.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes shell scripts with a fixed set of process-wide defaults,
// overridable by internal/gsconfig.
type Runner struct {
	Timeout     time.Duration
	Interpreter string
	Preamble    string
}

// New returns a Runner using the package defaults.
func New() *Runner {
	return &Runner{
		Timeout:     DefaultTimeout,
		Interpreter: DefaultInterpreter,
		Preamble:    DefaultPreamble,
	}
}

// Run executes opts.Script (after prepending the configured preamble) from
// a scoped temp file, in opts.Dir, within the configured timeout.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.Timeout
	}
	interpreter := opts.Interpreter
	if interpreter == "" {
		interpreter = r.Interpreter
	}
	preamble := opts.Preamble
	if preamble == "" {
		preamble = r.Preamble
	}

	full := preamble + "\n" + opts.Script + "\n"

	tmpFile, err := ioutil.TempFile("", "gs4-script-")
	if err != nil {
		return nil, errors.Wrap(err, "create script temp file")
	}
	tmpName := tmpFile.Name()
	// Backstop cleanup if the process is killed before the deferred
	// os.Remove below runs, mirroring rsyncCmd's atexit.Register for its
	// manifest temp file.
	atexit.Register(func() { _ = os.Remove(tmpName) })
	defer os.Remove(tmpName)

	if _, err := tmpFile.WriteString(full); err != nil {
		tmpFile.Close()
		return nil, errors.Wrap(err, "write script temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return nil, errors.Wrap(err, "close script temp file")
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := gitcmd.CommandContext(cctx, interpreter, tmpName)
	cmd.Dir = opts.Dir
	cmd.Env = gitcmd.RestrictedEnv()

	res := &Result{}
	var runErr error
	if opts.Capture {
		var out []byte
		out, runErr = cmd.Output()
		res.Stdout = out
		if xe, ok := errors.Cause(runErr).(*gitcmd.ExitError); ok {
			res.Stderr = xe.ExitError.Stderr
		}
	} else {
		runErr = cmd.Run()
	}

	if runErr != nil && !opts.CheckDisabled {
		return res, errors.Wrapf(runErr, "script failed in %s", opts.Dir)
	}
	if runErr != nil {
		return res, nil
	}
	return res, nil
}
