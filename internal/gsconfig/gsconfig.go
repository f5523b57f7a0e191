// Package gsconfig loads optional, per-machine tunables for gs4 from a
// JSONC file (comments allowed), the way cmd/git-preflight's trigger
// config is read with github.com/msolo/jsonc. gs4 has no trigger system,
// so this package repurposes the same dependency for the runtime knobs
// worth making implementer-tunable: the shell runner's defaults (timeout,
// interpreter, preamble) and the set of extra paths excluded from
// upstream state.
package gsconfig

import (
	"os"
	"path/filepath"
	"time"

	"github.com/msolo/jsonc"
	"github.com/pkg/errors"
)

// Tunables holds the overridable defaults. Zero values mean "use the
// built-in default" at the call site.
type Tunables struct {
	ShellTimeoutMS   int      `json:"shell_timeout_ms"`
	ShellInterpreter string   `json:"shell_interpreter"`
	ShellPreamble    string   `json:"shell_preamble"`
	ExcludePaths     []string `json:"exclude_paths"`
}

// ShellTimeout returns the configured shell timeout, or def if unset.
func (t Tunables) ShellTimeout(def time.Duration) time.Duration {
	if t.ShellTimeoutMS <= 0 {
		return def
	}
	return time.Duration(t.ShellTimeoutMS) * time.Millisecond
}

// Interpreter returns the configured interpreter, or def if unset.
func (t Tunables) Interpreter(def string) string {
	if t.ShellInterpreter == "" {
		return def
	}
	return t.ShellInterpreter
}

// Preamble returns the configured preamble, or def if unset.
func (t Tunables) Preamble(def string) string {
	if t.ShellPreamble == "" {
		return def
	}
	return t.ShellPreamble
}

// Load reads tunables from $HOME/.gs4.jsonc, returning the zero value
// (all defaults) if the file doesn't exist. A malformed file, unlike a
// missing one, is an error: silently ignoring bad config would be more
// surprising than failing fast.
func Load(home string) (Tunables, error) {
	fname := filepath.Join(home, ".gs4.jsonc")
	f, err := os.Open(fname)
	if err != nil {
		if os.IsNotExist(err) {
			return Tunables{}, nil
		}
		return Tunables{}, errors.Wrapf(err, "open %s", fname)
	}
	defer f.Close()

	var t Tunables
	dec := jsonc.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Tunables{}, errors.Wrapf(err, "parse %s", fname)
	}
	return t, nil
}
