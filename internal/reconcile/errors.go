package reconcile

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError marks a failure of the Finalize-phase invariant checks:
// a non-untracked status entry after reset/checkout/restore/lock, or a
// non-clean diff against the validation ref. Like every other error from
// the Finalize phase, a ValidationError is never caught by the whole-tree
// backup-and-reclone recovery -- it is a violation of the tool's own
// invariants, not a damaged input tree, and must surface as a hard
// failure rather than being papered over by a re-clone.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps, via pkg/errors'
// Cause chain) a *ValidationError.
func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}
