// Package instructions copies the fixed SYNC-INSTRUCTIONS.md file that
// ships beside the gs4 executable into a synced repo and its parent, so a
// user poking around either directory finds an explanation of why files
// keep disappearing and reappearing with a timestamp suffix.
package instructions

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/msolo/gs4/internal/gpath"
)

const fileName = "SYNC-INSTRUCTIONS.md"

// Emitter copies the instructions file into place.
type Emitter struct {
	// ProgramDir is the directory containing the gs4 executable and its
	// ancillary SYNC-INSTRUCTIONS.md.
	ProgramDir string
}

// Emit copies ProgramDir/SYNC-INSTRUCTIONS.md to repoDir/SYNC-INSTRUCTIONS.md
// and repoDir/../SYNC-INSTRUCTIONS.md, overwriting whatever is there.
func (e Emitter) Emit(repoDir string) error {
	src := gpath.File(filepath.Join(e.ProgramDir, fileName))
	data, err := src.ReadFile()
	if err != nil {
		return errors.Wrap(err, "read instructions source")
	}

	dests := []string{
		filepath.Join(repoDir, fileName),
		filepath.Join(filepath.Dir(repoDir), fileName),
	}
	for _, dst := range dests {
		if err := gpath.File(dst).WriteFile(data, 0644); err != nil {
			return errors.Wrapf(err, "write instructions to %s", dst)
		}
	}
	return nil
}

// FileName is the instructions file's name, exported so the reconciler can
// exclude it from its upstream-owned file set: it is generated fresh on
// every run and was never part of the upstream tree.
const FileName = fileName
