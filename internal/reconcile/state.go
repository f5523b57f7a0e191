package reconcile

import (
	"path/filepath"

	"github.com/msolo/gs4/internal/gpath"
	"github.com/msolo/gs4/internal/instructions"
	"github.com/msolo/gs4/internal/pathset"
)

// State is the reconciler's working picture of repoDir: everything below
// it, split into what belongs to upstream and what belongs to the user.
// It starts empty, is populated from disk once the clone/update machinery
// runs, and is discarded when the process exits -- there is no persisted
// state between invocations other than the tree itself.
type State struct {
	RepoURL    string
	RepoDir    string
	Branch     string
	ProgramDir string

	AllDirs  pathset.Set
	AllFiles pathset.Set

	UserDirs  pathset.Set
	UserFiles pathset.Set

	Backups pathset.Set
}

// GitFiles is all_files minus user_files minus the instructions file:
// the upstream-owned files that Locking (below) makes read-only.
func (st *State) GitFiles() pathset.Set {
	instr := gpath.File(filepath.Join(st.RepoDir, instructions.FileName))
	return st.AllFiles.Difference(st.UserFiles).Difference(pathset.New(instr))
}

// GitDirs is all_dirs minus user_dirs: the upstream-owned directories that
// Locking leaves user-writable so the next sync can still operate on them.
func (st *State) GitDirs() pathset.Set {
	return st.AllDirs.Difference(st.UserDirs)
}
