// Package reconcile is the core of gs4: given an existing, possibly
// corrupted local checkout, it brings repoDir to a state that contains the
// upstream branch's exact tree, preserves every user-originated artifact
// under a timestamped sidecar name (restoring it to its original name
// whenever that doesn't collide with upstream content), and finishes by
// locking the upstream-owned portion of the tree against accidental
// modification.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/msolo/gs4/internal/gpath"
	"github.com/msolo/gs4/internal/instructions"
	"github.com/msolo/gs4/internal/logsink"
	"github.com/msolo/gs4/internal/pathset"
	"github.com/msolo/gs4/internal/statusparse"
	"github.com/msolo/gs4/internal/vcs"
	"github.com/msolo/gs4/internal/walk"
)

// diffRef is hard-coded to origin/main rather than derived from Branch.
// This is preserved literally rather than "fixed" to origin/<branch>: a
// conservative reconciliation tool should not silently change its own
// validation target, so this is intentionally not a function of Branch.
const diffRef = "origin/main"

// Syncer drives one sync() invocation end to end.
type Syncer struct {
	State

	VCS          vcs.Adapter
	Walk         walk.Walker
	Log          logsink.Logger
	Instructions instructions.Emitter

	// timestamp is the invocation-global 8-hex-digit backup suffix
	// (without its leading dot), computed once in New and reused by
	// every backup rename for the lifetime of the Syncer.
	timestamp string
}

// New constructs a Syncer for one invocation. programDir is the directory
// containing the gs4 executable and its ancillary SYNC-INSTRUCTIONS.md.
func New(repoURL, branch, repoDir, programDir string, vcsAdapter vcs.Adapter, walker walk.Walker, log logsink.Logger) *Syncer {
	return &Syncer{
		State: State{
			RepoURL:    repoURL,
			Branch:     branch,
			RepoDir:    repoDir,
			ProgramDir: programDir,
			AllDirs:    pathset.New(),
			AllFiles:   pathset.New(),
			UserDirs:   pathset.New(),
			UserFiles:  pathset.New(),
			Backups:    pathset.New(),
		},
		VCS:          vcsAdapter,
		Walk:         walker,
		Log:          log,
		Instructions: instructions.Emitter{ProgramDir: programDir},
		timestamp:    fmt.Sprintf("%08x", time.Now().Unix()&0xffffffff),
	}
}

// suffix is the invocation-global backup extension, including its
// leading dot.
func (s *Syncer) suffix() string { return "." + s.timestamp }

// Sync is the reconciler's single public operation. On successful return,
// repoDir matches origin/<branch> for all upstream-owned paths, every
// user artifact is restored to its original name or retained under a
// timestamp-suffixed name, upstream-owned files are read-only,
// upstream-owned directories are user-writable, and the instructions file
// is present both inside repoDir and beside it.
func (s *Syncer) Sync(ctx context.Context) error {
	if !exists(s.RepoDir) {
		s.Log.Infof("repo_dir %s does not exist, cloning fresh", s.RepoDir)
		if err := s.freshClone(ctx); err != nil {
			return errors.Wrap(err, "fresh clone")
		}
	} else {
		if err := s.updatePath(ctx); err != nil {
			s.Log.Errorf("Updating failed: %s", err)
			if rerr := s.recoverByBackupAndReclone(ctx); rerr != nil {
				return errors.Wrap(rerr, "recovery after update failure")
			}
		}
	}
	return s.finalize(ctx)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// freshClone performs a blobless clone of repoURL at branch into repoDir,
// marks it a safe directory, and fetches branch. Classification and
// restore are skipped entirely -- there is nothing preexisting to
// reconcile against.
func (s *Syncer) freshClone(ctx context.Context) error {
	if err := s.VCS.CloneBlobless(ctx, s.RepoURL, s.Branch, s.RepoDir); err != nil {
		return err
	}
	if err := s.VCS.MarkSafeDirectory(ctx, s.RepoDir); err != nil {
		return err
	}
	return s.VCS.Fetch(ctx, s.RepoDir, s.Branch)
}

// updatePath runs steps (3a)-(3h): walk+repair, classify, replace remote
// and fetch, reset+checkout, restore backups -- recomputing all_files /
// all_dirs between the filesystem-mutating steps.
func (s *Syncer) updatePath(ctx context.Context) error {
	if err := s.recomputeAll(ctx); err != nil {
		return errors.Wrap(err, "walk and repair directory permissions")
	}
	if err := s.classify(ctx); err != nil {
		return errors.Wrap(err, "classify working tree status")
	}
	if err := s.recomputeAll(ctx); err != nil {
		return errors.Wrap(err, "recompute tree after classification")
	}
	if err := s.replaceRemoteAndFetch(ctx); err != nil {
		return errors.Wrap(err, "replace origin remote and fetch")
	}
	if err := s.VCS.ResetAndCheckout(ctx, s.RepoDir, s.Branch); err != nil {
		return errors.Wrap(err, "reset and checkout")
	}
	if err := s.recomputeAll(ctx); err != nil {
		return errors.Wrap(err, "recompute tree after checkout")
	}
	if err := s.restoreBackups(ctx); err != nil {
		return errors.Wrap(err, "restore backups")
	}
	return nil
}

// recoverByBackupAndReclone is the tool's ultimate safety net: relocate
// all of repoDir aside as a single timestamped user artifact, then clone
// fresh in its place. No finer-grained recovery is attempted at any
// intermediate step.
func (s *Syncer) recoverByBackupAndReclone(ctx context.Context) error {
	if err := os.Chmod(s.RepoDir, 0o700); err != nil {
		s.Log.Warnf("could not restore access to %s before backing it up: %s", s.RepoDir, err)
	}
	backupDir := s.RepoDir + s.suffix()
	if err := os.Rename(s.RepoDir, backupDir); err != nil {
		return errors.Wrapf(err, "backing up %s as %s", s.RepoDir, backupDir)
	}
	s.Log.Warnf("backed up damaged repo_dir to %s", backupDir)
	return s.freshClone(ctx)
}

// recomputeAll re-walks repoDir for all_files/all_dirs, as required after
// every step that mutates the filesystem.
func (s *Syncer) recomputeAll(ctx context.Context) error {
	files, dirs, err := s.Walk.AllFilesAndDirs(ctx, s.RepoDir)
	if err != nil {
		return err
	}
	s.AllFiles = files
	s.AllDirs = dirs
	return nil
}

// classify obtains porcelain status and backs up every user-originated
// artifact it finds, recording it in user_files/user_dirs.
func (s *Syncer) classify(ctx context.Context) error {
	out, err := s.VCS.Status(ctx, s.RepoDir)
	if err != nil {
		return err
	}
	for _, e := range statusparse.Parse(out) {
		switch e.Kind {
		case statusparse.Deleted, statusparse.Renamed:
			// Deleted will be restored by the upcoming checkout; renamed
			// means the old name is already gone and the new name shows
			// up separately (typically untracked), caught below.
			continue
		case statusparse.Untracked, statusparse.Modified, statusparse.Updated,
			statusparse.Added, statusparse.Copied, statusparse.TypeChange:
			if err := s.backupAndTrack(ctx, e.Path); err != nil {
				return err
			}
		case statusparse.Unknown:
			return errors.Errorf("unrecognized status code, aborting: %q\nfull status:\n%s", e.Raw, out)
		}
	}
	return nil
}

func (s *Syncer) repoPath(p gpath.Path) gpath.Path {
	return gpath.New(s.RepoDir+string(os.PathSeparator)+p.String(), p.Kind())
}

// backupAndTrack renames a user-originated artifact to its timestamped
// name and records it (and, for a directory, its whole subtree) as user
// state.
func (s *Syncer) backupAndTrack(ctx context.Context, relPath gpath.Path) error {
	combined := s.repoPath(relPath)
	backup := combined.WithSuffix(s.suffix())

	renamed, err := combined.Rename(backup)
	if err != nil {
		return errors.Wrapf(err, "backing up %s", combined)
	}
	s.Backups = s.Backups.Add(renamed)

	if renamed.IsDir() {
		s.UserDirs = s.UserDirs.Add(renamed)
		files, dirs, err := s.Walk.AllFilesAndDirs(ctx, renamed.String())
		if err != nil {
			return errors.Wrapf(err, "enumerating backed-up subtree %s", renamed)
		}
		s.UserDirs = s.UserDirs.Union(dirs)
		s.UserFiles = s.UserFiles.Union(files)
	} else {
		s.UserFiles = s.UserFiles.Add(renamed)
	}
	return nil
}

// replaceRemoteAndFetch deletes and recreates the "origin" remote
// pointing at repoURL, re-marks repoDir as a safe directory, and fetches
// branch.
func (s *Syncer) replaceRemoteAndFetch(ctx context.Context) error {
	if err := s.VCS.DeleteRemote(ctx, s.RepoDir, "origin"); err != nil {
		return err
	}
	if err := s.VCS.AddRemote(ctx, s.RepoDir, "origin", s.RepoURL); err != nil {
		return err
	}
	if err := s.VCS.MarkSafeDirectory(ctx, s.RepoDir); err != nil {
		return err
	}
	return s.VCS.Fetch(ctx, s.RepoDir, s.Branch)
}

// restoreBackups renames every backup whose original name does not
// collide with upstream content back to that name, in sorted order.
func (s *Syncer) restoreBackups(ctx context.Context) error {
	for _, backup := range s.Backups.Elements() {
		original, err := backup.StripSuffix()
		if err != nil {
			return errors.Wrapf(err, "computing original name for backup %s", backup)
		}
		if original.Exists() {
			// Name collision with upstream: keep the backup in place.
			continue
		}

		renamed, err := backup.Rename(original)
		if err != nil {
			return errors.Wrapf(err, "restoring %s to %s", backup, original)
		}
		s.Backups = s.Backups.Remove(backup)

		if renamed.IsDir() {
			backupPrefix := backup.String() + string(os.PathSeparator)
			s.UserDirs = dropPrefixed(s.UserDirs, backupPrefix)
			s.UserFiles = dropPrefixed(s.UserFiles, backupPrefix)
			s.UserDirs = s.UserDirs.Remove(backup).Add(renamed)

			files, dirs, err := s.Walk.AllFilesAndDirs(ctx, renamed.String())
			if err != nil {
				return errors.Wrapf(err, "enumerating restored subtree %s", renamed)
			}
			s.UserDirs = s.UserDirs.Union(dirs)
			s.UserFiles = s.UserFiles.Union(files)
		} else {
			s.UserFiles = s.UserFiles.Remove(backup).Add(renamed)
		}
	}
	return nil
}

func dropPrefixed(set pathset.Set, prefix string) pathset.Set {
	out := pathset.New()
	for _, p := range set.Elements() {
		if !strings.HasPrefix(p.String(), prefix) {
			out = out.Add(p)
		}
	}
	return out
}

// finalize runs unconditionally, whether repoDir was just freshly cloned
// or updated in place: recompute all_*, validate, lock, copy the
// instructions file, then validate once more (diff disabled, since the
// instructions file just made the tree untracked-dirty by design).
func (s *Syncer) finalize(ctx context.Context) error {
	if err := s.recomputeAll(ctx); err != nil {
		return errors.Wrap(err, "recompute tree before finalizing")
	}
	if err := s.validate(ctx, true); err != nil {
		return err
	}
	if err := s.lock(ctx); err != nil {
		return errors.Wrap(err, "lock upstream-owned tree")
	}
	if err := s.Instructions.Emit(s.RepoDir); err != nil {
		return errors.Wrap(err, "emit instructions file")
	}
	if err := s.validate(ctx, false); err != nil {
		return err
	}
	return nil
}

// validate asserts that porcelain status reports only untracked entries
// (backups and the instructions file are untracked by design) and,
// optionally, that the tree is byte-identical to diffRef.
func (s *Syncer) validate(ctx context.Context, diff bool) error {
	out, err := s.VCS.Status(ctx, s.RepoDir)
	if err != nil {
		return &ValidationError{Err: err}
	}
	for _, e := range statusparse.Parse(out) {
		if e.Kind != statusparse.Untracked {
			return &ValidationError{Err: errors.Errorf("unexpected tracked status entry: %q", e.Raw)}
		}
	}
	if diff {
		if err := s.VCS.DiffClean(ctx, s.RepoDir, diffRef); err != nil {
			return &ValidationError{Err: err}
		}
	}
	return nil
}

// lock clears write bits on every upstream-owned file and ensures every
// upstream-owned directory carries user rwx, so the next sync can still
// walk and mutate it.
func (s *Syncer) lock(ctx context.Context) error {
	for _, d := range s.GitDirs().Elements() {
		mode, err := d.Mode()
		if err != nil {
			return err
		}
		if err := d.Chmod(mode | 0o700); err != nil {
			return err
		}
	}
	for _, f := range s.GitFiles().Elements() {
		mode, err := f.Mode()
		if err != nil {
			return err
		}
		if err := f.Chmod(mode &^ 0o222); err != nil {
			return err
		}
	}
	return nil
}
