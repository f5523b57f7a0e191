// Package walk enumerates every file and every directory beneath a root,
// skipping the VCS metadata subtree, and repairs directory permissions in
// passing so a prior lock-down (or hostile chmod) can never hide a
// subtree from enumeration.
package walk

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/msolo/gs4/internal/gpath"
	"github.com/msolo/gs4/internal/pathset"
)

// Walker is the interface the reconciler depends on, so tests can swap in
// a fake tree without touching disk.
type Walker interface {
	AllFiles(root string) (pathset.Set, error)
	AllDirs(root string) (pathset.Set, error)
	// AllFilesAndDirs runs both traversals concurrently and returns both
	// sets, the shape the reconciler actually calls after each
	// filesystem-mutating step.
	AllFilesAndDirs(ctx context.Context, root string) (files, dirs pathset.Set, err error)
}

// FS is the concrete Walker backed by the real filesystem. ExcludePaths
// are additional root-relative paths (files or directories) pruned from
// every traversal alongside the always-excluded .git metadata subtree,
// wired from internal/gsconfig.Tunables.ExcludePaths.
type FS struct {
	ExcludePaths []string
}

var _ Walker = FS{}

func gitMetaPrefix(root string) string {
	return filepath.Join(root, ".git")
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || (len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == filepath.Separator)
}

// excluded reports whether path should be pruned from a walk of root: the
// .git metadata subtree always is, plus anything under w.ExcludePaths.
func (w FS) excluded(root, path string) bool {
	if hasPathPrefix(path, gitMetaPrefix(root)) {
		return true
	}
	for _, ex := range w.ExcludePaths {
		if hasPathPrefix(path, filepath.Join(root, ex)) {
			return true
		}
	}
	return false
}

// AllDirs returns every directory below root, excluding root/.git and any
// configured ExcludePaths, OR-ing 0o700 into each visited directory's mode
// as it descends.
func (w FS) AllDirs(root string) (pathset.Set, error) {
	out := pathset.New()
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.excluded(root, path) {
			return filepath.SkipDir
		}
		if err := os.Chmod(path, info.Mode().Perm()|0o700); err != nil {
			return err
		}
		if path != root {
			out = out.Add(gpath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return pathset.Set{}, err
	}
	return out, nil
}

// AllFiles returns every file below root, excluding root/.git and any
// configured ExcludePaths. File modes are left untouched.
func (w FS) AllFiles(root string) (pathset.Set, error) {
	out := pathset.New()
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && w.excluded(root, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.excluded(root, path) {
			return nil
		}
		out = out.Add(gpath.File(path))
		return nil
	})
	if err != nil {
		return pathset.Set{}, err
	}
	return out, nil
}

// AllFilesAndDirs runs AllFiles and AllDirs concurrently and joins them,
// the same errgroup pattern cmd/git-sync/sync.go's getChangesViaStatus
// uses to run its two independent git subcommands in parallel.
func (w FS) AllFilesAndDirs(ctx context.Context, root string) (files, dirs pathset.Set, err error) {
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		files, err = w.AllFiles(root)
		return err
	})
	eg.Go(func() error {
		var err error
		dirs, err = w.AllDirs(root)
		return err
	})
	if err := eg.Wait(); err != nil {
		return pathset.Set{}, pathset.Set{}, err
	}
	return files, dirs, nil
}
