// Package vcs is the sole place gs4 shells out to git, so the reconciler
// can be ported to any porcelain-compatible backend (or a direct library
// binding) without touching reconciliation logic. Grounded on
// gitapi.gitWorkDir / gitCommand's "-C <dir>" + restricted-environment
// pattern.
package vcs

import (
	"context"

	"github.com/pkg/errors"

	"github.com/msolo/gs4/internal/gitcmd"
	"github.com/msolo/gs4/internal/shx"
)

// Adapter is the porcelain surface the reconciler depends on.
type Adapter interface {
	CloneBlobless(ctx context.Context, repoURL, branch, dir string) error
	MarkSafeDirectory(ctx context.Context, dir string) error
	DeleteRemote(ctx context.Context, dir, name string) error
	AddRemote(ctx context.Context, dir, name, url string) error
	Fetch(ctx context.Context, dir, branch string) error
	ResetAndCheckout(ctx context.Context, dir, branch string) error
	Status(ctx context.Context, dir string) (string, error)
	DiffClean(ctx context.Context, dir, ref string) error
}

// Git is the concrete Adapter, a thin subprocess wrapper over the `git`
// binary found on PATH. Every invocation runs through Shell, so its
// timeout, interpreter and preamble -- overridable via internal/gsconfig
// tunables -- govern every porcelain call this tool makes.
type Git struct {
	Shell *shx.Runner
}

var _ Adapter = (*Git)(nil)

// NewGit returns a Git adapter using the given shell runner, or a
// default one when shell is nil.
func NewGit(shell *shx.Runner) *Git {
	if shell == nil {
		shell = shx.New()
	}
	return &Git{Shell: shell}
}

// runGit runs `git <args>` through Shell, with no working directory
// implied -- used for the handful of calls (clone, global config) that
// run before a target directory exists or that aren't scoped to one.
func (g *Git) runGit(ctx context.Context, args ...string) (*shx.Result, error) {
	return g.Shell.Run(ctx, shx.Options{
		Script:  gitcmd.BashQuoteCmd(append([]string{"git"}, args...)),
		Capture: true,
	})
}

// runGitIn runs `git -C <dir> <args>` through Shell.
func (g *Git) runGitIn(ctx context.Context, dir string, args ...string) (*shx.Result, error) {
	return g.runGit(ctx, append([]string{"-C", dir}, args...)...)
}

// CloneBlobless performs `git clone --filter=blob:none -b <branch>
// <repoURL> <dir>`.
func (g *Git) CloneBlobless(ctx context.Context, repoURL, branch, dir string) error {
	_, err := g.runGit(ctx, "clone", "--filter=blob:none", "-b", branch, repoURL, dir)
	return errors.Wrapf(err, "clone %s (branch %s) into %s", repoURL, branch, dir)
}

// MarkSafeDirectory runs `git config --global --add safe.directory <dir>`,
// required for a clone whose ownership doesn't match the invoking user
// (the common case on a shared classroom host).
func (g *Git) MarkSafeDirectory(ctx context.Context, dir string) error {
	_, err := g.runGit(ctx, "config", "--global", "--add", "safe.directory", dir)
	return errors.Wrapf(err, "mark %s as a safe directory", dir)
}

// DeleteRemote removes a remote if present; a missing remote is not an
// error (the caller is about to (re-)create it anyway).
func (g *Git) DeleteRemote(ctx context.Context, dir, name string) error {
	if _, err := g.runGitIn(ctx, dir, "remote", "remove", name); err != nil {
		if status, serr := gitcmd.ExitStatus(err); serr == nil && status != 0 {
			// "No such remote" -- fine, there's nothing to delete.
			return nil
		}
		return errors.Wrapf(err, "remove remote %s in %s", name, dir)
	}
	return nil
}

// AddRemote adds a remote pointing at url.
func (g *Git) AddRemote(ctx context.Context, dir, name, url string) error {
	_, err := g.runGitIn(ctx, dir, "remote", "add", name, url)
	return errors.Wrapf(err, "add remote %s -> %s in %s", name, url, dir)
}

// Fetch fetches branch from origin.
func (g *Git) Fetch(ctx context.Context, dir, branch string) error {
	_, err := g.runGitIn(ctx, dir, "fetch", "origin", branch)
	return errors.Wrapf(err, "fetch origin/%s in %s", branch, dir)
}

// ResetAndCheckout unstages everything, checks the working tree out from
// the index, then checks out origin/<branch>, so the tree converges on
// the remote-tracking ref regardless of what was staged before. Any path
// previously present but absent upstream has already been renamed away by
// classification, so this step cannot destroy user data.
func (g *Git) ResetAndCheckout(ctx context.Context, dir, branch string) error {
	steps := [][]string{
		{"reset", "--mixed", "-q"},
		{"checkout", "-q", "--", "."},
		{"checkout", "-q", "origin/" + branch},
	}
	for _, args := range steps {
		if _, err := g.runGitIn(ctx, dir, args...); err != nil {
			return errors.Wrapf(err, "reset/checkout origin/%s in %s", branch, dir)
		}
	}
	return nil
}

// Status returns the raw porcelain-v1 status report for dir.
func (g *Git) Status(ctx context.Context, dir string) (string, error) {
	res, err := g.runGitIn(ctx, dir, "status", "--porcelain")
	if err != nil {
		return "", errors.Wrapf(err, "status in %s", dir)
	}
	return string(res.Stdout), nil
}

// DiffClean fails unless `git diff --quiet <ref>` reports no differences.
func (g *Git) DiffClean(ctx context.Context, dir, ref string) error {
	_, err := g.runGitIn(ctx, dir, "diff", "--quiet", ref)
	if err != nil {
		return errors.Wrapf(err, "tree in %s differs from %s", dir, ref)
	}
	return nil
}
