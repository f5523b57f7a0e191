package vcs

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/msolo/gs4/internal/gitcmd"
)

func failOnErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func failOnCmdError(t *testing.T, dir, bin string, args ...string) {
	t.Helper()
	cmd := gitcmd.Command(bin, args...)
	cmd.Dir = dir
	if _, err := cmd.Output(); err != nil {
		t.Fatal(err)
	}
}

// upstreamRepo creates a bare-ish upstream repo with one commit on the
// given branch, mirroring repoSetup's upstream leg in
// cmd/git-sync/git-sync_test.go.
func upstreamRepo(t *testing.T, branch string) (dir string, cleanup func()) {
	t.Helper()
	tmp, err := ioutil.TempDir("", "vcs-test-upstream-")
	failOnErr(t, err)

	failOnCmdError(t, tmp, "git", "init", "-q", "-b", branch)
	failOnCmdError(t, tmp, "git", "config", "user.email", "test@example.com")
	failOnCmdError(t, tmp, "git", "config", "user.name", "test")
	failOnErr(t, ioutil.WriteFile(filepath.Join(tmp, "dummy"), []byte("x"), 0644))
	failOnCmdError(t, tmp, "git", "add", "dummy")
	failOnCmdError(t, tmp, "git", "commit", "-q", "-m", "initial")

	return tmp, func() { os.RemoveAll(tmp) }
}

func TestCloneBloblessAndFetch(t *testing.T) {
	branch := "main"
	upstream, cleanup := upstreamRepo(t, branch)
	defer cleanup()

	tmp, err := ioutil.TempDir("", "vcs-test-clone-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)
	cloneDir := filepath.Join(tmp, "clone")

	g := NewGit(nil)
	ctx := context.Background()

	failOnErr(t, g.CloneBlobless(ctx, upstream, branch, cloneDir))

	if _, err := os.Stat(filepath.Join(cloneDir, "dummy")); err != nil {
		t.Fatalf("expected dummy to be checked out: %s", err)
	}

	failOnErr(t, g.Fetch(ctx, cloneDir, branch))
}

func TestStatusAndDiffClean(t *testing.T) {
	branch := "main"
	upstream, cleanup := upstreamRepo(t, branch)
	defer cleanup()

	tmp, err := ioutil.TempDir("", "vcs-test-status-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)
	cloneDir := filepath.Join(tmp, "clone")

	g := NewGit(nil)
	ctx := context.Background()
	failOnErr(t, g.CloneBlobless(ctx, upstream, branch, cloneDir))
	failOnErr(t, g.Fetch(ctx, cloneDir, branch))

	out, err := g.Status(ctx, cloneDir)
	failOnErr(t, err)
	if out != "" {
		t.Fatalf("expected clean status right after clone, got %q", out)
	}

	failOnErr(t, g.DiffClean(ctx, cloneDir, "origin/"+branch))

	failOnErr(t, ioutil.WriteFile(filepath.Join(cloneDir, "dummy"), []byte("changed"), 0644))
	if err := g.DiffClean(ctx, cloneDir, "origin/"+branch); err == nil {
		t.Fatal("expected DiffClean to fail after a local modification")
	}
}

func TestResetAndCheckoutDiscardsLocalChanges(t *testing.T) {
	branch := "main"
	upstream, cleanup := upstreamRepo(t, branch)
	defer cleanup()

	tmp, err := ioutil.TempDir("", "vcs-test-reset-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)
	cloneDir := filepath.Join(tmp, "clone")

	g := NewGit(nil)
	ctx := context.Background()
	failOnErr(t, g.CloneBlobless(ctx, upstream, branch, cloneDir))
	failOnErr(t, g.Fetch(ctx, cloneDir, branch))

	failOnErr(t, ioutil.WriteFile(filepath.Join(cloneDir, "dummy"), []byte("changed"), 0644))
	failOnCmdError(t, cloneDir, "git", "add", "dummy")

	failOnErr(t, g.ResetAndCheckout(ctx, cloneDir, branch))

	data, err := ioutil.ReadFile(filepath.Join(cloneDir, "dummy"))
	failOnErr(t, err)
	if string(data) != "x" {
		t.Fatalf("dummy = %q, want original content %q", data, "x")
	}
}

func TestDeleteRemoteMissingIsNotAnError(t *testing.T) {
	tmp, err := ioutil.TempDir("", "vcs-test-remote-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)
	failOnCmdError(t, tmp, "git", "init", "-q")

	g := NewGit(nil)
	if err := g.DeleteRemote(context.Background(), tmp, "origin"); err != nil {
		t.Fatalf("deleting a nonexistent remote should not error, got %s", err)
	}
}
