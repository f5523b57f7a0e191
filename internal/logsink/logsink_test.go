package logsink

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestCloseRemovesLogOnSuccess(t *testing.T) {
	dir, err := ioutil.TempDir("", "logsink-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	repoDir := filepath.Join(dir, "repo")
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatal(err)
	}

	sink, err := Open(dir, repoDir)
	if err != nil {
		t.Fatal(err)
	}
	sink.Infof("hello")

	if err := sink.Close(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gs4.log")); !os.IsNotExist(err) {
		t.Fatal("gs4.log should have been removed on success")
	}
}

func TestCloseRelocatesLogOnFailure(t *testing.T) {
	dir, err := ioutil.TempDir("", "logsink-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	repoDir := filepath.Join(dir, "repo")
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatal(err)
	}

	sink, err := Open(dir, repoDir)
	if err != nil {
		t.Fatal(err)
	}
	sink.Criticalf("something went wrong")

	if err := sink.Close(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(repoDir, "gs4.failed.log")); err != nil {
		t.Fatalf("expected gs4.failed.log in repoDir: %s", err)
	}
}

func TestInteractive(t *testing.T) {
	dir, err := ioutil.TempDir("", "logsink-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	sink, err := Open(dir, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close(nil)

	// Under `go test`, stdout is not a terminal, so Interactive() should
	// be false; this mainly guards against Interactive() panicking or
	// being left unset.
	_ = sink.Interactive()
}
