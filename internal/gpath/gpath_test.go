package gpath

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func failOnErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestProbe(t *testing.T) {
	tmp, err := ioutil.TempDir("", "gpath-test-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)

	filePath := filepath.Join(tmp, "a_file")
	failOnErr(t, ioutil.WriteFile(filePath, []byte("x"), 0644))

	dirPath := filepath.Join(tmp, "a_dir")
	failOnErr(t, os.Mkdir(dirPath, 0755))

	missingPath := filepath.Join(tmp, "missing")

	if p := Probe(filePath); !p.IsFile() {
		t.Fatalf("Probe(%s) = %s, want file", filePath, p.Kind())
	}
	if p := Probe(dirPath); !p.IsDir() {
		t.Fatalf("Probe(%s) = %s, want dir", dirPath, p.Kind())
	}
	if p := Probe(missingPath); !p.IsDir() {
		t.Fatalf("Probe(%s) = %s, want dir (default)", missingPath, p.Kind())
	}
}

func TestJoin(t *testing.T) {
	dir := Dir("/repo")
	file := File("/repo/a")

	if joined, err := dir.Join(File("b")); err != nil || !joined.IsFile() || joined.String() != "/repo/b" {
		t.Fatalf("dir+file = %v, %v", joined, err)
	}
	if joined, err := dir.Join(Dir("b")); err != nil || !joined.IsDir() || joined.String() != "/repo/b" {
		t.Fatalf("dir+dir = %v, %v", joined, err)
	}
	if joined, err := file.Join(".a1b2c3d4"); err != nil || !joined.IsFile() || joined.String() != "/repo/a.a1b2c3d4" {
		t.Fatalf("file+suffix = %v, %v", joined, err)
	}
	if _, err := file.Join(Dir("x")); err == nil {
		t.Fatal("file+dir should be an error")
	}
	if _, err := dir.Join(42); err == nil {
		t.Fatal("dir+int should be an error")
	}
}

func TestStripSuffixWithSuffix(t *testing.T) {
	f := File("/repo/notes.txt")
	backup := f.WithSuffix(".a1b2c3d4")
	if backup.String() != "/repo/notes.txt.a1b2c3d4" {
		t.Fatalf("WithSuffix produced %q", backup.String())
	}
	original, err := backup.StripSuffix()
	failOnErr(t, err)
	if original.String() != f.String() {
		t.Fatalf("StripSuffix round-trip: got %q, want %q", original.String(), f.String())
	}
	if original.Kind() != f.Kind() {
		t.Fatalf("StripSuffix lost kind: got %s, want %s", original.Kind(), f.Kind())
	}

	if _, err := File("/repo/no-dot").StripSuffix(); err == nil {
		t.Fatal("expected error stripping a suffix from a path with no dot in its base name")
	}
}

func TestRenameAndExists(t *testing.T) {
	tmp, err := ioutil.TempDir("", "gpath-test-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)

	src := File(filepath.Join(tmp, "src"))
	failOnErr(t, ioutil.WriteFile(src.String(), []byte("x"), 0644))

	dst := File(filepath.Join(tmp, "dst"))
	renamed, err := src.Rename(dst)
	failOnErr(t, err)

	if src.Exists() {
		t.Fatal("source should no longer exist after rename")
	}
	if !renamed.Exists() {
		t.Fatal("destination should exist after rename")
	}
}

func TestChmodAndMode(t *testing.T) {
	tmp, err := ioutil.TempDir("", "gpath-test-")
	failOnErr(t, err)
	defer os.RemoveAll(tmp)

	f := File(filepath.Join(tmp, "f"))
	failOnErr(t, ioutil.WriteFile(f.String(), []byte("x"), 0644))

	failOnErr(t, f.Chmod(0400))
	mode, err := f.Mode()
	failOnErr(t, err)
	if mode.Perm() != 0400 {
		t.Fatalf("mode = %o, want 0400", mode.Perm())
	}
}
