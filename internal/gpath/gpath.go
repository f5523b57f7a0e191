// Package gpath is a small tagged path type: every Path knows whether it
// names a file or a directory, so downstream code (backup, restore,
// locking) never has to re-probe the filesystem to find out which kind of
// thing it renamed.
package gpath

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Kind distinguishes a file path from a directory path.
type Kind int

const (
	// KindUnknown is never a valid Path's kind; it exists so the zero
	// value is recognizably invalid.
	KindUnknown Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Path is a filesystem path tagged with the kind of thing it names.
type Path struct {
	text string
	kind Kind
}

// ErrInvalidConcat is returned by Join for any combination of operands
// the abstraction doesn't define a meaning for.
var ErrInvalidConcat = errors.New("gpath: invalid concatenation")

// New wraps an existing path string with an explicit, already-known kind.
// Use Probe when the kind isn't known ahead of time.
func New(text string, kind Kind) Path {
	return Path{text: text, kind: kind}
}

// Probe stats text on disk and tags it file or dir accordingly, defaulting
// to dir when nothing exists there yet.
func Probe(text string) Path {
	fi, err := os.Lstat(text)
	if err != nil {
		return Path{text: text, kind: KindDir}
	}
	if fi.IsDir() {
		return Path{text: text, kind: KindDir}
	}
	return Path{text: text, kind: KindFile}
}

// File wraps text as a known file path, without touching the filesystem.
func File(text string) Path { return Path{text: text, kind: KindFile} }

// Dir wraps text as a known directory path, without touching the
// filesystem.
func Dir(text string) Path { return Path{text: text, kind: KindDir} }

// String returns the underlying textual path.
func (p Path) String() string { return p.text }

// Kind reports whether p names a file or a directory.
func (p Path) Kind() Kind { return p.kind }

// IsFile reports whether p is a file-kind path.
func (p Path) IsFile() bool { return p.kind == KindFile }

// IsDir reports whether p is a directory-kind path.
func (p Path) IsDir() bool { return p.kind == KindDir }

// Exists reports whether p currently exists on disk, regardless of its
// tagged kind (a tagged kind can be stale after an external mutation; this
// performs a fresh stat, it is the one place gpath does touch disk for a
// read).
func (p Path) Exists() bool {
	_, err := os.Lstat(p.text)
	return err == nil
}

// Join concatenates p with other per the rules:
//
//	dir + file   -> file
//	dir + dir    -> dir
//	dir + string -> probed (file if a file exists there, else dir)
//	file + string -> file, with string appended to the filename (a
//	                 suffix, e.g. the backup ".<hex8>" extension)
//
// Any other combination is an error.
func (p Path) Join(other interface{}) (Path, error) {
	switch p.kind {
	case KindDir:
		switch o := other.(type) {
		case Path:
			joined := filepath.Join(p.text, o.text)
			switch o.kind {
			case KindFile:
				return Path{text: joined, kind: KindFile}, nil
			case KindDir:
				return Path{text: joined, kind: KindDir}, nil
			default:
				return Path{}, ErrInvalidConcat
			}
		case string:
			return Probe(filepath.Join(p.text, o)), nil
		default:
			return Path{}, ErrInvalidConcat
		}
	case KindFile:
		suffix, ok := other.(string)
		if !ok {
			return Path{}, ErrInvalidConcat
		}
		return Path{text: p.text + suffix, kind: KindFile}, nil
	default:
		return Path{}, ErrInvalidConcat
	}
}

// MustJoin is Join, panicking on error; for call sites where the operand
// kinds are a compile-time-obvious invariant (e.g. a literal dir + a
// literal file-name string), not for anything built from data the caller
// doesn't control.
func (p Path) MustJoin(other interface{}) Path {
	joined, err := p.Join(other)
	if err != nil {
		panic(err)
	}
	return joined
}

// Parent returns the directory containing p.
func (p Path) Parent() Path {
	return Path{text: filepath.Dir(p.text), kind: KindDir}
}

// Rename moves p to dst on disk and returns dst tagged with p's kind.
func (p Path) Rename(dst Path) (Path, error) {
	if err := os.Rename(p.text, dst.text); err != nil {
		return Path{}, errors.Wrapf(err, "rename %s -> %s", p.text, dst.text)
	}
	return Path{text: dst.text, kind: p.kind}, nil
}

// RenameTo is a convenience for Rename(New(dstText, p.Kind())).
func (p Path) RenameTo(dstText string) (Path, error) {
	return p.Rename(Path{text: dstText, kind: p.kind})
}

// Chmod sets p's permission bits.
func (p Path) Chmod(mode os.FileMode) error {
	return errors.Wrapf(os.Chmod(p.text, mode), "chmod %s", p.text)
}

// Mode returns p's current permission bits.
func (p Path) Mode() (os.FileMode, error) {
	fi, err := os.Lstat(p.text)
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", p.text)
	}
	return fi.Mode(), nil
}

// ReadFile reads p's contents; p must be a file-kind path.
func (p Path) ReadFile() ([]byte, error) {
	if p.kind != KindFile {
		return nil, errors.Errorf("gpath: ReadFile on non-file path %q", p.text)
	}
	data, err := ioutil.ReadFile(p.text)
	return data, errors.Wrapf(err, "read %s", p.text)
}

// WriteFile writes data to p, creating or truncating it; p must be a
// file-kind path.
func (p Path) WriteFile(data []byte, mode os.FileMode) error {
	if p.kind != KindFile {
		return errors.Errorf("gpath: WriteFile on non-file path %q", p.text)
	}
	return errors.Wrapf(ioutil.WriteFile(p.text, data, mode), "write %s", p.text)
}

// StripSuffix splits off exactly one trailing ".<component>" extension
// (e.g. the invocation-global ".<hex8>" backup suffix) and returns the
// path without it, preserving p's kind. It does not validate the shape of
// the stripped component; the reconciler knows, from bookkeeping, which
// paths are backups and never needs to guess from the suffix text alone.
func (p Path) StripSuffix() (Path, error) {
	idx := strings.LastIndexByte(p.text, '.')
	if idx <= strings.LastIndexByte(p.text, '/') || idx < 0 {
		return Path{}, errors.Errorf("gpath: %q has no suffix to strip", p.text)
	}
	return Path{text: p.text[:idx], kind: p.kind}, nil
}

// WithSuffix appends suffix to p's filename, preserving kind. Used to
// compute a backup name without mutating anything on disk.
func (p Path) WithSuffix(suffix string) Path {
	return Path{text: p.text + suffix, kind: p.kind}
}

// Base returns the final path component, as filepath.Base.
func (p Path) Base() string { return filepath.Base(p.text) }

// HasPrefix reports whether p's text starts with prefix. The comparison is
// plain textual, not per path component.
func (p Path) HasPrefix(prefix string) bool {
	return strings.HasPrefix(p.text, prefix)
}
