// Package statusparse turns porcelain-v1-style `git status` output into
// typed (kind, path) entries, adapted from gitapi.ParsePorcelainStatus's
// "status code then path" shape but for the default newline-delimited
// format rather than that function's null-terminated `-z` grammar.
package statusparse

import (
	"strings"

	"github.com/msolo/gs4/internal/gpath"
)

// Kind classifies a single status line.
type Kind int

const (
	Unknown Kind = iota
	Untracked
	Added
	Modified
	Deleted
	Renamed
	Copied
	TypeChange
	Updated
)

func (k Kind) String() string {
	switch k {
	case Untracked:
		return "untracked"
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Copied:
		return "copied"
	case TypeChange:
		return "typechange"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

var codeTable = map[string]Kind{
	"??": Untracked,
	"A":  Added,
	"M":  Modified,
	"D":  Deleted,
	"R":  Renamed,
	"C":  Copied,
	"T":  TypeChange,
	"U":  Updated,
}

// Entry is one classified status line.
type Entry struct {
	Kind Kind
	Path gpath.Path
	// Raw is the original line, kept for diagnostics when Kind == Unknown.
	Raw string
}

// Parse classifies every non-empty line of a porcelain-v1 `git status`
// report. Renamed lines carry extra tokens past the path (the
// "-> new-name" tail); only the first path -- the pre-rename name -- is
// kept.
func Parse(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			entries = append(entries, Entry{Kind: Unknown, Raw: line})
			continue
		}
		code := fields[0]
		pathText := fields[1]

		kind, ok := codeTable[code]
		if !ok {
			// A bare leading letter (M, A, D, R, C, T, U) may be glued to
			// a second staged-status letter in two-column porcelain
			// output (e.g. "MM", "AM"); fall back to the first byte.
			if len(code) > 0 {
				kind, ok = codeTable[code[:1]]
			}
			if !ok {
				entries = append(entries, Entry{Kind: Unknown, Raw: line})
				continue
			}
		}

		isDir := strings.HasSuffix(pathText, "/")
		var p gpath.Path
		if isDir {
			p = gpath.Dir(strings.TrimSuffix(pathText, "/"))
		} else {
			p = gpath.File(pathText)
		}
		entries = append(entries, Entry{Kind: kind, Path: p, Raw: line})
	}
	return entries
}
