// Package optout checks for the per-user opt-out marker file that lets an
// invoking user disable gs4 entirely on a shared host.
package optout

import (
	"os"
	"path/filepath"
)

const markerName = ".git-sync-off"

// Enabled reports whether $HOME/.git-sync-off exists. Any error other than
// "not found" (e.g. a permission problem on $HOME) is treated as "not
// opted out" -- the marker's job is to be trivially easy to create, not to
// be a security boundary.
func Enabled(home string) bool {
	_, err := os.Stat(filepath.Join(home, markerName))
	return err == nil
}
