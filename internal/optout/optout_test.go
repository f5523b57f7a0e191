package optout

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestEnabled(t *testing.T) {
	home, err := ioutil.TempDir("", "optout-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(home)

	if Enabled(home) {
		t.Fatal("Enabled should be false with no marker file")
	}

	if err := ioutil.WriteFile(filepath.Join(home, markerName), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !Enabled(home) {
		t.Fatal("Enabled should be true once the marker file exists")
	}
}
