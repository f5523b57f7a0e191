package gitcmd

import "testing"

func TestBashQuoteWord(t *testing.T) {
	cases := map[string]string{
		"":            "''",
		"simple":      "simple",
		"a/b-c_d.e":   "a/b-c_d.e",
		"has space":   "'has space'",
		"it's":        "'it'\"'\"'s'",
		"~/dotfiles":  "~/dotfiles",
	}
	for in, want := range cases {
		if got := BashQuoteWord(in); got != want {
			t.Errorf("BashQuoteWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBashQuoteCmd(t *testing.T) {
	got := BashQuoteCmd([]string{"git", "commit", "-m", "fix the thing"})
	want := "git commit -m 'fix the thing'"
	if got != want {
		t.Fatalf("BashQuoteCmd = %q, want %q", got, want)
	}
}
