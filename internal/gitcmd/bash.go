package gitcmd

import "strings"

const safeUnquoted = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@%_-+=:,./"

// BashQuoteWord quotes a string for safe use in bash, preferring
// single-quoted output so it can be pasted back into a shell verbatim for
// debugging.
func BashQuoteWord(s string) string {
	if strings.HasPrefix(s, "~/") {
		// Double escaping ~ neuters expansion and ~ is implicit.
		return s
	}
	if s == "" {
		return "''"
	}
	hasUnsafe := false
	for _, r := range s {
		if !strings.ContainsRune(safeUnquoted, r) {
			hasUnsafe = true
			break
		}
	}
	if !hasUnsafe {
		return s
	}
	return "'" + strings.Replace(s, "'", "'\"'\"'", -1) + "'"
}

// BashQuoteCmd quotes a full argv for logging.
func BashQuoteCmd(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = BashQuoteWord(a)
	}
	return strings.Join(out, " ")
}
