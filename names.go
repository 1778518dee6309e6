package ldraw

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the key under which page names are compared: case
// folded, trimmed and with forward slashes turned into backslashes.
func FoldName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "/", `\`)
	return cases.Fold().String(name)
}

// SameName reports whether two page names refer to the same page.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}
