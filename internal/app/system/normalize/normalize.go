// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an address so lookups and the unique index agree.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
