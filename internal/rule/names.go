package rule

import "strings"

// CompareNames orders display names lexicographically by code point. Byte
// order of valid UTF-8 equals code point order, so emoji and other
// non-ASCII names need no special collation. Use a stable sort to keep
// declaration order for ties.
func CompareNames(a, b string) int {
	return strings.Compare(a, b)
}
