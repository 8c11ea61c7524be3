package vm

import "strconv"

// formatInt renders v the way IntegerToString's round-trip property (spec
// §8) expects: parseable back as an integer literal via strconv.ParseInt.
func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
