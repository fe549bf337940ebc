// Package strip removes trailing zero digits from the decimal
// representation of a non-negative integer. Two equivalent
// implementations are provided: Strconv goes through the decimal string,
// Div divides by 10 in a loop. The rest of the repo exists to measure
// them against each other.
package strip

import (
	"strconv"
	"strings"
)

// Strconv strips trailing zeros via the string representation: format n
// in base 10, trim '0' bytes from the right, parse the remainder back.
// For n == 0 the trimmed string is empty and the strconv.ParseUint
// syntax error is returned as-is.
func Strconv(n uint64) (uint64, error) {
	s := strings.TrimRight(strconv.FormatUint(n, 10), "0")
	return strconv.ParseUint(s, 10, 64)
}

// Div strips trailing zeros by repeated integer division. Zero is
// returned unchanged; without the guard the loop would never terminate
// since 0 % 10 == 0.
func Div(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	for n%10 == 0 {
		n /= 10
	}
	return n
}
