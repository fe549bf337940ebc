package model

// Utoa is a minimal uint64-to-string converter for hot-path key building.
// Avoids importing strconv to eliminate unnecessary overhead.
func Utoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	buf := [20]byte{}
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
