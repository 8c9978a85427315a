// Package bcd converts between binary and the packed binary-coded-decimal
// bytes used by most RTC register files: the high nibble holds the tens
// digit and the low nibble the units digit.
package bcd

// Decode converts a packed BCD byte to its decimal value. Nibbles above 9
// are not rejected, so malformed register contents decode to out-of-range
// values (0xFF decodes to 165).
func Decode(b byte) uint8 {
	return 10*(b>>4) + b&0x0F
}

// Encode converts a value in 0-99 to packed BCD. Larger values spill into
// the high bits of the byte.
func Encode(v uint8) byte {
	return (v/10)<<4 | v%10
}
