package unit

import "strconv"

const (
	Byte     = 1
	Kilobyte = 1000 * Byte
	Megabyte = 1000 * Kilobyte
	Gigabyte = 1000 * Megabyte
)

// Decimal formats n with the largest decimal unit that keeps it >= 1.
func Decimal(n int64) string {
	switch {
	case n >= Gigabyte:
		return strconv.FormatFloat(float64(n)/Gigabyte, 'f', 1, 64) + " GB"
	case n >= Megabyte:
		return strconv.FormatFloat(float64(n)/Megabyte, 'f', 1, 64) + " MB"
	case n >= Kilobyte:
		return strconv.FormatFloat(float64(n)/Kilobyte, 'f', 1, 64) + " kB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}
