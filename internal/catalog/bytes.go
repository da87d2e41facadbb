package catalog

import (
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count as a human-readable size with at most two
// decimal places, trailing zeros trimmed ("5 MB", "1.5 GB").
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	f := float64(n)
	unit := 0
	for f >= 1024 && unit < len(byteUnits)-1 {
		f /= 1024
		unit++
	}
	f = math.Round(f*100) / 100
	return strconv.FormatFloat(f, 'f', -1, 64) + " " + byteUnits[unit]
}
