package utils

import (
	"fmt"
	"time"
)

// GasPerSecond returns 0 for a zero duration.
func GasPerSecond(gas uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(gas) / elapsed.Seconds()
}

var rateUnits = []string{"", "K", "M", "G", "T"}

// FormatRate renders v with a metric prefix, e.g. 1.25 Mgas/s.
func FormatRate(v float64, unit string) string {
	i := 0
	for v >= 1000 && i < len(rateUnits)-1 {
		v /= 1000
		i++
	}
	return fmt.Sprintf("%.2f %s%s/s", v, rateUnits[i], unit)
}

// FormatElapsed rounds d to a precision that fits simulation timings.
func FormatElapsed(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond).String()
	}
	return d.Round(time.Microsecond).String()
}
