package units

import (
	"fmt"
	"math"
)

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatSize renders a byte count held as a float, clamped to the uint64 range.
func FormatSize(bytes float64) string {
	return FormatBytes(clampUint64(bytes))
}

// clampUint64 maps v into [0, MaxUint64]; NaN maps to 0.
func clampUint64(v float64) uint64 {
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(v)
}

// FormatSpeed renders a bytes/second rate, e.g. "1.50 MB/s".
func FormatSpeed(bps float64) string {
	if bps <= 0 {
		return "0 B/s"
	}
	return FormatSize(bps) + "/s"
}

// FormatMbps renders a bytes/second rate in megabits per second.
func FormatMbps(bps float64) string {
	mbps, _ := FromBytesPerSecond(bps, "mbps")
	return fmt.Sprintf("%.2f Mbps", mbps)
}
