package presenter

import (
	"fmt"
	"strconv"
	"strings"

	"minerwatch/internal/model"
)

// FormatHashRate renders H/s with a unit prefix
func FormatHashRate(rate float64) string {
	switch {
	case rate >= 1e9:
		return fmt.Sprintf("%.2f GH/s", rate/1e9)
	case rate >= 1e6:
		return fmt.Sprintf("%.2f MH/s", rate/1e6)
	case rate >= 1e3:
		return fmt.Sprintf("%.2f kH/s", rate/1e3)
	case rate > 0:
		return fmt.Sprintf("%.0f H/s", rate)
	default:
		return "0 H/s"
	}
}

// formatOptionalHashRate renders an absent hashrate as a dash
func formatOptionalHashRate(rate *float64) string {
	if rate == nil {
		return "-"
	}
	return FormatHashRate(*rate)
}

// FormatMemory renders megabytes with two decimals
func FormatMemory(mb float64) string {
	return strconv.FormatFloat(mb, 'f', 2, 64) + " MB"
}

// FormatLoad renders the 1m, 5m, 15m load triple
func FormatLoad(load [3]float64) string {
	parts := make([]string, 0, len(load))
	for _, v := range load {
		parts = append(parts, strconv.FormatFloat(v, 'f', 2, 64))
	}
	return strings.Join(parts, ", ")
}

// FormatCoresThreads renders "<cores>c/<threads>t"
func FormatCoresThreads(cores, threads model.Count) string {
	return cores.String() + "c/" + threads.String() + "t"
}
