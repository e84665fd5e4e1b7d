package alert

import (
	"fmt"
	"strconv"
)

// Prefix marks every message handed to the sink.
const Prefix = "🚨 [api-sentinel] "

func ErrorRateMessage(endpoint string, errorRate float64) string {
	return fmt.Sprintf("High error rate detected for %s: %s%%", endpoint, formatNumber(errorRate))
}

func LatencyMessage(endpoint string, avgLatencyMillis float64) string {
	return fmt.Sprintf("High latency detected for %s: %sms", endpoint, formatNumber(avgLatencyMillis))
}

// formatNumber prints the shortest decimal that round-trips, so 50 is "50"
// and 33.3… keeps its full precision.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
