package charts

import (
	"fmt"
	"math"
)

// FormatKPIValue renders a metric value for a tile: millions as "1.2M",
// thousands as "3.4K", everything else with one decimal place. Magnitude is
// judged on the absolute value so negative metrics abbreviate too.
func FormatKPIValue(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
