package snapshot

import (
	"fmt"
	"time"
)

// RelativeAge renders the distance between t and now in the style
// "3 hours ago", "yesterday", "2 weeks ago".
func RelativeAge(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}
	days := int(diff / (24 * time.Hour))

	switch {
	case days == 0 && diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case days == 0:
		return plural(int(diff/time.Hour), "hour")
	case days == 1:
		return "yesterday"
	case days < 7:
		return plural(days, "day")
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
