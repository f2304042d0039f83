package review

import (
	"math"
	"time"
)

// startOfDay truncates t to midnight in its location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// calendarDays counts day boundaries between from and to. Same day gives
// 0, yesterday to today gives 1, negative when to precedes from. DST
// shifts are absorbed by rounding.
func calendarDays(from, to time.Time) int {
	f := startOfDay(from)
	u := startOfDay(to.In(from.Location()))
	return int(math.Round(u.Sub(f).Hours() / 24))
}

// dateKey formats t as the YYYY-MM-DD bucket key.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
