package service

import (
	"sort"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
)

// DayCount is one day's click total in a daily series.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// AggregateByDay buckets clicks into UTC calendar days and returns one
// entry per day from the earliest to the latest click inclusive. Days with
// no clicks appear with a zero count; gaps are never skipped. An empty
// input yields an empty series.
func AggregateByDay(clicks []model.Click) []DayCount {
	if len(clicks) == 0 {
		return nil
	}

	counts := map[time.Time]int{}
	for _, click := range clicks {
		counts[dayOf(click.CreatedAt)]++
	}

	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	series := make([]DayCount, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series = append(series, DayCount{Day: day, Count: counts[day]})
	}
	return series
}

// TotalClicks counts all clicks for a link.
func TotalClicks(clicks []model.Click) int {
	return len(clicks)
}

// PartitionByExpiry splits a link set into active and expired counts
// relative to the supplied reference time. A link with no expiry is always
// active; active + expired always equals the input length.
func PartitionByExpiry(links []model.Link, now time.Time) (active, expired int) {
	for i := range links {
		if links[i].Expired(now) {
			expired++
		} else {
			active++
		}
	}
	return active, expired
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
