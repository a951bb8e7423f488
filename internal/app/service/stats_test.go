package service

import (
	"testing"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
)

func clickAt(t time.Time) model.Click {
	return model.Click{LinkID: "link-1", CreatedAt: t}
}

func TestAggregateByDay_ZeroFillsGaps(t *testing.T) {
	jan1 := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	jan3 := time.Date(2025, time.January, 3, 23, 59, 0, 0, time.UTC)

	series := AggregateByDay([]model.Click{
		clickAt(jan1),
		clickAt(jan1.Add(2 * time.Hour)),
		clickAt(jan3),
	})

	want := []DayCount{
		{Day: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), Count: 2},
		{Day: time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC), Count: 0},
		{Day: time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC), Count: 1},
	}

	if len(series) != len(want) {
		t.Fatalf("expected %d days, got %d: %v", len(want), len(series), series)
	}
	for i := range want {
		if !series[i].Day.Equal(want[i].Day) || series[i].Count != want[i].Count {
			t.Fatalf("day %d: expected %v, got %v", i, want[i], series[i])
		}
	}
}

func TestAggregateByDay_BucketsInUTC(t *testing.T) {
	// 23:30 in UTC-3 is already the next day in UTC.
	tz := time.FixedZone("UTC-3", -3*60*60)
	late := time.Date(2025, time.June, 1, 23, 30, 0, 0, tz)

	series := AggregateByDay([]model.Click{clickAt(late)})
	if len(series) != 1 {
		t.Fatalf("expected one bucket, got %d", len(series))
	}
	want := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	if !series[0].Day.Equal(want) {
		t.Fatalf("expected UTC bucket %v, got %v", want, series[0].Day)
	}
}

func TestAggregateByDay_Empty(t *testing.T) {
	if series := AggregateByDay(nil); len(series) != 0 {
		t.Fatalf("expected empty series, got %v", series)
	}
}

func TestAggregateByDay_SingleDay(t *testing.T) {
	day := time.Date(2025, time.May, 5, 8, 0, 0, 0, time.UTC)
	series := AggregateByDay([]model.Click{clickAt(day), clickAt(day.Add(time.Minute))})
	if len(series) != 1 || series[0].Count != 2 {
		t.Fatalf("expected a single bucket with 2 clicks, got %v", series)
	}
}

func TestTotalClicks(t *testing.T) {
	clicks := []model.Click{
		clickAt(time.Now()),
		clickAt(time.Now()),
		clickAt(time.Now()),
	}
	if got := TotalClicks(clicks); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := TotalClicks(nil); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestPartitionByExpiry_SumsToTotal(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	links := []model.Link{
		{},
		{ExpiresAt: &future},
		{ExpiresAt: &past},
		{ExpiresAt: &past},
		// Boundary: exactly "now" has not passed yet.
		{ExpiresAt: &now},
	}

	active, expired := PartitionByExpiry(links, now)
	if active != 3 || expired != 2 {
		t.Fatalf("expected 3 active / 2 expired, got %d / %d", active, expired)
	}
	if active+expired != len(links) {
		t.Fatalf("partition must cover every link: %d + %d != %d", active, expired, len(links))
	}
}
