// Package aggregator turns a snapshot of detection events into the dashboard's
// histograms, summary counters and filtered table rows.
//
// Every function is pure: inputs are never mutated, results are freshly
// allocated and the reference instant is passed in. The viewer's calendar is
// the location carried by now.
package aggregator

import (
	"fmt"
	"math"
	"time"

	"dashboard-service/internal/model"
)

const (
	hoursPerDay  = 24
	daysInWindow = 7
	weeksWindow  = 4

	day  = 24 * time.Hour
	week = 7 * day
)

// BucketByPeriod builds the histogram for the requested granularity.
//
// Hour buckets are hour-of-day: events from different days sharing an hour
// land in the same bucket. Day and week buckets are trailing windows ending
// at now, oldest first; events outside the window (including future ones)
// are dropped.
func BucketByPeriod(events []model.DetectionEvent, granularity model.Granularity, now time.Time) model.Histogram {
	switch granularity {
	case model.GranularityDay:
		return bucketTrailing(events, now, model.GranularityDay, day, daysInWindow, dayLabels(now))
	case model.GranularityWeek:
		return bucketTrailing(events, now, model.GranularityWeek, week, weeksWindow, weekLabels())
	default:
		return bucketHourOfDay(events, now)
	}
}

func bucketHourOfDay(events []model.DetectionEvent, now time.Time) model.Histogram {
	loc := now.Location()
	buckets := make([]model.Bucket, hoursPerDay)
	for i := range buckets {
		buckets[i].Label = hourLabel(i)
	}
	for _, e := range events {
		buckets[e.ObservedAt.In(loc).Hour()].Count++
	}
	return model.Histogram{Granularity: model.GranularityHour, Buckets: buckets}
}

func bucketTrailing(events []model.DetectionEvent, now time.Time, granularity model.Granularity, width time.Duration, size int, labels []string) model.Histogram {
	buckets := make([]model.Bucket, size)
	for i := range buckets {
		buckets[i].Label = labels[i]
	}
	for _, e := range events {
		ago, ok := periodsAgo(now, e.ObservedAt, width)
		if !ok || ago >= size {
			continue
		}
		buckets[size-1-ago].Count++
	}
	return model.Histogram{Granularity: granularity, Buckets: buckets}
}

// periodsAgo is floor((now - at) / width). Events after now report !ok.
func periodsAgo(now, at time.Time, width time.Duration) (int, bool) {
	elapsed := now.Sub(at)
	if elapsed < 0 {
		return 0, false
	}
	return int(elapsed / width), true
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func dayLabels(now time.Time) []string {
	labels := make([]string, daysInWindow)
	for i := range labels {
		d := now.AddDate(0, 0, -(daysInWindow - 1 - i))
		labels[i] = d.Format("Mon, Jan 2")
	}
	return labels
}

func weekLabels() []string {
	labels := make([]string, weeksWindow)
	for i := range labels {
		labels[i] = fmt.Sprintf("Week %d", weeksWindow-i)
	}
	return labels
}

// ComputeSummary derives the dashboard counters from the full collection.
//
// Peak hour ties resolve to the lowest hour and most-common category ties to
// the declared category order, so an empty collection reports 00:00 and car.
// Unknown categories are counted under "other" and never win most-common.
func ComputeSummary(events []model.DetectionEvent, now time.Time) model.SummaryMetrics {
	perCategory := make(map[model.Category]int64)
	var sameDay int64

	ny, nm, nd := now.Date()
	for _, e := range events {
		perCategory[e.Category.SummaryKey()]++
		if y, m, d := e.ObservedAt.In(now.Location()).Date(); y == ny && m == nm && d == nd {
			sameDay++
		}
	}

	peak := peakBucket(bucketHourOfDay(events, now))
	total := int64(len(events))

	return model.SummaryMetrics{
		Total:              total,
		PerCategoryCounts:  perCategory,
		PeakBucketLabel:    hourLabel(peak),
		PeakHour:           peak,
		MostCommonCategory: mostCommon(perCategory),
		SameDayCount:       sameDay,
		AveragePerHour:     int64(math.Round(float64(total) / hoursPerDay)),
	}
}

func peakBucket(h model.Histogram) int {
	peak := 0
	for i, b := range h.Buckets {
		if b.Count > h.Buckets[peak].Count {
			peak = i
		}
	}
	return peak
}

func mostCommon(counts map[model.Category]int64) model.Category {
	categories := model.Categories()
	best := categories[0]
	for _, c := range categories[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// FilterEvents applies the date and category filters conjunctively and then
// truncates to the limit, keeping the input order. Absent filters (see
// model.EventFilter) are skipped. The result is always a new slice.
func FilterEvents(events []model.DetectionEvent, filter model.EventFilter) []model.DetectionEvent {
	result := make([]model.DetectionEvent, 0, len(events))

	var from, to time.Time
	if filter.HasDate() {
		from, to = filter.DayRange()
	}

	for _, e := range events {
		if filter.HasDate() && (e.ObservedAt.Before(from) || !e.ObservedAt.Before(to)) {
			continue
		}
		if filter.HasCategory() && e.Category != filter.Category {
			continue
		}
		result = append(result, e)
		if filter.HasLimit() && len(result) == filter.Limit {
			break
		}
	}

	return result
}
