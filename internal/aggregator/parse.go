package aggregator

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"dashboard-service/internal/model"
)

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Layouts without an offset are the backend's local wall-clock times.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp accepts RFC3339 instants and naive ISO timestamps, the
// latter interpreted in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrMalformedTimestamp
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrMalformedTimestamp
}

// ParseEvents validates raw rows. Rows whose timestamp cannot be parsed are
// excluded and counted in skipped; the rest keep their order and their
// category tag as delivered.
func ParseEvents(raw []model.RawEvent, loc *time.Location) (events []model.DetectionEvent, skipped int) {
	events = make([]model.DetectionEvent, 0, len(raw))
	for _, r := range raw {
		observed, err := ParseTimestamp(r.ObservedAt, loc)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, model.DetectionEvent{
			TrackID:    r.TrackID,
			Category:   model.Category(strings.TrimSpace(r.Category)),
			ObservedAt: observed,
		})
	}
	return events, skipped
}

// ParseEventFilter builds a filter from raw query values. Offending values
// are ignored rather than reported: an unparsable date, an empty category or
// a limit that is not a positive integer simply leave that filter absent.
func ParseEventFilter(date, category, limit string, loc *time.Location) model.EventFilter {
	filter := model.EventFilter{}

	if dateStr := strings.TrimSpace(date); dateStr != "" {
		if parsed, err := time.ParseInLocation(time.DateOnly, dateStr, loc); err == nil {
			filter.Date = parsed
		}
	}

	if categoryStr := strings.TrimSpace(category); categoryStr != "" {
		filter.Category = model.Category(categoryStr)
	}

	if limitStr := strings.TrimSpace(limit); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	return filter
}
