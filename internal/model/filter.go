package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// ParseGranularity falls back to hour, the dashboard's default period.
func ParseGranularity(value string) Granularity {
	switch Granularity(strings.ToLower(strings.TrimSpace(value))) {
	case GranularityDay:
		return GranularityDay
	case GranularityWeek:
		return GranularityWeek
	default:
		return GranularityHour
	}
}

// EventFilter holds the optional table filters. A zero Date, an empty
// Category and a non-positive Limit each mean "no filter".
type EventFilter struct {
	Date     time.Time
	Category Category
	Limit    int
}

func (f EventFilter) HasDate() bool {
	return !f.Date.IsZero()
}

func (f EventFilter) HasCategory() bool {
	return f.Category != ""
}

func (f EventFilter) HasLimit() bool {
	return f.Limit > 0
}

// DayRange returns [midnight, next midnight) of the filter date in its own
// location.
func (f EventFilter) DayRange() (time.Time, time.Time) {
	start := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
	return start, start.AddDate(0, 0, 1)
}

func (f EventFilter) MarshalJSON() ([]byte, error) {
	out := struct {
		Date     string   `json:"date,omitempty"`
		Category Category `json:"category,omitempty"`
		Limit    int      `json:"limit,omitempty"`
	}{Category: f.Category}
	if f.HasDate() {
		out.Date = f.Date.Format(time.DateOnly)
	}
	if f.HasLimit() {
		out.Limit = f.Limit
	}
	return json.Marshal(out)
}

// SourceQuery is what the poller asks a detection source for. Limit <= 0
// fetches everything.
type SourceQuery struct {
	Date     time.Time
	Category Category
	Limit    int
}
