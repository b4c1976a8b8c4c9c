package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryCar        Category = "car"
	CategoryMotorcycle Category = "motorcycle"
	CategoryPerson     Category = "person"
	CategoryBus        Category = "bus"
	CategoryTruck      Category = "truck"
	CategoryBicycle    Category = "bicycle"

	// CategoryOther is a summary key only; events keep the tag they arrived with.
	CategoryOther Category = "other"
)

var knownCategories = []Category{
	CategoryCar,
	CategoryMotorcycle,
	CategoryPerson,
	CategoryBus,
	CategoryTruck,
	CategoryBicycle,
}

// Categories returns the closed category set in declared order. The order is
// the tie-break priority for most-common category.
func Categories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}

func (c Category) Known() bool {
	for _, known := range knownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// SummaryKey folds unknown tags into CategoryOther.
func (c Category) SummaryKey() Category {
	if c.Known() {
		return c
	}
	return CategoryOther
}

type DetectionEvent struct {
	TrackID    int64     `json:"track_id"`
	Category   Category  `json:"category"`
	ObservedAt time.Time `json:"observed_at"`
}

// RawEvent is a row as delivered by the detection backend, before the
// timestamp has been validated. Both the camelCase and the snake_case
// spellings used by the backend are accepted.
type RawEvent struct {
	TrackID    int64
	Category   string
	ObservedAt string
}

type rawEventWire struct {
	TrackID       json.RawMessage `json:"trackId"`
	TrackIDSnake  json.RawMessage `json:"track_id"`
	Category      *string         `json:"category"`
	Class         *string         `json:"class"`
	ObservedAt    *string         `json:"observedAt"`
	ObservedSnake *string         `json:"observed_at"`
	CreatedAt     *string         `json:"created_at"`
}

func (r *RawEvent) UnmarshalJSON(data []byte) error {
	var wire rawEventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = RawEvent{
		TrackID:    parseTrackID(firstRaw(wire.TrackID, wire.TrackIDSnake)),
		Category:   firstString(wire.Category, wire.Class),
		ObservedAt: firstString(wire.ObservedAt, wire.ObservedSnake, wire.CreatedAt),
	}
	return nil
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			return v
		}
	}
	return nil
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

// parseTrackID accepts a JSON number or a numeric string. Anything else is 0.
func parseTrackID(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if id, err := num.Int64(); err == nil {
			return id
		}
		if f, err := num.Float64(); err == nil {
			return int64(f)
		}
		return 0
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil {
			return id
		}
	}
	return 0
}

type Batch struct {
	Events  []DetectionEvent
	Skipped int
}

type UpstreamStatistics struct {
	Total       int64 `json:"total"`
	Cars        int64 `json:"cars"`
	Motorcycles int64 `json:"motorcycles"`
	AvgPerHour  int64 `json:"avg_per_hour"`
}
