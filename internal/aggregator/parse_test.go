package aggregator_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"dashboard-service/internal/aggregator"
	"dashboard-service/internal/model"
)

func sampleEvents(t *testing.T) []model.DetectionEvent {
	t.Helper()
	return []model.DetectionEvent{
		{TrackID: 5, Category: model.CategoryCar, ObservedAt: mustTime(t, "2024-01-02T09:00:00Z")},
		{TrackID: 4, Category: model.CategoryBus, ObservedAt: mustTime(t, "2024-01-02T08:00:00Z")},
		{TrackID: 3, Category: model.CategoryCar, ObservedAt: mustTime(t, "2024-01-01T23:00:00Z")},
		{TrackID: 2, Category: model.CategoryCar, ObservedAt: mustTime(t, "2024-01-01T10:00:00Z")},
		{TrackID: 1, Category: model.CategoryPerson, ObservedAt: mustTime(t, "2024-01-01T09:00:00Z")},
	}
}

func trackIDs(events []model.DetectionEvent) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.TrackID)
	}
	return ids
}

func TestFilterEvents(t *testing.T) {
	events := sampleEvents(t)
	jan1UTC := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jakarta := time.FixedZone("WIB", 7*60*60)

	tests := []struct {
		name   string
		filter model.EventFilter
		want   []int64
	}{
		{"no filters", model.EventFilter{}, []int64{5, 4, 3, 2, 1}},
		{"category", model.EventFilter{Category: model.CategoryCar}, []int64{5, 3, 2}},
		{"date", model.EventFilter{Date: jan1UTC}, []int64{3, 2, 1}},
		{"date in viewer location", model.EventFilter{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, jakarta)}, []int64{5, 4, 3}},
		{"date and category", model.EventFilter{Date: jan1UTC, Category: model.CategoryCar}, []int64{3, 2}},
		{"limit", model.EventFilter{Limit: 2}, []int64{5, 4}},
		{"limit after filters", model.EventFilter{Category: model.CategoryCar, Limit: 2}, []int64{5, 3}},
		{"limit larger than result", model.EventFilter{Category: model.CategoryBus, Limit: 10}, []int64{4}},
		{"non-positive limit is absent", model.EventFilter{Limit: -3}, []int64{5, 4, 3, 2, 1}},
		{"no trucks", model.EventFilter{Category: model.CategoryTruck}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregator.FilterEvents(events, tt.filter)
			if got == nil {
				t.Fatalf("expected non-nil result")
			}
			if ids := trackIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestFilterEvents_NoBusesIsEmptyNotError(t *testing.T) {
	events := []model.DetectionEvent{
		{Category: model.CategoryCar, ObservedAt: mustTime(t, "2024-01-01T09:00:00Z")},
	}
	got := aggregator.FilterEvents(events, model.EventFilter{Category: model.CategoryBus})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestFilterEvents_Idempotent(t *testing.T) {
	events := sampleEvents(t)
	filters := []model.EventFilter{
		{},
		{Category: model.CategoryCar},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Limit: 2},
		{Category: model.CategoryCar, Limit: 1},
	}

	for _, f := range filters {
		once := aggregator.FilterEvents(events, f)
		twice := aggregator.FilterEvents(once, f)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("filter %+v not idempotent: %v vs %v", f, trackIDs(once), trackIDs(twice))
		}
	}
}

func TestFilterEvents_ResultIsFresh(t *testing.T) {
	events := sampleEvents(t)
	got := aggregator.FilterEvents(events, model.EventFilter{})
	got[0].TrackID = 999
	if events[0].TrackID == 999 {
		t.Fatalf("result shares storage with input")
	}
}

func TestParseEventFilter(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	tests := []struct {
		name                  string
		date, category, limit string
		wantDate              time.Time
		wantCategory          model.Category
		wantLimit             int
	}{
		{"all absent", "", "", "", time.Time{}, "", 0},
		{"valid", "2024-01-02", "bus", "25", time.Date(2024, 1, 2, 0, 0, 0, 0, jakarta), model.CategoryBus, 25},
		{"bad date ignored", "02/01/2024", "car", "5", time.Time{}, model.CategoryCar, 5},
		{"non-numeric limit ignored", "", "car", "abc", time.Time{}, model.CategoryCar, 0},
		{"zero limit ignored", "", "", "0", time.Time{}, "", 0},
		{"negative limit ignored", "", "", "-4", time.Time{}, "", 0},
		{"fractional limit ignored", "", "", "2.5", time.Time{}, "", 0},
		{"whitespace trimmed", " 2024-01-02 ", " car ", " 3 ", time.Date(2024, 1, 2, 0, 0, 0, 0, jakarta), model.CategoryCar, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := aggregator.ParseEventFilter(tt.date, tt.category, tt.limit, jakarta)
			if !f.Date.Equal(tt.wantDate) {
				t.Errorf("date: expected %v, got %v", tt.wantDate, f.Date)
			}
			if f.Category != tt.wantCategory {
				t.Errorf("category: expected %q, got %q", tt.wantCategory, f.Category)
			}
			if f.Limit != tt.wantLimit {
				t.Errorf("limit: expected %d, got %d", tt.wantLimit, f.Limit)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2024-01-01T08:00:00Z", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), true},
		{"2024-01-01T15:00:00+07:00", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), true},
		{"2024-01-01T08:00:00.123Z", time.Date(2024, 1, 1, 8, 0, 0, 123000000, time.UTC), true},
		{"2024-01-01T15:00:00", time.Date(2024, 1, 1, 15, 0, 0, 0, jakarta), true},
		{"2024-01-01T15:00:00.250000", time.Date(2024, 1, 1, 15, 0, 0, 250000000, jakarta), true},
		{"2024-01-01 15:00:00", time.Date(2024, 1, 1, 15, 0, 0, 0, jakarta), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2024-13-01T00:00:00Z", time.Time{}, false},
	}

	for _, tt := range tests {
		got, err := aggregator.ParseTimestamp(tt.input, jakarta)
		if tt.ok && err != nil {
			t.Errorf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) expected error", tt.input)
			}
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}

func TestParseEvents_SkipsMalformedTimestamps(t *testing.T) {
	payload := `[
		{"track_id": 1, "class": "car", "created_at": "2024-01-01T08:00:00", "bbox": [1,2,3,4]},
		{"trackId": "7", "category": "bus", "observedAt": "2024-01-01T09:00:00Z"},
		{"track_id": 2, "class": "horse", "created_at": "not-a-time"},
		{"track_id": 3, "class": "truck"},
		{"track_id": "abc", "class": "horse", "created_at": "2024-01-01T10:00:00+07:00"}
	]`

	var raw []model.RawEvent
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	jakarta := time.FixedZone("WIB", 7*60*60)
	events, skipped := aggregator.ParseEvents(raw, jakarta)

	if skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", skipped)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].TrackID != 1 || events[0].Category != model.CategoryCar || !events[0].ObservedAt.Equal(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].TrackID != 7 || events[1].Category != model.CategoryBus {
		t.Errorf("unexpected second event: %+v", events[1])
	}
	if events[2].TrackID != 0 || events[2].Category != "horse" {
		t.Errorf("unknown category should pass through unchanged: %+v", events[2])
	}
}
