package model

import (
	"time"

	"github.com/google/uuid"
)

type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type Histogram struct {
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
}

func (h Histogram) Total() int64 {
	var total int64
	for _, b := range h.Buckets {
		total += b.Count
	}
	return total
}

type SummaryMetrics struct {
	Total              int64              `json:"total"`
	PerCategoryCounts  map[Category]int64 `json:"per_category_counts"`
	PeakBucketLabel    string             `json:"peak_bucket_label"`
	PeakHour           int                `json:"peak_hour"`
	MostCommonCategory Category           `json:"most_common_category"`
	SameDayCount       int64              `json:"same_day_count"`
	AveragePerHour     int64              `json:"average_per_hour"`
}

// Snapshot is one complete, immutable version of the working dataset.
// Events are ordered most recent first, as delivered by the source.
type Snapshot struct {
	ID         uuid.UUID
	FetchedAt  time.Time
	Events     []DetectionEvent
	Skipped    int
	Statistics *UpstreamStatistics
}

func (s *Snapshot) Meta() SnapshotMeta {
	return SnapshotMeta{
		ID:        s.ID,
		FetchedAt: s.FetchedAt,
		Events:    len(s.Events),
		Skipped:   s.Skipped,
	}
}

type SnapshotMeta struct {
	ID        uuid.UUID `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	Events    int       `json:"events"`
	Skipped   int       `json:"skipped"`
}

type RefreshStatus struct {
	Snapshot      *SnapshotMeta `json:"snapshot,omitempty"`
	LastAttemptAt *time.Time    `json:"last_attempt_at,omitempty"`
	LastSuccessAt *time.Time    `json:"last_success_at,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
}

type SummaryView struct {
	Metrics  SummaryMetrics      `json:"metrics"`
	Upstream *UpstreamStatistics `json:"upstream,omitempty"`
	Snapshot SnapshotMeta        `json:"snapshot"`
}

type DashboardView struct {
	Summary  SummaryView      `json:"summary"`
	Traffic  Histogram        `json:"traffic"`
	Events   []DetectionEvent `json:"events"`
	Filter   EventFilter      `json:"filter"`
	Status   RefreshStatus    `json:"status"`
	Rendered time.Time        `json:"rendered_at"`
}
