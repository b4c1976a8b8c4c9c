package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard-service/internal/aggregator"
	"dashboard-service/internal/dashboard"
	"dashboard-service/internal/model"
)

var (
	ErrNotReady = errors.New("dashboard data not loaded yet")
	ErrUpstream = errors.New("detection backend unavailable")
)

// Refresher runs one refresh cycle of the working dataset.
type Refresher interface {
	Refresh(ctx context.Context) (*model.Snapshot, error)
}

type DashboardService struct {
	store     *dashboard.Store
	refresher Refresher
	loc       *time.Location
	now       func() time.Time
}

func NewDashboardService(store *dashboard.Store, refresher Refresher, loc *time.Location, now func() time.Time) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		store:     store,
		refresher: refresher,
		loc:       loc,
		now:       now,
	}
}

func (s *DashboardService) Summary() (*model.SummaryView, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	view := s.summary(snap, s.clock())
	return &view, nil
}

func (s *DashboardService) Traffic(granularity model.Granularity) (*model.Histogram, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	hist := aggregator.BucketByPeriod(snap.Events, granularity, s.clock())
	return &hist, nil
}

// Hourly buckets today's detections by hour of day.
func (s *DashboardService) Hourly() (*model.Histogram, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	now := s.clock()
	today := aggregator.FilterEvents(snap.Events, model.EventFilter{Date: startOfDay(now)})
	hist := aggregator.BucketByPeriod(today, model.GranularityHour, now)
	return &hist, nil
}

func (s *DashboardService) Events(filter model.EventFilter) ([]model.DetectionEvent, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return aggregator.FilterEvents(snap.Events, filter), nil
}

func (s *DashboardService) Dashboard(granularity model.Granularity, filter model.EventFilter) (*model.DashboardView, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	now := s.clock()

	return &model.DashboardView{
		Summary:  s.summary(snap, now),
		Traffic:  aggregator.BucketByPeriod(snap.Events, granularity, now),
		Events:   aggregator.FilterEvents(snap.Events, filter),
		Filter:   filter,
		Status:   s.store.Status(),
		Rendered: now,
	}, nil
}

func (s *DashboardService) Refresh(ctx context.Context) (*model.SnapshotMeta, error) {
	snap, err := s.refresher.Refresh(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	meta := snap.Meta()
	return &meta, nil
}

func (s *DashboardService) Status() model.RefreshStatus {
	return s.store.Status()
}

// snapshot returns the current dataset. Before the first successful load a
// recorded fetch failure is reported as ErrUpstream so callers can show it.
func (s *DashboardService) snapshot() (*model.Snapshot, error) {
	snap, err := s.store.Current()
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, dashboard.ErrNotLoaded) {
		return nil, err
	}
	if lastErr := s.store.LastError(); lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
	}
	return nil, ErrNotReady
}

func (s *DashboardService) summary(snap *model.Snapshot, now time.Time) model.SummaryView {
	return model.SummaryView{
		Metrics:  aggregator.ComputeSummary(snap.Events, now),
		Upstream: snap.Statistics,
		Snapshot: snap.Meta(),
	}
}

func (s *DashboardService) clock() time.Time {
	return s.now().In(s.loc)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
