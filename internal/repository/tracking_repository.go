package repository

import (
	"context"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"dashboard-service/internal/model"
)

// TrackingRepository reads detection rows straight from the pipeline's
// tracking_data table. It never writes.
type TrackingRepository struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewTrackingRepository(db *gorm.DB, loc *time.Location, now func() time.Time) *TrackingRepository {
	if now == nil {
		now = time.Now
	}
	return &TrackingRepository{db: db, loc: loc, now: now}
}

type trackingRow struct {
	TrackID   int64
	CreatedAt time.Time
	Class     string
}

func (r *TrackingRepository) FetchEvents(ctx context.Context, q model.SourceQuery) (model.Batch, error) {
	var rows []trackingRow

	query := r.db.WithContext(ctx).
		Table("tracking_data td").
		Select("td.track_id AS track_id, td.created_at AS created_at, td.class AS class").
		Order("td.created_at DESC")

	if !q.Date.IsZero() {
		from, to := model.EventFilter{Date: q.Date.In(r.loc)}.DayRange()
		query = query.Where("td.created_at >= ? AND td.created_at < ?", from.UTC(), to.UTC())
	}
	if q.Category != "" {
		query = query.Where("td.class = ?", string(q.Category))
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return model.Batch{}, err
	}

	events := make([]model.DetectionEvent, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			skipped++
			continue
		}
		events = append(events, model.DetectionEvent{
			TrackID:    row.TrackID,
			Category:   model.Category(strings.TrimSpace(row.Class)),
			ObservedAt: row.CreatedAt,
		})
	}

	return model.Batch{Events: events, Skipped: skipped}, nil
}

func (r *TrackingRepository) FetchStatistics(ctx context.Context) (*model.UpstreamStatistics, error) {
	today := r.now().In(r.loc)
	from, to := model.EventFilter{Date: today}.DayRange()

	var stats struct {
		Total       int64
		Cars        int64
		Motorcycles int64
		Today       int64
	}

	err := r.db.WithContext(ctx).
		Table("tracking_data td").
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN td.class = ? THEN 1 ELSE 0 END), 0) AS cars,
			COALESCE(SUM(CASE WHEN td.class = ? THEN 1 ELSE 0 END), 0) AS motorcycles,
			COALESCE(SUM(CASE WHEN td.created_at >= ? AND td.created_at < ? THEN 1 ELSE 0 END), 0) AS today`,
			string(model.CategoryCar), string(model.CategoryMotorcycle), from.UTC(), to.UTC()).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	return &model.UpstreamStatistics{
		Total:       stats.Total,
		Cars:        stats.Cars,
		Motorcycles: stats.Motorcycles,
		AvgPerHour:  int64(math.Round(float64(stats.Today) / 24)),
	}, nil
}
