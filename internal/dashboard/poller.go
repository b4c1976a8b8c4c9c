package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"dashboard-service/internal/model"
)

// Source is anything that can deliver a full detection dataset.
type Source interface {
	FetchEvents(ctx context.Context, q model.SourceQuery) (model.Batch, error)
	FetchStatistics(ctx context.Context) (*model.UpstreamStatistics, error)
}

type Poller struct {
	source   Source
	store    *Store
	interval time.Duration
	query    model.SourceQuery
	now      func() time.Time
	log      zerolog.Logger

	group singleflight.Group
}

func NewPoller(source Source, store *Store, interval time.Duration, fetchLimit int, log zerolog.Logger, now func() time.Time) *Poller {
	if now == nil {
		now = time.Now
	}
	return &Poller{
		source:   source,
		store:    store,
		interval: interval,
		query:    model.SourceQuery{Limit: fetchLimit},
		now:      now,
		log:      log,
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
// Failed cycles are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refreshAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller stopping")
			return
		case <-ticker.C:
			p.refreshAndLog(ctx)
		}
	}
}

func (p *Poller) refreshAndLog(ctx context.Context) {
	if _, err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn().Err(err).Msg("dataset refresh failed, keeping previous snapshot")
	}
}

// Refresh runs one fetch cycle. Concurrent callers share the cycle already in
// flight, so refreshes never overlap. The dataset is swapped only when both
// the events and the statistics were fetched.
//
// The shared cycle is detached from the caller: a caller that gives up gets
// ctx.Err() back while the cycle runs to completion, bounded by the poll
// interval.
func (p *Poller) Refresh(ctx context.Context) (*model.Snapshot, error) {
	ch := p.group.DoChan("refresh", func() (interface{}, error) {
		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.interval)
		defer cancel()
		return p.refresh(cycleCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Snapshot), nil
	}
}

func (p *Poller) refresh(ctx context.Context) (*model.Snapshot, error) {
	started := p.now()

	batch, err := p.source.FetchEvents(ctx, p.query)
	if err != nil {
		err = fmt.Errorf("fetch events: %w", err)
		p.store.RecordFailure(started, err)
		return nil, err
	}

	stats, err := p.source.FetchStatistics(ctx)
	if err != nil {
		err = fmt.Errorf("fetch statistics: %w", err)
		p.store.RecordFailure(started, err)
		return nil, err
	}

	snap := &model.Snapshot{
		ID:         uuid.New(),
		FetchedAt:  started,
		Events:     batch.Events,
		Skipped:    batch.Skipped,
		Statistics: stats,
	}
	p.store.Replace(snap)

	level := zerolog.DebugLevel
	if snap.Skipped > 0 {
		level = zerolog.WarnLevel
	}
	p.log.WithLevel(level).
		Str("snapshot_id", snap.ID.String()).
		Int("events", len(snap.Events)).
		Int("skipped", snap.Skipped).
		Msg("dataset replaced")

	return snap, nil
}
