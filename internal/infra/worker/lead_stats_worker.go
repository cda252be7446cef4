package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

const statsWindow = 24 * time.Hour

// StatsSink receives the per-status lead counts.
type StatsSink interface {
	SetLeadsByStatus(status string, n int)
}

// LeadStatsWorker periodically publishes lead counts for the last 24 hours.
type LeadStatsWorker struct {
	repo         entity.LeadStatsRepository
	sink         StatsSink
	tickInterval time.Duration
	now          func() time.Time
}

func NewLeadStatsWorker(repo entity.LeadStatsRepository, sink StatsSink, interval time.Duration) *LeadStatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LeadStatsWorker{
		repo:         repo,
		sink:         sink,
		tickInterval: interval,
		now:          time.Now,
	}
}

func (w *LeadStatsWorker) Start(ctx context.Context) {
	zap.L().Info("lead stats worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("lead stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh writes every status, including zero counts, so stale gauge values
// never linger.
func (w *LeadStatsWorker) refresh(ctx context.Context) {
	counts, err := w.repo.CountByStatusSince(ctx, w.now().Add(-statsWindow))
	if err != nil {
		zap.L().Warn("lead stats query failed", zap.Error(err))
		return
	}

	for _, status := range []entity.CallStatus{entity.CallStatusCompleted, entity.CallStatusAbandoned, entity.CallStatusVoicemail} {
		w.sink.SetLeadsByStatus(string(status), counts[status])
	}
}
