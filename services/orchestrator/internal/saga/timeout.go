package saga

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/models"
)

// TimeoutMonitor periodically fails sagas that stayed non-terminal past
// their deadline. Participants compensate off the resulting orders.failed
// event, so a saga stuck waiting on a lost reply still releases its stock.
type TimeoutMonitor struct {
	Orc      *Orchestrator
	Log      zerolog.Logger
	Interval time.Duration
}

func (m *TimeoutMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := m.Orc.SweepTimeouts(ctx); err != nil {
				m.Log.Error().Err(err).Msg("timeout sweep failed")
			} else if n > 0 {
				m.Log.Info().Int("timed_out", n).Msg("timeout sweep")
			}
		}
	}
}

// SweepTimeouts fails every saga whose deadline has passed and returns how
// many were failed.
func (o *Orchestrator) SweepTimeouts(ctx context.Context) (int, error) {
	o.lock()
	all, err := o.store.List(ctx)
	o.unlock()
	if err != nil {
		return 0, err
	}

	now := o.now()
	timedOut := 0
	for _, s := range all {
		if s.State.Terminal() || s.TimeoutAt.After(now) {
			continue
		}
		o.lock()
		// Re-read under the lock, a handler may have finished it meanwhile.
		cur, err := o.store.Get(ctx, s.OrderID)
		if err == nil && !cur.State.Terminal() && !cur.TimeoutAt.After(now) {
			if err := o.fail(ctx, cur, models.ReasonProcessingTimeout); err != nil {
				o.log.Error().Err(err).Str("order_id", cur.OrderID).Msg("timeout fail")
			} else {
				timedOut++
			}
		}
		o.unlock()
	}
	return timedOut, nil
}
