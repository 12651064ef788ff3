package streampay

import (
	"context"
	"time"

	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/stream"
)

// RunCron executes one auto-deposit pass: every Active stream with the
// flag set is topped up by the amount one cron interval will release,
// booked as a deposit by the stream's owner. Callable only when the
// engine was built with WithCron.
//
// A failing stream is logged and skipped; one bad row never aborts the
// pass.
func (e *Engine) RunCron(ctx context.Context) (int, error) {
	if e.cronInterval <= 0 {
		return 0, ErrCronDisabled
	}

	start := time.Now()
	auto := true
	streams, err := e.store.ListStreams(ctx, "", stream.ListOpts{
		Status:      stream.StatusActive,
		AutoDeposit: &auto,
	})
	if err != nil {
		return 0, err
	}

	ticksPerPass := uint64(e.cronInterval / e.tick)
	if ticksPerPass == 0 {
		ticksPerPass = 1
	}

	now := e.clock()
	toppedUp := 0
	for _, s := range streams {
		topUp := s.TokensPerTick.SaturatingMul(ticksPerPass)
		if topUp.IsZero() {
			continue
		}

		s.Accrue(now, e.tick)
		s.Balance = s.Balance.Add(topUp)
		s.UpdatedAt = now

		if err := e.store.UpdateStream(ctx, s); err != nil {
			e.logger.Error("cron top-up failed",
				"stream_id", s.ID.String(),
				"error", err,
			)
			continue
		}
		if err := e.appendAction(ctx, s.ID, s.OwnerID, action.Deposit(topUp), now); err != nil {
			e.logger.Error("cron top-up log failed",
				"stream_id", s.ID.String(),
				"error", err,
			)
			continue
		}

		e.plugins.EmitDeposit(ctx, s.ID.String(), uint64(topUp))
		toppedUp++
	}

	elapsed := time.Since(start)
	e.plugins.EmitCronPass(ctx, toppedUp, elapsed)
	e.logger.Debug("cron pass complete",
		"topped_up", toppedUp,
		"candidates", len(streams),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return toppedUp, nil
}

// cronWorker drives RunCron on a fixed interval until Stop.
func (e *Engine) cronWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cronInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return

		case <-ticker.C:
			if _, err := e.RunCron(ctx); err != nil {
				e.logger.Error("cron pass failed", "error", err)
			}
		}
	}
}
