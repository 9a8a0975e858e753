package worker

import (
	"context"
	"errors"
	"time"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

// CORE NOTE: Block production is managed by this function which runs on its
// own goroutine. The node starts a loop on the configured interval. Every
// tick seals a block, even an empty one, so the chain advances at a steady
// cadence. Once an internal fault halts the state, the loop keeps running
// but no further blocks are attempted.

// sequencerOperations handles block production.
func (w *Worker) sequencerOperations() {
	w.evHandler("worker: sequencerOperations: G started")
	defer w.evHandler("worker: sequencerOperations: G completed")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Start this on an interval mark: ex. MM.00, MM.03, MM.06.
	w.resetTicker(ticker, w.interval)

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runSequencerOperation()
			}
		case <-w.produce:
			if !w.isShutdown() {
				w.runSequencerOperation()
			}
		case <-w.shut:
			w.evHandler("worker: sequencerOperations: received shut signal")
			return
		}

		// Reset the ticker for the next cycle.
		w.resetTicker(ticker, 0)
	}
}

// runSequencerOperation seals the next block from the mempool.
func (w *Worker) runSequencerOperation() {
	if err := w.state.Halted(); err != nil {
		w.evHandler("worker: runSequencerOperation: HALTED: %s", err)
		return
	}

	// The context lets a shutdown abandon a block that has not started.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	t := time.Now()
	block, err := w.state.ProduceBlock(ctx)
	duration := time.Since(t)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrHalted):
			w.evHandler("worker: runSequencerOperation: PRODUCE: HALTED: %s", err)
		case ctx.Err() != nil:
			w.evHandler("worker: runSequencerOperation: PRODUCE: CANCEL: complete")
		default:
			w.evHandler("worker: runSequencerOperation: PRODUCE: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runSequencerOperation: PRODUCE: blk[%d] txs[%d] failed[%d] duration[%v]",
		block.Header.Number, block.Header.TxCount, block.Header.FailedCount, duration)

	if w.onSealed != nil {
		w.onSealed(block)
	}
}

// =============================================================================

// resetTicker makes sure the next tick happens on the described cadence.
func (w *Worker) resetTicker(ticker *time.Ticker, waitOnInterval time.Duration) {
	nextTick := time.Now().Add(w.interval).Round(waitOnInterval)
	diff := time.Until(nextTick)
	if diff <= 0 {
		diff = w.interval
	}
	ticker.Reset(diff)
}
