// Package worker drives block production for the sequencer on a fixed
// cadence.
package worker

import (
	"sync"
	"time"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

// DefaultInterval is the block cadence used when none is configured.
const DefaultInterval = 3 * time.Second

// =============================================================================

// Worker manages the block production workflow for the sequencer.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	interval  time.Duration
	shut      chan struct{}
	produce   chan bool
	evHandler state.EventHandler
	onSealed  func(database.Block)
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. When onSealed is not nil it is
// called with every block the worker seals.
func Run(st *state.State, interval time.Duration, evHandler state.EventHandler, onSealed func(database.Block)) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:     st,
		interval:  interval,
		shut:      make(chan struct{}),
		produce:   make(chan bool, 1),
		evHandler: ev,
		onSealed:  onSealed,
	}

	// Register this worker with the state package.
	st.Worker = &w

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.sequencerOperations()
	}()

	<-hasStarted

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalProduceBlock requests a block be produced now instead of waiting
// for the next tick. If there is already a signal pending in the channel,
// just return since a block will be produced.
func (w *Worker) SignalProduceBlock() {
	select {
	case w.produce <- true:
	default:
	}
	w.evHandler("worker: SignalProduceBlock: produce signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
