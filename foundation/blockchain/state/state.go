// Package state is the core API for the blockchain and implements all the
// business rules and processing. A single writer produces blocks while any
// number of readers query the latest sealed snapshot.
package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/mempool"
)

// ErrHalted is returned when block production has been stopped by an
// internal fault.
var ErrHalted = errors.New("block production halted")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for driving block production.
type Worker interface {
	Shutdown()
}

// Phase represents the step of block production the sequencer is in.
type Phase int32

// The set of phases. A tick moves Idle, Draining, Applying, Sealing and
// back to Idle.
const (
	PhaseIdle Phase = iota
	PhaseDraining
	PhaseApplying
	PhaseSealing
)

// String implements the fmt.Stringer interface.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDraining:
		return "draining"
	case PhaseApplying:
		return "applying"
	case PhaseSealing:
		return "sealing"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Beneficiary common.Address
	Genesis     genesis.Genesis
	Storage     database.Serializer
	Mempool     mempool.Config
	DevMode     bool
	EvHandler   EventHandler
	Now         func() time.Time
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	beneficiary common.Address
	genesis     genesis.Genesis
	devMode     bool
	evHandler   EventHandler
	now         func() time.Time

	mempool *mempool.Mempool
	db      *database.Database

	snap  atomic.Pointer[snapshot]
	phase atomic.Int32
	halt  atomic.Pointer[error]

	Worker Worker
}

// New constructs a new blockchain for data management. Blocks held by the
// storage are replayed to rebuild the ledger and pools.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	snap, err := genesisSnapshot(cfg.Genesis)
	if err != nil {
		return nil, err
	}

	s := State{
		beneficiary: cfg.Beneficiary,
		genesis:     cfg.Genesis,
		devMode:     cfg.DevMode,
		evHandler:   ev,
		now:         now,
		db:          database.New(snap.block, cfg.Storage),
	}

	// Replay every stored block through the same apply path used by the
	// sequencer and check the state roots match.
	snap, lastSeq, err := s.replay(snap)
	if err != nil {
		return nil, err
	}

	mpCfg := cfg.Mempool
	mpCfg.LastSeq = lastSeq
	s.mempool = mempool.New(mpCfg)

	s.snap.Store(snap)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database file is properly closed.
	return s.db.Close()
}

// Reset removes every stored block and queued transaction and publishes the
// genesis state again. A halted state stays halted.
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := genesisSnapshot(s.genesis)
	if err != nil {
		return err
	}

	if err := s.db.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.mempool.Truncate()
	s.snap.Store(snap)

	s.evHandler("state: Reset: chain reset to genesis")

	return nil
}

// Phase returns the current phase of block production.
func (s *State) Phase() Phase {
	return Phase(s.phase.Load())
}

// Halted returns the error that halted block production, nil when the
// sequencer is healthy.
func (s *State) Halted() error {
	if errp := s.halt.Load(); errp != nil {
		return *errp
	}
	return nil
}

// =============================================================================

// genesisSnapshot applies the genesis balances and pools to build block 0.
func genesisSnapshot(gen genesis.Genesis) (*snapshot, error) {
	w, err := genesisWorld(gen)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	block := database.Block{
		Header: database.BlockHeader{
			Number:    0,
			TimeStamp: uint64(gen.Date.UTC().Unix()),
			StateRoot: w.root(),
			GasLimit:  gen.GasLimit,
		},
	}

	return &snapshot{world: w, block: block}, nil
}

func (s *State) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

func (s *State) halted(err error) error {
	s.halt.CompareAndSwap(nil, &err)
	s.evHandler("state: HALTED: %s", err)
	return fmt.Errorf("%w: %w", ErrHalted, err)
}

// replay reads the stored blocks and rebuilds the world on top of the
// genesis snapshot.
func (s *State) replay(snap *snapshot) (*snapshot, uint64, error) {
	var lastSeq uint64

	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, 0, fmt.Errorf("reading stored block: %w", err)
		}

		if err := block.ValidateBlock(snap.block, s.evHandler); err != nil {
			return nil, 0, fmt.Errorf("stored block %d: %w", block.Header.Number, err)
		}

		w := snap.world.clone()
		for i, tx := range block.Trans {
			if err := w.apply(tx, block.Header.Beneficiary); err != nil {
				return nil, 0, fmt.Errorf("stored block %d: tx %d: %w", block.Header.Number, i, err)
			}
			lastSeq = max(lastSeq, tx.Seq)
		}
		for _, ftx := range block.Failed {
			lastSeq = max(lastSeq, ftx.Tx.Seq)
		}

		if root := w.root(); root != block.Header.StateRoot {
			return nil, 0, fmt.Errorf("stored block %d: state root mismatch, got %s, exp %s", block.Header.Number, root, block.Header.StateRoot)
		}

		if err := s.db.Index(block); err != nil {
			return nil, 0, err
		}

		snap = snap.next(w, block)
	}

	s.evHandler("state: replay: height[%d]", snap.block.Header.Number)

	return snap, lastSeq, nil
}
