package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// ProduceBlock drains the mempool, applies the transactions in arrival
// order, and seals the result as the next block. A block is produced even
// when there is nothing to apply. An internal fault halts production and
// no block is sealed.
func (s *State) ProduceBlock(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.setPhase(PhaseIdle)

	if err := s.Halted(); err != nil {
		return database.Block{}, fmt.Errorf("%w: %w", ErrHalted, err)
	}

	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	snap := s.snap.Load()
	now := s.now()

	// -------------------------------------------------------------------------
	// Draining

	s.setPhase(PhaseDraining)

	ready, stale := s.mempool.Drain(int(s.genesis.TransPerBlock), s.genesis.GasLimit, snap.world.ledger.Nonce, now)

	s.evHandler("state: ProduceBlock: drained: ready[%d] stale[%d]", len(ready), len(stale))

	// -------------------------------------------------------------------------
	// Applying

	s.setPhase(PhaseApplying)

	w := snap.world.clone()
	trans := make([]database.BlockTx, 0, len(ready))
	var failed []database.FailedTx

	for _, tx := range ready {
		err := w.apply(tx, s.beneficiary)

		switch {
		case err == nil:
			trans = append(trans, tx)

		case fault.IsInternal(err):
			return database.Block{}, s.halted(fmt.Errorf("applying tx %s: %w", tx.Hash(), err))

		default:
			s.evHandler("state: ProduceBlock: tx[%s] failed: %s", tx, err)
			failed = append(failed, newFailedTx(tx, err))
		}
	}

	for _, tx := range stale {
		err := fault.New(fault.StaleNonce, "nonce %d gap not filled within the stale period", tx.Nonce)
		failed = append(failed, newFailedTx(tx, err))
	}

	// -------------------------------------------------------------------------
	// Sealing

	s.setPhase(PhaseSealing)

	if err := w.check(); err != nil {
		return database.Block{}, s.halted(err)
	}

	block := database.NewBlock(snap.block, s.beneficiary, uint64(now.UTC().Unix()), s.genesis.GasLimit, w.root(), trans, failed)

	if err := s.db.Write(block); err != nil {
		return database.Block{}, s.halted(fmt.Errorf("writing block %d: %w", block.Header.Number, err))
	}

	s.snap.Store(snap.next(w, block))

	s.blockEvent(block)

	return block, nil
}

// =============================================================================

func newFailedTx(tx database.BlockTx, err error) database.FailedTx {
	kind := fault.KindOf(err)

	reason := err.Error()
	var fe *fault.Error
	if errors.As(err, &fe) {
		reason = fe.Msg
	}

	return database.FailedTx{
		Tx:     tx,
		Kind:   kind,
		Reason: reason,
	}
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("{error: %q}", err.Error()))
	}

	blockTransJSON, err := json.Marshal(block.Trans)
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("{error: %q}", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"header":%s,"trans":%s}`, block.Hash(), string(blockHeaderJSON), string(blockTransJSON))
}
