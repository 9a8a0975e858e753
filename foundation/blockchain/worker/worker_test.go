package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/memory"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestSequencer(t *testing.T) {
	t.Log("Given the need to produce blocks on a cadence.")
	{
		st, err := state.New(state.Config{
			Beneficiary: common.HexToAddress("0x9999999999999999999999999999999999999999"),
			Genesis:     genesis.Default(),
			Storage:     memory.New(),
			DevMode:     true,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		var sealed atomic.Uint64
		w := worker.Run(st, 50*time.Millisecond, nil, func(database.Block) { sealed.Add(1) })

		alice := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
		bob := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

		tx, err := st.SubmitTransaction(state.Submission{
			Tx: database.SignedTx{
				Tx: database.Tx{
					ChainID:  42069,
					Type:     database.TxTransfer,
					From:     alice,
					To:       bob,
					Asset:    asset.LYR,
					Value:    asset.Units(1).ToBig(),
					GasPrice: 1_000_000_000,
				},
			},
			AssignNonce: true,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}

		w.SignalProduceBlock()

		included := waitFor(func() bool {
			rec, err := st.Transaction(tx.Hash())
			return err == nil && rec.Status == state.TxSuccess
		})
		if !included {
			t.Fatalf("\t%s\tShould include the transaction in a block.", failed)
		}
		t.Logf("\t%s\tShould include the transaction in a block.", success)

		height := st.Height()
		if !waitFor(func() bool { return st.Height() > height }) {
			t.Fatalf("\t%s\tShould keep producing empty blocks.", failed)
		}
		t.Logf("\t%s\tShould keep producing empty blocks.", success)

		if got := sealed.Load(); got == 0 || got > st.Height() {
			t.Fatalf("\t%s\tShould report each sealed block, got %d at height %d.", failed, got, st.Height())
		}
		t.Logf("\t%s\tShould report each sealed block.", success)

		if err := st.Shutdown(); err != nil {
			t.Fatalf("\t%s\tShould shut down cleanly: %v", failed, err)
		}
		t.Logf("\t%s\tShould shut down cleanly.", success)

		height = st.Height()
		time.Sleep(200 * time.Millisecond)
		if st.Height() != height {
			t.Fatalf("\t%s\tShould stop producing after shutdown.", failed)
		}
		t.Logf("\t%s\tShould stop producing after shutdown.", success)
	}
}
