package mempool_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var (
	alice = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	bob   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	carol = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func newTx(from common.Address, nonce uint64) database.SignedTx {
	return database.SignedTx{
		Tx: database.Tx{
			ChainID: 42069,
			Nonce:   nonce,
			Type:    database.TxTransfer,
			From:    from,
			To:      carol,
			Asset:   asset.LYR,
			Value:   big.NewInt(1),
		},
	}
}

func zeroNonces(common.Address) uint64 { return 0 }

func TestFIFO(t *testing.T) {
	t.Log("Given the need to drain transactions in arrival order.")
	{
		mp := mempool.New(mempool.Config{})
		now := time.Now()

		order := []database.SignedTx{newTx(bob, 0), newTx(alice, 0), newTx(bob, 1), newTx(alice, 1)}
		var hashes []common.Hash
		for i, tx := range order {
			btx, err := mp.Submit(tx, 0, false, now)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, i, err)
			}
			hashes = append(hashes, btx.Hash())
		}
		t.Logf("\t%s\tShould be able to submit transactions.", success)

		ready, stale := mp.Drain(100, 1_000_000, zeroNonces, now)
		if len(ready) != 4 || len(stale) != 0 {
			t.Fatalf("\t%s\tShould drain all ready transactions, got %d/%d.", failed, len(ready), len(stale))
		}
		for i, tx := range ready {
			if tx.Hash() != hashes[i] {
				t.Fatalf("\t%s\tTest %d:\tShould keep arrival order.", failed, i)
			}
		}
		t.Logf("\t%s\tShould keep arrival order.", success)

		if mp.Count() != 0 {
			t.Fatalf("\t%s\tShould leave the queue empty.", failed)
		}
		t.Logf("\t%s\tShould leave the queue empty.", success)
	}
}

func TestNonceGaps(t *testing.T) {
	t.Log("Given the need to hold back transactions with a nonce gap.")
	{
		mp := mempool.New(mempool.Config{StaleAfter: time.Minute})
		now := time.Now()

		mp.Submit(newTx(alice, 2), 0, false, now)
		mp.Submit(newTx(alice, 0), 0, false, now)
		mp.Submit(newTx(bob, 0), 0, false, now)

		ready, _ := mp.Drain(100, 1_000_000, zeroNonces, now)
		if len(ready) != 2 || ready[0].From != alice || ready[0].Nonce != 0 || ready[1].From != bob {
			t.Fatalf("\t%s\tShould drain only the transactions without a gap.", failed)
		}
		t.Logf("\t%s\tShould drain only the transactions without a gap.", success)

		if mp.Count() != 1 {
			t.Fatalf("\t%s\tShould hold back the gapped transaction.", failed)
		}
		t.Logf("\t%s\tShould hold back the gapped transaction.", success)

		if n := mp.NextNonce(alice, 1); n != 1 {
			t.Fatalf("\t%s\tShould report the gap as the next nonce, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould report the gap as the next nonce.", success)

		mp.Submit(newTx(alice, 1), 1, false, now)
		ready, _ = mp.Drain(100, 1_000_000, func(common.Address) uint64 { return 1 }, now)
		if len(ready) != 1 || ready[0].Nonce != 1 {
			t.Fatalf("\t%s\tShould release the transaction that fills the gap.", failed)
		}
		t.Logf("\t%s\tShould release the transaction that fills the gap.", success)

		ready, _ = mp.Drain(100, 1_000_000, func(common.Address) uint64 { return 2 }, now)
		if len(ready) != 1 || ready[0].Nonce != 2 {
			t.Fatalf("\t%s\tShould release the held transaction on the next drain.", failed)
		}
		t.Logf("\t%s\tShould release the held transaction on the next drain.", success)
	}

	t.Log("Given the need to expire transactions that wait too long.")
	{
		mp := mempool.New(mempool.Config{StaleAfter: time.Minute})
		mp.Submit(newTx(alice, 5), 0, false, time.Now().Add(-2*time.Minute))

		ready, stale := mp.Drain(100, 1_000_000, zeroNonces, time.Now())
		if len(ready) != 0 || len(stale) != 1 {
			t.Fatalf("\t%s\tShould expire the gapped transaction, got %d/%d.", failed, len(ready), len(stale))
		}
		if mp.Count() != 0 {
			t.Fatalf("\t%s\tShould remove the stale transaction.", failed)
		}
		t.Logf("\t%s\tShould expire the gapped transaction.", success)
	}
}

func TestSubmitLimits(t *testing.T) {
	t.Log("Given the need to reject transactions at submit.")
	{
		mp := mempool.New(mempool.Config{Capacity: 2, MaxNonceGap: 4})
		now := time.Now()

		if _, err := mp.Submit(newTx(alice, 2), 3, false, now); !errors.Is(err, fault.InvalidNonce) {
			t.Fatalf("\t%s\tShould reject a used nonce: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a used nonce.", success)

		if _, err := mp.Submit(newTx(alice, 9), 3, false, now); !errors.Is(err, fault.InvalidTransaction) {
			t.Fatalf("\t%s\tShould reject a nonce too far ahead: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a nonce too far ahead.", success)

		a, _ := mp.Submit(newTx(alice, 0), 3, true, now)
		b, _ := mp.Submit(newTx(alice, 0), 3, true, now)
		if a.Nonce != 3 || b.Nonce != 4 {
			t.Fatalf("\t%s\tShould assign consecutive nonces, got %d and %d.", failed, a.Nonce, b.Nonce)
		}
		t.Logf("\t%s\tShould assign consecutive nonces.", success)

		if _, err := mp.Submit(newTx(bob, 0), 0, false, now); !errors.Is(err, fault.InvalidTransaction) {
			t.Fatalf("\t%s\tShould reject when full: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject when full.", success)

		if _, ok := mp.Get(b.Hash()); !ok {
			t.Fatalf("\t%s\tShould find a queued transaction by hash.", failed)
		}
		t.Logf("\t%s\tShould find a queued transaction by hash.", success)
	}
}

func TestDrainBounds(t *testing.T) {
	t.Log("Given the need to bound a block by count and gas.")
	{
		mp := mempool.New(mempool.Config{})
		now := time.Now()
		for i := uint64(0); i < 5; i++ {
			mp.Submit(newTx(alice, i), 0, false, now)
		}

		ready, _ := mp.Drain(2, 1_000_000, zeroNonces, now)
		if len(ready) != 2 || mp.Count() != 3 {
			t.Fatalf("\t%s\tShould take at most 2 transactions.", failed)
		}
		t.Logf("\t%s\tShould take at most 2 transactions.", success)

		ready, _ = mp.Drain(100, 21_000, func(common.Address) uint64 { return 2 }, now)
		if len(ready) != 1 || ready[0].Nonce != 2 {
			t.Fatalf("\t%s\tShould take only what fits the gas limit.", failed)
		}
		t.Logf("\t%s\tShould take only what fits the gas limit.", success)

		dup := newTx(alice, 3)
		mp.Submit(dup, 3, false, now)
		ready, _ = mp.Drain(100, 1_000_000, func(common.Address) uint64 { return 3 }, now)
		if len(ready) != 3 || ready[0].Nonce != 3 || ready[1].Nonce != 4 || ready[2].Nonce != 3 {
			t.Fatalf("\t%s\tShould release duplicate nonces for the builder to reject.", failed)
		}
		t.Logf("\t%s\tShould release duplicate nonces for the builder to reject.", success)
	}
}

func TestLookup(t *testing.T) {
	t.Log("Given the need to find queued transactions by hash.")
	{
		mp := mempool.New(mempool.Config{})
		now := time.Now()

		var queued []database.BlockTx
		for i, tx := range []database.SignedTx{newTx(alice, 0), newTx(bob, 0), newTx(bob, 2)} {
			btx, err := mp.Submit(tx, 0, false, now)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, i, err)
			}
			queued = append(queued, btx)
		}

		for i, btx := range queued {
			got, exists := mp.Get(btx.Hash())
			if !exists || got.Seq != btx.Seq {
				t.Fatalf("\t%s\tTest %d:\tShould find the queued transaction.", failed, i)
			}
		}
		t.Logf("\t%s\tShould find every queued transaction.", success)

		mp.Drain(100, 1_000_000, zeroNonces, now)

		for i, btx := range queued[:2] {
			if _, exists := mp.Get(btx.Hash()); exists {
				t.Fatalf("\t%s\tTest %d:\tShould not find a drained transaction.", failed, i)
			}
		}
		t.Logf("\t%s\tShould not find drained transactions.", success)

		if _, exists := mp.Get(queued[2].Hash()); !exists {
			t.Fatalf("\t%s\tShould still find the held back transaction.", failed)
		}
		t.Logf("\t%s\tShould still find the held back transaction.", success)

		mp.Truncate()

		if _, exists := mp.Get(queued[2].Hash()); exists || mp.Count() != 0 {
			t.Fatalf("\t%s\tShould forget everything after truncating.", failed)
		}
		t.Logf("\t%s\tShould forget everything after truncating.", success)
	}
}
