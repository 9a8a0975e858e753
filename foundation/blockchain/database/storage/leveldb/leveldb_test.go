package leveldb_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/leveldb"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestSerializer(t *testing.T) {
	t.Log("Given the need to persist blocks.")
	{
		ser, err := leveldb.New(t.TempDir())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
		}
		defer ser.Close()
		t.Logf("\t%s\tShould be able to open storage.", success)

		tx := database.Tx{
			ChainID: 42069,
			Type:    database.TxSwap,
			From:    common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
			Asset:   asset.LYR,
			Pair:    "LYR-FLR",
			Value:   new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil),
		}
		trans := []database.BlockTx{database.NewBlockTx(database.SignedTx{Tx: tx}, 1, 1_700_000_000_000)}

		var written []database.Block
		parent := database.Block{}
		for i := 0; i < 3; i++ {
			b := database.NewBlock(parent, common.HexToAddress("0x9999999999999999999999999999999999999999"), uint64(1_700_000_000+i), 1_000_000, common.Hash{byte(i)}, trans, nil)
			if err := ser.Write(database.NewBlockData(b)); err != nil {
				t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, b.Header.Number, err)
			}
			written = append(written, b)
			parent = b
		}
		t.Logf("\t%s\tShould be able to write blocks.", success)

		var n int
		iter := ser.ForEach()
		for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
			if err != nil {
				t.Fatalf("\t%s\tShould be able to read block: %v", failed, err)
			}

			block, err := database.ToBlock(blockData)
			if err != nil {
				t.Fatalf("\t%s\tShould decode to the same hash: %v", failed, err)
			}
			if block.Hash() != written[n].Hash() {
				t.Fatalf("\t%s\tShould read back block %d.", failed, n+1)
			}
			if block.Trans[0].Hash() != trans[0].Hash() {
				t.Fatalf("\t%s\tShould read back the same transaction.", failed)
			}
			n++
		}
		if n != 3 {
			t.Fatalf("\t%s\tShould iterate the 3 blocks, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould iterate the stored blocks in order.", success)

		if err := ser.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset: %v", failed, err)
		}
		iter = ser.ForEach()
		iter.Next()
		if !iter.Done() {
			t.Fatalf("\t%s\tShould have no blocks after a reset.", failed)
		}
		t.Logf("\t%s\tShould have no blocks after a reset.", success)
	}
}
