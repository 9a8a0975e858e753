package genesis_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestLoad(t *testing.T) {
	t.Log("Given the need to load a genesis file.")
	{
		path := filepath.Join(t.TempDir(), "genesis.json")

		data, err := json.Marshal(genesis.Default())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the default genesis: %v", failed, err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write the file: %v", failed, err)
		}

		g, err := genesis.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the file: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the file.", success)

		if g.ChainID != 42069 || len(g.Pools) != 1 {
			t.Fatalf("\t%s\tShould read back the chain id and pools.", failed)
		}
		if genesis.Amount(g.Pools[0].Reserve1).Dec() != asset.Units(40_000).Dec() {
			t.Fatalf("\t%s\tShould read back the FLR reserve.", failed)
		}
		t.Logf("\t%s\tShould read back the genesis values.", success)
	}

	t.Log("Given the need to reject a bad genesis file.")
	{
		g := genesis.Default()
		g.Balances["not-an-address"] = map[asset.Symbol]string{asset.LYR: "1"}
		if err := g.Validate(); err == nil {
			t.Fatalf("\t%s\tShould reject an invalid address.", failed)
		}
		t.Logf("\t%s\tShould reject an invalid address.", success)

		g = genesis.Default()
		g.Pools[0].Asset1 = asset.LYR
		if err := g.Validate(); err == nil {
			t.Fatalf("\t%s\tShould reject a pool of one asset.", failed)
		}
		t.Logf("\t%s\tShould reject a pool of one asset.", success)
	}
}
