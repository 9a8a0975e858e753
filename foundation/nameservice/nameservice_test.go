package nameservice_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestNameService(t *testing.T) {
	t.Log("Given the need to resolve the development accounts.")
	{
		ns, err := nameservice.New("../../zblock/accounts")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the accounts folder: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the accounts folder.", success)

		alice := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

		if name := ns.Lookup(alice); name != "alice" {
			t.Fatalf("\t%s\tShould find alice by address, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould find alice by address.", success)

		addr, err := ns.Resolve("alice")
		if err != nil || addr != alice {
			t.Fatalf("\t%s\tShould resolve the name alice: %v %s", failed, err, addr)
		}
		t.Logf("\t%s\tShould resolve the name alice.", success)

		if _, err := ns.Resolve("mallory"); err == nil {
			t.Fatalf("\t%s\tShould fail to resolve an unknown name.", failed)
		}
		t.Logf("\t%s\tShould fail to resolve an unknown name.", success)

		unknown := common.HexToAddress("0x0000000000000000000000000000000000000001")
		if name := ns.Lookup(unknown); name != unknown.Hex() {
			t.Fatalf("\t%s\tShould fall back to the hex address, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould fall back to the hex address.", success)
	}
}
