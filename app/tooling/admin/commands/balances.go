package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

// Balances prints the current set of balances.
func Balances(st *state.State, account string) error {
	addrs := st.Accounts()
	if account != "" {
		addr, err := parseAddress(account)
		if err != nil {
			return err
		}
		addrs = []common.Address{addr}
	}

	fmt.Printf("LatestBlockHash: %s\n\n", st.LatestBlock().Hash())

	for _, addr := range addrs {
		fmt.Printf("Account: %s  Nonce: %d\n", addr, st.Nonce(addr))
		bals := st.Balances(addr)
		for _, sym := range asset.All {
			fmt.Printf("  %-5s %s\n", sym, asset.Decimal(bals[sym]))
		}
	}

	return nil
}

// Pools prints the reserves of every pool.
func Pools(st *state.State) {
	for _, pool := range st.Pools() {
		fmt.Printf("Pool: %s  Address: %s\n", pool.Pair, pool.Address)
		fmt.Printf("  %-5s %s\n", pool.Asset0, asset.Decimal(pool.Reserve0))
		fmt.Printf("  %-5s %s\n", pool.Asset1, asset.Decimal(pool.Reserve1))
		fmt.Printf("  Shares %s\n", asset.Decimal(pool.TotalSupply))
	}
}
