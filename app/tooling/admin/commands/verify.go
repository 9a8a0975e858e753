package commands

import (
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

// Verify reports the tip of the chain. Open has already replayed every block
// and checked each state root.
func Verify(st *state.State) error {
	block := st.LatestBlock()
	stats := st.Stats()

	fmt.Printf("Height:       %d\n", block.Header.Number)
	fmt.Printf("Hash:         %s\n", block.Hash())
	fmt.Printf("StateRoot:    %s\n", block.Header.StateRoot)
	fmt.Printf("Transactions: %d\n", stats.TotalTransactions)
	fmt.Printf("Failed:       %d\n", stats.FailedTransactions)
	fmt.Printf("GasUsed:      %d\n", stats.TotalGasUsed)
	fmt.Printf("AvgBlockTime: %s\n", stats.AvgBlockTime())

	return nil
}
