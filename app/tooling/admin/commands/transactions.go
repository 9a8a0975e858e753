package commands

import (
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/pkg/errors"
)

// Transactions prints the sealed transactions of an account, newest first.
func Transactions(st *state.State, account string) error {
	if account == "" {
		return errors.New("an account is required")
	}

	addr, err := parseAddress(account)
	if err != nil {
		return err
	}

	for _, atx := range st.TransactionsByAccount(addr, 0) {
		status := "success"
		if atx.Failed {
			status = "failed: " + atx.Reason
		}

		tx := atx.BlockTx
		fmt.Printf("Block: %d  Hash: %s  Type: %s  Asset: %s  Value: %s  %s\n",
			atx.BlockNumber, tx.Hash(), tx.Type, tx.Asset, tx.Value, status)
	}

	return nil
}
