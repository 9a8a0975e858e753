package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/pkg/errors"
)

// Blocks prints the headers of the blocks in the inclusive range. The range
// defaults to the latest block.
func Blocks(st *state.State, from string, to string) error {
	height := st.Height()

	first, err := blockNumber(from, height)
	if err != nil {
		return err
	}

	last := first
	if to != "" {
		if last, err = blockNumber(to, height); err != nil {
			return err
		}
	}

	if first > last {
		return errors.Errorf("invalid range %d..%d", first, last)
	}

	for num := first; num <= last && num <= height; num++ {
		block, err := st.GetBlock(num)
		if err != nil {
			return errors.Wrapf(err, "block %d", num)
		}

		ts := time.Unix(int64(block.Header.TimeStamp), 0).UTC()
		fmt.Printf("Block: %d  Hash: %s  Time: %s\n", block.Header.Number, block.Hash(), ts.Format(time.RFC3339))
		fmt.Printf("  Parent: %s  StateRoot: %s\n", block.Header.ParentHash, block.Header.StateRoot)
		fmt.Printf("  Trans: %d  Failed: %d  GasUsed: %d\n", block.Header.TxCount, block.Header.FailedCount, block.Header.GasUsed)

		for _, tx := range block.Trans {
			fmt.Printf("    %s  %s\n", tx.Hash(), tx)
		}
		for _, ftx := range block.Failed {
			fmt.Printf("    %s  %s  FAILED: %s\n", ftx.Hash(), ftx.Tx, ftx.Reason)
		}
	}

	return nil
}

func blockNumber(s string, latest uint64) (uint64, error) {
	if s == "" || s == "latest" {
		return latest, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "block number %q", s)
	}

	return n, nil
}
