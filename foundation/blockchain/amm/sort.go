package amm

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func sortedProviders(shares map[common.Address]*uint256.Int) []common.Address {
	providers := make([]common.Address, 0, len(shares))
	for addr := range shares {
		providers = append(providers, addr)
	}
	sort.Slice(providers, func(i, j int) bool {
		return bytes.Compare(providers[i][:], providers[j][:]) < 0
	})
	return providers
}
