// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time                          `json:"date"`
	ChainID       uint64                             `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	TransPerBlock uint16                             `json:"trans_per_block"` // The maximum number of transactions that can be in a block.
	GasLimit      uint64                             `json:"gas_limit"`       // The maximum gas that can be used by a block.
	GasPrice      uint64                             `json:"gas_price"`       // Default fee per unit of gas in LYR base units.
	Balances      map[string]map[asset.Symbol]string `json:"balances"`        // Starting balances in base units by address and asset.
	Pools         []Pool                             `json:"pools"`           // Liquidity pools created at genesis.
}

// Pool describes a liquidity pool created at genesis. The reserves are
// minted to the pool and the bootstrap shares are assigned to the provider.
type Pool struct {
	Asset0   asset.Symbol `json:"asset0"`
	Asset1   asset.Symbol `json:"asset1"`
	Reserve0 string       `json:"reserve0"`
	Reserve1 string       `json:"reserve1"`
	Provider string       `json:"provider"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.ChainID == 0 {
		return fmt.Errorf("chain id is required")
	}

	if g.TransPerBlock == 0 {
		return fmt.Errorf("trans per block must be positive")
	}

	if g.GasLimit == 0 {
		return fmt.Errorf("gas limit must be positive")
	}

	for addr, balances := range g.Balances {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid address %q", addr)
		}
		for sym, amount := range balances {
			if !sym.Valid() {
				return fmt.Errorf("unknown asset %q for %s", sym, addr)
			}
			if _, err := asset.ParseAmount(amount); err != nil {
				return fmt.Errorf("balance for %s: %w", addr, err)
			}
		}
	}

	for _, p := range g.Pools {
		if !p.Asset0.Valid() || !p.Asset1.Valid() || p.Asset0 == p.Asset1 {
			return fmt.Errorf("invalid pool assets %s-%s", p.Asset0, p.Asset1)
		}
		if !common.IsHexAddress(p.Provider) {
			return fmt.Errorf("invalid pool provider %q", p.Provider)
		}
		if _, err := asset.ParseAmount(p.Reserve0); err != nil {
			return fmt.Errorf("pool reserve0: %w", err)
		}
		if _, err := asset.ParseAmount(p.Reserve1); err != nil {
			return fmt.Errorf("pool reserve1: %w", err)
		}
	}

	return nil
}

// Default returns the development genesis: Alice holds 1,000,000 of each
// asset and the LYR-FLR pool starts with 1,000,000 LYR and 40,000 FLR.
func Default() Genesis {
	million := asset.Units(1_000_000).Dec()

	return Genesis{
		Date:          time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       42069,
		TransPerBlock: 100,
		GasLimit:      30_000_000,
		GasPrice:      1_000_000_000,
		Balances: map[string]map[asset.Symbol]string{
			"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266": {
				asset.LYR:  million,
				asset.FLR:  million,
				asset.USDT: million,
			},
		},
		Pools: []Pool{
			{
				Asset0:   asset.LYR,
				Asset1:   asset.FLR,
				Reserve0: million,
				Reserve1: asset.Units(40_000).Dec(),
				Provider: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			},
		},
	}
}

// Amount parses a validated genesis amount.
func Amount(s string) *uint256.Int {
	v, err := asset.ParseAmount(s)
	if err != nil {
		return new(uint256.Int)
	}
	return v
}
