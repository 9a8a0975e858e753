// Package ledger maintains account balances and nonces for every asset on
// the chain. A Ledger is owned by a single writer; readers receive sealed
// copies produced by Clone that are never mutated again.
package ledger

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Account represents the balances and nonce for an address. Accounts stored
// in a ledger are treated as immutable and replaced on every change.
type Account struct {
	Nonce    uint64
	Balances map[asset.Symbol]*uint256.Int
}

// Balance returns the balance for the asset, zero if none is held.
func (a Account) Balance(sym asset.Symbol) *uint256.Int {
	if v, exists := a.Balances[sym]; exists {
		return v.Clone()
	}
	return new(uint256.Int)
}

func (a Account) clone() *Account {
	cpy := Account{
		Nonce:    a.Nonce,
		Balances: make(map[asset.Symbol]*uint256.Int, len(a.Balances)),
	}
	for sym, v := range a.Balances {
		cpy.Balances[sym] = v
	}
	return &cpy
}

// =============================================================================

// Ledger manages the set of accounts.
type Ledger struct {
	accounts map[common.Address]*Account
}

// New constructs an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[common.Address]*Account),
	}
}

// Clone produces a copy of the ledger that can be modified without changing
// the accounts seen through the original.
func (l *Ledger) Clone() *Ledger {
	accounts := make(map[common.Address]*Account, len(l.accounts))
	for addr, acct := range l.accounts {
		accounts[addr] = acct
	}
	return &Ledger{accounts: accounts}
}

// Balance returns the balance of the asset for the address. Unknown
// addresses have a zero balance.
func (l *Ledger) Balance(addr common.Address, sym asset.Symbol) *uint256.Int {
	acct, exists := l.accounts[addr]
	if !exists {
		return new(uint256.Int)
	}
	return acct.Balance(sym)
}

// Nonce returns the number of transactions accepted from the address.
func (l *Ledger) Nonce(addr common.Address) uint64 {
	acct, exists := l.accounts[addr]
	if !exists {
		return 0
	}
	return acct.Nonce
}

// Account returns a copy of the account for the address.
func (l *Ledger) Account(addr common.Address) (Account, bool) {
	acct, exists := l.accounts[addr]
	if !exists {
		return Account{Balances: map[asset.Symbol]*uint256.Int{}}, false
	}
	return *acct.clone(), true
}

// Addresses returns the known addresses in ascending byte order.
func (l *Ledger) Addresses() []common.Address {
	addrs := make([]common.Address, 0, len(l.accounts))
	for addr := range l.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

// Credit adds the amount to the balance of the address.
func (l *Ledger) Credit(addr common.Address, sym asset.Symbol, amount *uint256.Int) error {
	j := l.Begin()
	if err := j.Credit(addr, sym, amount); err != nil {
		return err
	}
	j.Commit()
	return nil
}

// Debit subtracts the amount from the balance of the address.
func (l *Ledger) Debit(addr common.Address, sym asset.Symbol, amount *uint256.Int) error {
	j := l.Begin()
	if err := j.Debit(addr, sym, amount); err != nil {
		return err
	}
	j.Commit()
	return nil
}

// Supply returns the sum of all balances for the asset.
func (l *Ledger) Supply(sym asset.Symbol) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, acct := range l.accounts {
		v, exists := acct.Balances[sym]
		if !exists {
			continue
		}
		if _, overflow := total.AddOverflow(total, v); overflow {
			return nil, fault.New(fault.InternalFault, "%s supply exceeds 256 bits", sym)
		}
	}
	return total, nil
}

// Root returns a digest of every account, nonce, and balance. Two ledgers
// holding the same state always produce the same root.
func (l *Ledger) Root() common.Hash {
	var buf bytes.Buffer
	for _, addr := range l.Addresses() {
		acct := l.accounts[addr]

		buf.Write(addr[:])
		buf.Write(binary.BigEndian.AppendUint64(nil, acct.Nonce))
		for _, sym := range asset.All {
			v, exists := acct.Balances[sym]
			if !exists || v.IsZero() {
				continue
			}
			b := v.Bytes32()
			buf.WriteString(string(sym))
			buf.Write(b[:])
		}
	}
	return crypto.Keccak256Hash(buf.Bytes())
}
