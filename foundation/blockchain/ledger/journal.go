package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Journal records the changes made while applying a single transaction.
// Reads see the journal's own writes. Nothing reaches the ledger until
// Commit is called, so a journal that is dropped leaves no trace.
type Journal struct {
	ledger *Ledger
	dirty  map[common.Address]*Account
}

// Begin starts a new journal against the ledger.
func (l *Ledger) Begin() *Journal {
	return &Journal{
		ledger: l,
		dirty:  make(map[common.Address]*Account),
	}
}

// Commit publishes the journal's changes into the ledger.
func (j *Journal) Commit() {
	for addr, acct := range j.dirty {
		j.ledger.accounts[addr] = acct
	}
	j.dirty = make(map[common.Address]*Account)
}

// Balance returns the balance of the asset as seen by this journal.
func (j *Journal) Balance(addr common.Address, sym asset.Symbol) *uint256.Int {
	if acct, exists := j.dirty[addr]; exists {
		return acct.Balance(sym)
	}
	return j.ledger.Balance(addr, sym)
}

// Nonce returns the nonce as seen by this journal.
func (j *Journal) Nonce(addr common.Address) uint64 {
	if acct, exists := j.dirty[addr]; exists {
		return acct.Nonce
	}
	return j.ledger.Nonce(addr)
}

// Credit adds the amount to the balance. Accounts are created on first
// credit.
func (j *Journal) Credit(addr common.Address, sym asset.Symbol, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fault.New(fault.InvalidTransaction, "credit amount must be positive")
	}

	acct := j.account(addr)
	bal, overflow := new(uint256.Int).AddOverflow(acct.Balance(sym), amount)
	if overflow {
		return fault.New(fault.InternalFault, "%s balance of %s overflows", sym, addr)
	}
	acct.Balances[sym] = bal

	return nil
}

// Debit subtracts the amount from the balance.
func (j *Journal) Debit(addr common.Address, sym asset.Symbol, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fault.New(fault.InvalidTransaction, "debit amount must be positive")
	}

	have := j.Balance(addr, sym)
	if have.Lt(amount) {
		return fault.New(fault.InsufficientBalance, "%s balance %s, need %s", sym, have.Dec(), amount.Dec())
	}

	acct := j.account(addr)
	acct.Balances[sym] = new(uint256.Int).Sub(have, amount)

	return nil
}

// Transfer moves the amount between two addresses.
func (j *Journal) Transfer(from, to common.Address, sym asset.Symbol, amount *uint256.Int) error {
	if err := j.Debit(from, sym, amount); err != nil {
		return err
	}
	return j.Credit(to, sym, amount)
}

// CheckNonce validates the nonce is the next one expected for the address.
func (j *Journal) CheckNonce(addr common.Address, nonce uint64) error {
	exp := j.Nonce(addr)
	if nonce != exp {
		return fault.New(fault.InvalidNonce, "got %d, exp %d", nonce, exp)
	}
	return nil
}

// IncrementNonce records an accepted transaction for the address.
func (j *Journal) IncrementNonce(addr common.Address) {
	acct := j.account(addr)
	acct.Nonce++
}

// account returns the journal's private copy of the account for writing.
func (j *Journal) account(addr common.Address) *Account {
	if acct, exists := j.dirty[addr]; exists {
		return acct
	}

	var acct *Account
	if base, exists := j.ledger.accounts[addr]; exists {
		acct = base.clone()
	} else {
		acct = &Account{Balances: make(map[asset.Symbol]*uint256.Int)}
	}

	j.dirty[addr] = acct
	return acct
}
