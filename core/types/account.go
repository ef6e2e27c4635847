package types

import "math/big"

// Account tracks the native-value balance held by a marketplace identity.
// Balances stand in for the host ledger's payment primitive: payable
// operations debit the caller here and withdrawals credit it back.
type Account struct {
	Nonce      uint64   `json:"nonce"`
	BalanceWei *big.Int `json:"balanceWei"`
}

// EnsureBalances initialises nil balance fields so callers can mutate the
// account without nil checks.
func (a *Account) EnsureBalances() *Account {
	if a == nil {
		return &Account{BalanceWei: big.NewInt(0)}
	}
	if a.BalanceWei == nil {
		a.BalanceWei = big.NewInt(0)
	}
	return a
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{BalanceWei: big.NewInt(0)}
	}
	clone := &Account{Nonce: a.Nonce, BalanceWei: big.NewInt(0)}
	if a.BalanceWei != nil {
		clone.BalanceWei = new(big.Int).Set(a.BalanceWei)
	}
	return clone
}
