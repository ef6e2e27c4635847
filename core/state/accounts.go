package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"ciphermarket/core/types"
)

// GetAccount loads the account for an address, returning a zero-balance
// account when none has been stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	account := &types.Account{}
	ok, err := m.getJSON(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).EnsureBalances(), nil
	}
	return account.EnsureBalances(), nil
}

// PutAccount journals the account after validating the balance fits the
// native 256-bit value range and is non-negative.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	clone := account.Clone()
	if clone.BalanceWei.Sign() < 0 {
		return fmt.Errorf("state: account balance must be non-negative")
	}
	if _, overflow := uint256.FromBig(clone.BalanceWei); overflow {
		return fmt.Errorf("state: account balance overflows uint256")
	}
	return m.putJSON(accountKey(addr), clone)
}

// ProceedsGet returns the accrued proceeds balance for an identity.
func (m *Manager) ProceedsGet(addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.getJSON(proceedsKey(addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// ProceedsPut journals the proceeds balance for an identity. Balances can
// never go negative and must fit the native value range.
func (m *Manager) ProceedsPut(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: proceeds balance must be non-negative")
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return fmt.Errorf("state: proceeds balance overflows uint256")
	}
	return m.putJSON(proceedsKey(addr), amount)
}
