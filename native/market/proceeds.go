package market

import (
	"fmt"
	"math/big"
)

// proceedsState is the slice of backing state the escrow ledger needs: a
// mapping from seller identity to an accrued balance.
type proceedsState interface {
	ProceedsGet(addr [20]byte) (*big.Int, error)
	ProceedsPut(addr [20]byte, amount *big.Int) error
}

// ProceedsLedger accrues sale revenue per seller. Balances are credit-only
// except for the withdrawal path, which zeroes the full balance before any
// value leaves the ledger. Partial withdrawals are not exposed.
type ProceedsLedger struct {
	state proceedsState
}

// NewProceedsLedger binds a ledger to its backing state.
func NewProceedsLedger(state proceedsState) *ProceedsLedger {
	return &ProceedsLedger{state: state}
}

// Balance returns the accrued balance for an identity.
func (l *ProceedsLedger) Balance(addr [20]byte) (*big.Int, error) {
	balance, err := l.state.ProceedsGet(addr)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// Credit adds a sale amount to the seller's accrued balance.
func (l *ProceedsLedger) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("market: proceeds credit must be non-negative")
	}
	balance, err := l.Balance(addr)
	if err != nil {
		return err
	}
	return l.state.ProceedsPut(addr, new(big.Int).Add(balance, amount))
}

// Withdraw zeroes the caller's balance and returns the amount that was held.
// Zeroing happens before the caller is paid; that ordering closes the
// re-entrancy window and must not be changed.
func (l *ProceedsLedger) Withdraw(addr [20]byte) (*big.Int, error) {
	balance, err := l.Balance(addr)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if err := l.state.ProceedsPut(addr, big.NewInt(0)); err != nil {
		return nil, err
	}
	return balance, nil
}
