package market

import "fmt"

// Operation names a mutating entry point guarded by the authorization table.
type Operation string

const (
	OpCreateListing    Operation = "createListing"
	OpCancelListing    Operation = "cancelListing"
	OpBuyNow           Operation = "buyNow"
	OpPlaceBid         Operation = "placeBid"
	OpAcceptBid        Operation = "acceptBid"
	OpSettleAccepted   Operation = "settleAcceptedBid"
	OpWithdrawProceeds Operation = "withdrawProceeds"
)

// policyFn decides whether the caller holds the role the operation requires,
// given a snapshot of the listing under mutation. Predicates never inspect
// the listing status; state legality is checked separately by the engine.
type policyFn func(caller [20]byte, listing *Listing) error

var policies = map[Operation]policyFn{
	// Listing creation and withdrawal act on the caller's own resources.
	OpCreateListing:    func([20]byte, *Listing) error { return nil },
	OpWithdrawProceeds: func([20]byte, *Listing) error { return nil },
	// Any party may bid; the proof binds the ciphertext to the caller.
	OpPlaceBid: func([20]byte, *Listing) error { return nil },
	OpCancelListing: func(caller [20]byte, l *Listing) error {
		if l == nil || caller != l.Seller {
			return ErrUnauthorized
		}
		return nil
	},
	OpAcceptBid: func(caller [20]byte, l *Listing) error {
		if l == nil || caller != l.Seller {
			return ErrUnauthorized
		}
		return nil
	},
	OpBuyNow: func(caller [20]byte, l *Listing) error {
		if l == nil || caller == l.Seller {
			return ErrUnauthorized
		}
		return nil
	},
	OpSettleAccepted: func(caller [20]byte, l *Listing) error {
		if l == nil || caller != l.AcceptedBidder {
			return ErrUnauthorized
		}
		return nil
	},
}

// Authorize runs the predicate registered for the operation. Unknown
// operations are denied outright so a missing table entry fails closed.
func Authorize(op Operation, caller [20]byte, listing *Listing) error {
	policy, ok := policies[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrUnauthorized, op)
	}
	return policy(caller, listing)
}
