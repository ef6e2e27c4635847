package market

import (
	"fmt"
	"math/big"
)

// ListingStatus represents the lifecycle states of a listing. ListingNone is
// the implicit state of unassigned ids and is never stored.
type ListingStatus uint8

const (
	ListingNone ListingStatus = iota
	ListingActive
	ListingAwaitingPayment
	ListingSold
	ListingCancelled
)

// Valid reports whether the status is one of the storable values.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingAwaitingPayment, ListingSold, ListingCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the listing can never transition again.
func (s ListingStatus) Terminal() bool {
	return s == ListingSold || s == ListingCancelled
}

// String renders the canonical status label used in events and RPC payloads.
func (s ListingStatus) String() string {
	switch s {
	case ListingNone:
		return "none"
	case ListingActive:
		return "active"
	case ListingAwaitingPayment:
		return "awaiting_payment"
	case ListingSold:
		return "sold"
	case ListingCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Listing captures a seller's offer to sell one uniquely-owned asset, either
// at the fixed buy-now price or to a privately accepted encrypted bid. Ids are
// 1-based, assigned monotonically and never reused.
type Listing struct {
	ID               uint64
	Seller           [20]byte
	AssetID          uint64
	PriceWei         *big.Int
	Status           ListingStatus
	AcceptedBidder   [20]byte
	AcceptedPriceWei *big.Int
	CreatedAt        int64
	UpdatedAt        int64
}

// Clone returns a deep copy of the listing so callers can safely mutate the
// copy without affecting the stored instance.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.PriceWei != nil {
		clone.PriceWei = new(big.Int).Set(l.PriceWei)
	} else {
		clone.PriceWei = big.NewInt(0)
	}
	if l.AcceptedPriceWei != nil {
		clone.AcceptedPriceWei = new(big.Int).Set(l.AcceptedPriceWei)
	} else {
		clone.AcceptedPriceWei = big.NewInt(0)
	}
	return &clone
}

// Open reports whether the listing still holds an exclusive claim on its
// asset (Active or AwaitingPayment).
func (l *Listing) Open() bool {
	if l == nil {
		return false
	}
	return l.Status == ListingActive || l.Status == ListingAwaitingPayment
}

// SanitizeListing validates the supplied listing and returns a cloned
// instance with non-nil amount fields. The original value is not mutated.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("market: nil listing")
	}
	clone := l.Clone()
	if clone.ID == 0 {
		return nil, fmt.Errorf("market: listing id must be positive")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("market: invalid listing status: %d", clone.Status)
	}
	if clone.PriceWei.Sign() <= 0 {
		return nil, fmt.Errorf("market: listing price must be positive")
	}
	if clone.AcceptedPriceWei.Sign() < 0 {
		return nil, fmt.Errorf("market: accepted price must be non-negative")
	}
	if clone.Status == ListingActive && clone.AcceptedPriceWei.Sign() != 0 {
		return nil, fmt.Errorf("market: active listing cannot carry an accepted price")
	}
	return clone, nil
}

// Bid is a buyer's confidential offer attached to a listing. The amount is an
// opaque 32-byte ciphertext handle; the cleartext never enters the core. The
// Cancelled field is reserved: no operation currently sets it.
type Bid struct {
	Bidder          [20]byte
	EncryptedAmount [32]byte
	CreatedAt       int64
	Cancelled       bool
	Accepted        bool
}

// Clone returns a copy of the bid.
func (b *Bid) Clone() *Bid {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// SanitizeBid validates the supplied bid and returns a clone. A bid with the
// reserved Cancelled flag set is rejected rather than silently honoured.
func SanitizeBid(b *Bid) (*Bid, error) {
	if b == nil {
		return nil, fmt.Errorf("market: nil bid")
	}
	if b.Cancelled {
		return nil, fmt.Errorf("market: bid cancellation is not supported")
	}
	var zero [32]byte
	if b.EncryptedAmount == zero {
		return nil, fmt.Errorf("market: bid is missing its ciphertext handle")
	}
	return b.Clone(), nil
}
