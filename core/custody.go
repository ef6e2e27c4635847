package core

import (
	"errors"
	"fmt"

	"ciphermarket/native/assets"
	"ciphermarket/native/market"
)

// custodyBridge adapts the asset ledger to the market engine's custody
// contract. Transfers execute with the registry as operator, which is why a
// seller must approve the registry before listing.
type custodyBridge struct {
	ledger   *assets.Ledger
	registry [20]byte
}

func (b *custodyBridge) OwnerOf(assetID uint64) ([20]byte, error) {
	owner, err := b.ledger.OwnerOf(assetID)
	if errors.Is(err, assets.ErrTokenNotFound) {
		return [20]byte{}, fmt.Errorf("%w: asset %d", market.ErrNotFound, assetID)
	}
	return owner, err
}

func (b *custodyBridge) IsApprovedOrOwner(assetID uint64, caller [20]byte) (bool, error) {
	approved, err := b.ledger.IsApprovedOrOwner(assetID, caller)
	if errors.Is(err, assets.ErrTokenNotFound) {
		return false, fmt.Errorf("%w: asset %d", market.ErrNotFound, assetID)
	}
	return approved, err
}

func (b *custodyBridge) Transfer(assetID uint64, from, to [20]byte) error {
	err := b.ledger.Transfer(b.registry, assetID, from, to)
	switch {
	case errors.Is(err, assets.ErrNotAuthorized):
		return fmt.Errorf("%w: asset %d", market.ErrApprovalMissing, assetID)
	case errors.Is(err, assets.ErrTokenNotFound):
		return fmt.Errorf("%w: asset %d", market.ErrNotFound, assetID)
	default:
		return err
	}
}
