package state

import (
	"fmt"

	"ciphermarket/native/market"
)

// ListingCount returns the number of listing ids assigned so far.
func (m *Manager) ListingCount() (uint64, error) {
	return m.getUint64([]byte(keyListingCounter))
}

// ListingNextID assigns and returns the next listing id. Ids are 1-based and
// never reused.
func (m *Manager) ListingNextID() (uint64, error) {
	counter, err := m.getUint64([]byte(keyListingCounter))
	if err != nil {
		return 0, err
	}
	counter++
	m.putUint64([]byte(keyListingCounter), counter)
	return counter, nil
}

// ListingPut journals a listing record.
func (m *Manager) ListingPut(l *market.Listing) error {
	sanitized, err := market.SanitizeListing(l)
	if err != nil {
		return err
	}
	return m.putJSON(listingKey(sanitized.ID), sanitized)
}

// ListingGet loads a listing by id.
func (m *Manager) ListingGet(id uint64) (*market.Listing, bool) {
	listing := &market.Listing{}
	ok, err := m.getJSON(listingKey(id), listing)
	if err != nil || !ok {
		return nil, false
	}
	return listing.Clone(), true
}

// OpenListingByAsset returns the id of the open (Active or AwaitingPayment)
// listing currently claiming an asset, if any.
func (m *Manager) OpenListingByAsset(assetID uint64) (uint64, bool) {
	id, err := m.getUint64(openByAssetKey(assetID))
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// SetOpenListingByAsset records which listing holds the exclusive claim on an
// asset; a zero listing id clears the claim.
func (m *Manager) SetOpenListingByAsset(assetID, listingID uint64) error {
	m.putUint64(openByAssetKey(assetID), listingID)
	return nil
}

// BidAppend stores a bid at the next index for a listing and returns the
// index. Indices are zero-based and stable once assigned.
func (m *Manager) BidAppend(listingID uint64, bid *market.Bid) (uint64, error) {
	sanitized, err := market.SanitizeBid(bid)
	if err != nil {
		return 0, err
	}
	count, err := m.getUint64(bidCountKey(listingID))
	if err != nil {
		return 0, err
	}
	if err := m.putJSON(bidKey(listingID, count), sanitized); err != nil {
		return 0, err
	}
	m.putUint64(bidCountKey(listingID), count+1)
	return count, nil
}

// BidGet loads one bid on a listing.
func (m *Manager) BidGet(listingID, index uint64) (*market.Bid, bool) {
	bid := &market.Bid{}
	ok, err := m.getJSON(bidKey(listingID, index), bid)
	if err != nil || !ok {
		return nil, false
	}
	return bid.Clone(), true
}

// BidCount returns the number of bids stored for a listing.
func (m *Manager) BidCount(listingID uint64) (uint64, error) {
	return m.getUint64(bidCountKey(listingID))
}

// BidMarkAccepted raises the accepted flag on a stored bid. The flag is
// never lowered again.
func (m *Manager) BidMarkAccepted(listingID, index uint64) error {
	bid, ok := m.BidGet(listingID, index)
	if !ok {
		return fmt.Errorf("state: bid %d/%d not found", listingID, index)
	}
	bid.Accepted = true
	return m.putJSON(bidKey(listingID, index), bid)
}
