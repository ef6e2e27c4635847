package market

// bidState is the slice of backing state the bid store needs. Bids are an
// append-only sequence per listing; indices are zero-based and stable once
// assigned.
type bidState interface {
	BidAppend(listingID uint64, bid *Bid) (uint64, error)
	BidGet(listingID, index uint64) (*Bid, bool)
	BidCount(listingID uint64) (uint64, error)
	BidMarkAccepted(listingID, index uint64) error
}

// BidStore records encrypted bids in insertion order. Amounts are opaque to
// the store, so insertion order is the only order it can ever expose; bids
// are never renumbered or removed.
type BidStore struct {
	state bidState
}

// NewBidStore binds a store to its backing state.
func NewBidStore(state bidState) *BidStore {
	return &BidStore{state: state}
}

// Append validates and records a new bid, returning its zero-based index.
func (s *BidStore) Append(listingID uint64, bid *Bid) (uint64, error) {
	sanitized, err := SanitizeBid(bid)
	if err != nil {
		return 0, err
	}
	return s.state.BidAppend(listingID, sanitized)
}

// Count returns the number of bids recorded for a listing.
func (s *BidStore) Count(listingID uint64) (uint64, error) {
	return s.state.BidCount(listingID)
}

// Get returns the bid at the given index.
func (s *BidStore) Get(listingID, index uint64) (*Bid, bool) {
	return s.state.BidGet(listingID, index)
}

// MarkAccepted flips the accepted flag on a stored bid. The flag is never
// unset once raised.
func (s *BidStore) MarkAccepted(listingID, index uint64) error {
	return s.state.BidMarkAccepted(listingID, index)
}
