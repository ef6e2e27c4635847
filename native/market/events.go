package market

import (
	"encoding/hex"
	"strconv"

	"ciphermarket/core/types"
)

const (
	EventTypeListingCreated    = "market.listing.created"
	EventTypeListingCancelled  = "market.listing.cancelled"
	EventTypeListingBought     = "market.listing.bought"
	EventTypeBidPlaced         = "market.bid.placed"
	EventTypeBidAccepted       = "market.bid.accepted"
	EventTypeBidSettled        = "market.bid.settled"
	EventTypeProceedsWithdrawn = "market.proceeds.withdrawn"
)

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatHandle(handle [32]byte) string {
	return "0x" + hex.EncodeToString(handle[:])
}

func newListingEvent(eventType string, l *Listing) *types.Event {
	attrs := map[string]string{
		"listingId": strconv.FormatUint(l.ID, 10),
		"seller":    formatAddress(l.Seller),
		"assetId":   strconv.FormatUint(l.AssetID, 10),
		"price":     l.PriceWei.String(),
		"status":    l.Status.String(),
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

// NewListingCreatedEvent returns the canonical payload for a new listing.
func NewListingCreatedEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeListingCreated, l)
}

// NewListingCancelledEvent returns the payload emitted when the seller
// cancels an active listing.
func NewListingCancelledEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeListingCancelled, l)
}

// NewListingBoughtEvent returns the payload emitted on a buy-now sale.
func NewListingBoughtEvent(l *Listing, buyer [20]byte) *types.Event {
	evt := newListingEvent(EventTypeListingBought, l)
	evt.Attributes["buyer"] = formatAddress(buyer)
	return evt
}

// NewBidPlacedEvent returns the payload emitted when an encrypted bid is
// appended. Only the opaque handle is exposed, never a cleartext amount.
func NewBidPlacedEvent(l *Listing, index uint64, bid *Bid) *types.Event {
	evt := newListingEvent(EventTypeBidPlaced, l)
	evt.Attributes["bidIndex"] = strconv.FormatUint(index, 10)
	evt.Attributes["bidder"] = formatAddress(bid.Bidder)
	evt.Attributes["encryptedAmount"] = formatHandle(bid.EncryptedAmount)
	return evt
}

// NewBidAcceptedEvent returns the payload emitted when the seller accepts a
// bid and the listing moves to awaiting payment.
func NewBidAcceptedEvent(l *Listing, index uint64) *types.Event {
	evt := newListingEvent(EventTypeBidAccepted, l)
	evt.Attributes["bidIndex"] = strconv.FormatUint(index, 10)
	evt.Attributes["acceptedBidder"] = formatAddress(l.AcceptedBidder)
	evt.Attributes["acceptedPrice"] = l.AcceptedPriceWei.String()
	return evt
}

// NewBidSettledEvent returns the payload emitted when the accepted bidder
// pays the revealed price.
func NewBidSettledEvent(l *Listing) *types.Event {
	evt := newListingEvent(EventTypeBidSettled, l)
	evt.Attributes["acceptedBidder"] = formatAddress(l.AcceptedBidder)
	evt.Attributes["acceptedPrice"] = l.AcceptedPriceWei.String()
	return evt
}

// NewProceedsWithdrawnEvent returns the payload emitted when a seller drains
// their accrued balance.
func NewProceedsWithdrawnEvent(seller [20]byte, amount string) *types.Event {
	return &types.Event{Type: EventTypeProceedsWithdrawn, Attributes: map[string]string{
		"seller": formatAddress(seller),
		"amount": amount,
	}}
}
