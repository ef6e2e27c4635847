package assets

import (
	"encoding/hex"
	"strconv"

	"ciphermarket/core/types"
)

const (
	EventTypeMinted      = "assets.minted"
	EventTypeApproved    = "assets.approved"
	EventTypeTransferred = "assets.transferred"
)

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// NewMintedEvent returns the payload emitted when a token is minted.
func NewMintedEvent(t *Token) *types.Event {
	return &types.Event{Type: EventTypeMinted, Attributes: map[string]string{
		"tokenId": strconv.FormatUint(t.ID, 10),
		"owner":   formatAddress(t.Owner),
	}}
}

// NewApprovedEvent returns the payload emitted when a transfer operator is
// set or cleared for a token.
func NewApprovedEvent(t *Token) *types.Event {
	return &types.Event{Type: EventTypeApproved, Attributes: map[string]string{
		"tokenId":  strconv.FormatUint(t.ID, 10),
		"owner":    formatAddress(t.Owner),
		"operator": formatAddress(t.Approved),
	}}
}

// NewTransferredEvent returns the payload emitted when custody moves.
func NewTransferredEvent(t *Token, from [20]byte) *types.Event {
	return &types.Event{Type: EventTypeTransferred, Attributes: map[string]string{
		"tokenId": strconv.FormatUint(t.ID, 10),
		"from":    formatAddress(from),
		"to":      formatAddress(t.Owner),
	}}
}
