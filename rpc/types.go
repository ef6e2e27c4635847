package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"ciphermarket/crypto"
	"ciphermarket/native/market"
)

const jsonRPCVersion = "2.0"

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type listingJSON struct {
	ID             uint64  `json:"id"`
	Seller         string  `json:"seller"`
	AssetID        uint64  `json:"assetId"`
	Price          string  `json:"price"`
	Status         string  `json:"status"`
	AcceptedBidder *string `json:"acceptedBidder,omitempty"`
	AcceptedPrice  string  `json:"acceptedPrice"`
	CreatedAt      int64   `json:"createdAt"`
	UpdatedAt      int64   `json:"updatedAt"`
}

type bidJSON struct {
	Index           uint64 `json:"index"`
	Bidder          string `json:"bidder"`
	EncryptedAmount string `json:"encryptedAmount"`
	CreatedAt       int64  `json:"createdAt"`
	Accepted        bool   `json:"accepted"`
	Cancelled       bool   `json:"cancelled"`
}

func formatListing(l *market.Listing) listingJSON {
	out := listingJSON{
		ID:            l.ID,
		Seller:        crypto.MustNewAddress(l.Seller).String(),
		AssetID:       l.AssetID,
		Price:         l.PriceWei.String(),
		Status:        l.Status.String(),
		AcceptedPrice: l.AcceptedPriceWei.String(),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	var zero [20]byte
	if l.AcceptedBidder != zero {
		bidder := crypto.MustNewAddress(l.AcceptedBidder).String()
		out.AcceptedBidder = &bidder
	}
	return out
}

func formatBid(index uint64, b *market.Bid) bidJSON {
	return bidJSON{
		Index:           index,
		Bidder:          crypto.MustNewAddress(b.Bidder).String(),
		EncryptedAmount: "0x" + hex.EncodeToString(b.EncryptedAmount[:]),
		CreatedAt:       b.CreatedAt,
		Accepted:        b.Accepted,
		Cancelled:       b.Cancelled,
	}
}

func parseAddress(raw string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

func parsePositiveBigInt(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount must not be empty")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", raw)
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func parseHandle(raw string) ([32]byte, error) {
	var handle [32]byte
	decoded, err := parseHexBytes(raw)
	if err != nil {
		return handle, err
	}
	if len(decoded) != 32 {
		return handle, fmt.Errorf("handle must be 32 bytes, got %d", len(decoded))
	}
	copy(handle[:], decoded)
	return handle, nil
}

func parseHexBytes(raw string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("hex payload must not be empty")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return decoded, nil
}
