package routes

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ciphermarket/core"
	"ciphermarket/crypto"
	"ciphermarket/native/assets"
	"ciphermarket/native/market"
)

// marketViews serves read-only REST projections of node state. Mutations go
// through the JSON-RPC endpoint only.
type marketViews struct {
	node *core.Node
}

func newMarketViews(node *core.Node) *marketViews {
	return &marketViews{node: node}
}

func (v *marketViews) mount(r chi.Router) {
	r.Get("/listings", v.handleListings)
	r.Get("/listings/{id}", v.handleListing)
	r.Get("/listings/{id}/bids", v.handleBids)
	r.Get("/proceeds/{address}", v.handleProceeds)
	r.Get("/assets/{tokenId}", v.handleAsset)
	r.Get("/accounts/{address}/assets", v.handleAccountAssets)
}

type listingView struct {
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

type bidView struct {
	Index           uint64 `json:"index"`
	Bidder          string `json:"bidder"`
	EncryptedAmount string `json:"encryptedAmount"`
	CreatedAt       int64  `json:"createdAt"`
	Accepted        bool   `json:"accepted"`
}

func listingToView(l *market.Listing) listingView {
	out := listingView{
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

func (v *marketViews) handleListings(w http.ResponseWriter, r *http.Request) {
	count, err := v.node.ListingCount()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]listingView, 0, count)
	for id := uint64(1); id <= count; id++ {
		listing, err := v.node.GetListing(id)
		if err != nil {
			if errors.Is(err, market.ErrNotFound) {
				continue
			}
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		views = append(views, listingToView(listing))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"listings": views})
}

func (v *marketViews) handleListing(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "id")
	if !ok {
		return
	}
	listing, err := v.node.GetListing(id)
	if err != nil {
		writeMarketViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToView(listing))
}

func (v *marketViews) handleBids(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "id")
	if !ok {
		return
	}
	count, err := v.node.GetBidCount(id)
	if err != nil {
		writeMarketViewError(w, err)
		return
	}
	views := make([]bidView, 0, count)
	for index := uint64(0); index < count; index++ {
		bid, err := v.node.GetBid(id, index)
		if err != nil {
			writeMarketViewError(w, err)
			return
		}
		views = append(views, bidView{
			Index:           index,
			Bidder:          crypto.MustNewAddress(bid.Bidder).String(),
			EncryptedAmount: "0x" + hex.EncodeToString(bid.EncryptedAmount[:]),
			CreatedAt:       bid.CreatedAt,
			Accepted:        bid.Accepted,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bids": views})
}

func (v *marketViews) handleProceeds(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}
	balance, err := v.node.Proceeds(addr)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (v *marketViews) handleAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "tokenId")
	if !ok {
		return
	}
	owner, err := v.node.OwnerOf(id)
	if err != nil {
		if errors.Is(err, assets.ErrTokenNotFound) {
			writeJSONError(w, http.StatusNotFound, err)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokenId": id,
		"owner":   crypto.MustNewAddress(owner).String(),
	})
}

func (v *marketViews) handleAccountAssets(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}
	tokens, err := v.node.TokensOf(addr)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	if tokens == nil {
		tokens = []uint64{}
	}
	writeJSON(w, http.StatusOK, map[string][]uint64{"tokens": tokens})
}

func parseUintParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := chi.URLParam(r, name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return value, true
}

func parseAddressParam(w http.ResponseWriter, r *http.Request, name string) ([20]byte, bool) {
	addr, err := crypto.DecodeAddress(chi.URLParam(r, name))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return [20]byte{}, false
	}
	return addr.Raw(), true
}

func writeMarketViewError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, market.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSONError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
