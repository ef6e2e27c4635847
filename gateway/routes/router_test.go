package routes

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"ciphermarket/core"
	"ciphermarket/crypto"
	"ciphermarket/native/confidential"
	"ciphermarket/storage"
)

func newTestGateway(t *testing.T) (http.Handler, *core.Node, *confidential.Enclave) {
	t.Helper()
	enclave, err := confidential.NewEnclave()
	if err != nil {
		t.Fatalf("new enclave: %v", err)
	}
	node := core.NewNode(storage.NewMemDB(), enclave)
	handler := New(Config{Node: node})
	return handler, node, enclave
}

func testAddress(fill byte) ([20]byte, string) {
	var raw [20]byte
	for i := range raw {
		raw[i] = fill
	}
	return raw, crypto.MustNewAddress(raw).String()
}

func getJSON(t *testing.T, handler http.Handler, path string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if out != nil && recorder.Code == http.StatusOK {
		if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v (body %q)", path, err, recorder.Body.String())
		}
	}
	return recorder.Code
}

func seedListing(t *testing.T, node *core.Node, seller [20]byte, price int64) uint64 {
	t.Helper()
	tokenID, err := node.MintAsset(seller)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := node.ApproveAsset(seller, tokenID, node.RegistryAddress()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	id, err := node.CreateListing(seller, tokenID, big.NewInt(price))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return id
}

func TestHealthz(t *testing.T) {
	handler, _, _ := newTestGateway(t)
	if code := getJSON(t, handler, "/healthz", nil); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestListingViews(t *testing.T) {
	handler, node, _ := newTestGateway(t)
	seller, sellerBech := testAddress(0x01)
	id := seedListing(t, node, seller, 1000)

	var single listingView
	if code := getJSON(t, handler, "/v1/market/listings/1", &single); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if single.ID != id || single.Seller != sellerBech || single.Status != "active" {
		t.Fatalf("unexpected listing view: %+v", single)
	}

	var all struct {
		Listings []listingView `json:"listings"`
	}
	if code := getJSON(t, handler, "/v1/market/listings", &all); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(all.Listings) != 1 {
		t.Fatalf("expected one listing, got %d", len(all.Listings))
	}

	if code := getJSON(t, handler, "/v1/market/listings/42", nil); code != http.StatusNotFound {
		t.Fatalf("missing listing: expected 404, got %d", code)
	}
	if code := getJSON(t, handler, "/v1/market/listings/abc", nil); code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", code)
	}
}

func TestBidViewsExposeOnlyHandles(t *testing.T) {
	handler, node, enclave := newTestGateway(t)
	seller, _ := testAddress(0x01)
	bidder, bidderBech := testAddress(0x02)
	id := seedListing(t, node, seller, 1000)

	handle, proof, err := enclave.Encrypt(123456789, node.RegistryAddress(), bidder)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := node.PlaceBid(bidder, id, [32]byte(handle), proof); err != nil {
		t.Fatalf("place bid: %v", err)
	}

	var bids struct {
		Bids []bidView `json:"bids"`
	}
	if code := getJSON(t, handler, "/v1/market/listings/1/bids", &bids); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(bids.Bids) != 1 {
		t.Fatalf("expected one bid, got %d", len(bids.Bids))
	}
	if bids.Bids[0].Bidder != bidderBech {
		t.Fatalf("bidder mismatch: %s", bids.Bids[0].Bidder)
	}
	if len(bids.Bids[0].EncryptedAmount) != 2+64 {
		t.Fatalf("expected 0x-prefixed 32-byte handle, got %q", bids.Bids[0].EncryptedAmount)
	}
}

func TestProceedsAndAssetViews(t *testing.T) {
	handler, node, _ := newTestGateway(t)
	seller, sellerBech := testAddress(0x01)
	buyer, buyerBech := testAddress(0x02)
	id := seedListing(t, node, seller, 1000)
	if err := node.FundAccount(buyer, big.NewInt(5000)); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := node.BuyNow(buyer, id, big.NewInt(1000)); err != nil {
		t.Fatalf("buy: %v", err)
	}

	var proceeds struct {
		Balance string `json:"balance"`
	}
	if code := getJSON(t, handler, "/v1/market/proceeds/"+sellerBech, &proceeds); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if proceeds.Balance != "1000" {
		t.Fatalf("expected balance 1000, got %s", proceeds.Balance)
	}

	var asset struct {
		TokenID uint64 `json:"tokenId"`
		Owner   string `json:"owner"`
	}
	if code := getJSON(t, handler, "/v1/market/assets/1", &asset); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if asset.Owner != buyerBech {
		t.Fatalf("expected owner %s, got %s", buyerBech, asset.Owner)
	}
	if code := getJSON(t, handler, "/v1/market/assets/42", nil); code != http.StatusNotFound {
		t.Fatalf("missing asset: expected 404, got %d", code)
	}

	var owned struct {
		Tokens []uint64 `json:"tokens"`
	}
	if code := getJSON(t, handler, "/v1/market/accounts/"+buyerBech+"/assets", &owned); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(owned.Tokens) != 1 || owned.Tokens[0] != 1 {
		t.Fatalf("unexpected owned tokens: %v", owned.Tokens)
	}
	if code := getJSON(t, handler, "/v1/market/proceeds/garbage", nil); code != http.StatusBadRequest {
		t.Fatalf("bad address: expected 400, got %d", code)
	}
}
