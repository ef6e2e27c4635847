package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"ciphermarket/core/types"
	"ciphermarket/native/market"
	"ciphermarket/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	addr := testAddr(0x01)

	require.NoError(t, manager.PutAccount(addr, &types.Account{BalanceWei: big.NewInt(500)}))
	require.True(t, manager.Dirty())

	// The write is visible through the overlay before commit.
	account, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, 0, account.BalanceWei.Cmp(big.NewInt(500)))

	// Discard drops it again.
	manager.Discard()
	require.False(t, manager.Dirty())
	account, err = manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, 0, account.BalanceWei.Sign())

	// Committed writes survive a fresh manager over the same database.
	require.NoError(t, manager.PutAccount(addr, &types.Account{BalanceWei: big.NewInt(900)}))
	require.NoError(t, manager.Commit())
	require.False(t, manager.Dirty())

	reopened := NewManager(db)
	account, err = reopened.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, 0, account.BalanceWei.Cmp(big.NewInt(900)))
}

func TestAccountValidation(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	require.Error(t, manager.PutAccount(addr, nil))
	require.Error(t, manager.PutAccount(addr, &types.Account{BalanceWei: big.NewInt(-1)}))

	overflow := new(big.Int).Lsh(big.NewInt(1), 256)
	require.Error(t, manager.PutAccount(addr, &types.Account{BalanceWei: overflow}))
}

func TestProceedsRoundtrip(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x02)

	balance, err := manager.ProceedsGet(addr)
	require.NoError(t, err)
	require.Equal(t, 0, balance.Sign())

	require.NoError(t, manager.ProceedsPut(addr, big.NewInt(12345)))
	balance, err = manager.ProceedsGet(addr)
	require.NoError(t, err)
	require.Equal(t, 0, balance.Cmp(big.NewInt(12345)))

	require.Error(t, manager.ProceedsPut(addr, big.NewInt(-1)))
	require.Error(t, manager.ProceedsPut(addr, nil))
}

func TestListingLifecycleState(t *testing.T) {
	manager := newTestManager(t)

	count, err := manager.ListingCount()
	require.NoError(t, err)
	require.Zero(t, count)

	id, err := manager.ListingNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	listing := &market.Listing{
		ID:       id,
		Seller:   testAddr(0x01),
		AssetID:  7,
		PriceWei: big.NewInt(1000),
		Status:   market.ListingActive,
	}
	require.NoError(t, manager.ListingPut(listing))
	require.NoError(t, manager.SetOpenListingByAsset(7, id))

	stored, ok := manager.ListingGet(id)
	require.True(t, ok)
	require.Equal(t, listing.Seller, stored.Seller)
	require.Equal(t, market.ListingActive, stored.Status)

	open, ok := manager.OpenListingByAsset(7)
	require.True(t, ok)
	require.Equal(t, id, open)

	// Clearing the index with listing id zero removes the claim.
	require.NoError(t, manager.SetOpenListingByAsset(7, 0))
	_, ok = manager.OpenListingByAsset(7)
	require.False(t, ok)

	_, ok = manager.ListingGet(42)
	require.False(t, ok)

	next, err := manager.ListingNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
	count, err = manager.ListingCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestBidSequenceState(t *testing.T) {
	manager := newTestManager(t)
	handle := [32]byte{0xAB}

	count, err := manager.BidCount(1)
	require.NoError(t, err)
	require.Zero(t, count)

	first, err := manager.BidAppend(1, &market.Bid{Bidder: testAddr(0x02), EncryptedAmount: handle})
	require.NoError(t, err)
	require.Zero(t, first)
	second, err := manager.BidAppend(1, &market.Bid{Bidder: testAddr(0x03), EncryptedAmount: handle})
	require.NoError(t, err)
	require.Equal(t, uint64(1), second)

	count, err = manager.BidCount(1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	bid, ok := manager.BidGet(1, 0)
	require.True(t, ok)
	require.Equal(t, testAddr(0x02), bid.Bidder)
	require.False(t, bid.Accepted)

	require.NoError(t, manager.BidMarkAccepted(1, 0))
	bid, ok = manager.BidGet(1, 0)
	require.True(t, ok)
	require.True(t, bid.Accepted)

	_, ok = manager.BidGet(1, 5)
	require.False(t, ok)
	require.Error(t, manager.BidMarkAccepted(1, 5))
}
