package state

import "encoding/binary"

// Key layout for the marketplace state. Every bucket carries its own prefix
// so unrelated records can never collide in the flat keyspace.
const (
	prefixAccount      = "accounts/"
	prefixListing      = "market/listing/"
	keyListingCounter  = "market/listing-counter"
	prefixOpenByAsset  = "market/open-asset/"
	prefixBid          = "market/bid/"
	prefixBidCount     = "market/bid-count/"
	prefixProceeds     = "market/proceeds/"
	prefixToken        = "assets/token/"
	keyTokenCounter    = "assets/token-counter"
	prefixMintedToken  = "assets/minted/"
	prefixOwnedTokens  = "assets/owned/"
)

func u64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func accountKey(addr [20]byte) []byte {
	return append([]byte(prefixAccount), addr[:]...)
}

func listingKey(id uint64) []byte {
	return append([]byte(prefixListing), u64Bytes(id)...)
}

func openByAssetKey(assetID uint64) []byte {
	return append([]byte(prefixOpenByAsset), u64Bytes(assetID)...)
}

func bidKey(listingID, index uint64) []byte {
	key := append([]byte(prefixBid), u64Bytes(listingID)...)
	return append(key, u64Bytes(index)...)
}

func bidCountKey(listingID uint64) []byte {
	return append([]byte(prefixBidCount), u64Bytes(listingID)...)
}

func proceedsKey(addr [20]byte) []byte {
	return append([]byte(prefixProceeds), addr[:]...)
}

func tokenKey(id uint64) []byte {
	return append([]byte(prefixToken), u64Bytes(id)...)
}

func mintedTokenKey(owner [20]byte) []byte {
	return append([]byte(prefixMintedToken), owner[:]...)
}

func ownedTokensKey(owner [20]byte) []byte {
	return append([]byte(prefixOwnedTokens), owner[:]...)
}
