package market

// CustodyBridge adapts the external asset-ownership ledger. The registry
// never holds the asset itself: custody stays with the owner of record until
// a transfer executes as part of a Sold transition.
type CustodyBridge interface {
	// OwnerOf returns the current owner of record for the asset.
	OwnerOf(assetID uint64) ([20]byte, error)
	// IsApprovedOrOwner reports whether the given identity may move the
	// asset, either as its owner or as an approved operator.
	IsApprovedOrOwner(assetID uint64, caller [20]byte) (bool, error)
	// Transfer moves the asset from its current owner to the recipient.
	// It fails if from is not the owner or the transfer was not approved
	// to the registry.
	Transfer(assetID uint64, from, to [20]byte) error
}

// ProofVerifier is the slice of the confidential-compute service visible to
// the core: it attests that a ciphertext handle is well formed and bound to
// (registry, caller) without revealing the value.
type ProofVerifier interface {
	Verify(handle [32]byte, proof []byte, context [20]byte, caller [20]byte) bool
}
