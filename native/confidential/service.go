// Package confidential models the encrypted-value service the marketplace
// depends on. The core only ever sees an opaque 32-byte handle plus a proof
// of well-formedness; cleartext amounts exist solely on this side of the
// boundary, released to a requester who presents a valid time-bounded,
// signature-backed authorization.
package confidential

import "errors"

// Handle is an opaque fixed-size reference to an encrypted value.
type Handle [32]byte

var (
	// ErrHandleUnknown is returned when no sealed value exists for a handle.
	ErrHandleUnknown = errors.New("confidential: unknown ciphertext handle")
	// ErrNotPermitted is returned when the requester has not been granted
	// access to the handle.
	ErrNotPermitted = errors.New("confidential: requester not permitted to decrypt handle")
	// ErrAuthorizationInvalid is returned when a consent structure fails
	// signature or binding checks.
	ErrAuthorizationInvalid = errors.New("confidential: authorization rejected")
	// ErrAuthorizationExpired is returned when a consent structure is
	// outside its validity window.
	ErrAuthorizationExpired = errors.New("confidential: authorization expired")
	// ErrAuthorizationReplayed is returned when a consent nonce is reused.
	ErrAuthorizationReplayed = errors.New("confidential: authorization nonce already used")
)

// Service is the full collaborator contract. Encrypt and Decrypt are invoked
// off-core (by the bidder before placeBid, by the seller before acceptBid);
// only Verify is called by the core itself when a bid enters the store.
type Service interface {
	// Encrypt seals a value for use inside the given context by the given
	// caller and returns the handle plus a proof binding the three together.
	Encrypt(value uint64, context [20]byte, caller [20]byte) (Handle, []byte, error)
	// Verify reports whether the proof attests that the handle is well
	// formed and bound to (context, caller).
	Verify(handle Handle, proof []byte, context [20]byte, caller [20]byte) bool
	// Grant extends decryption rights on a handle to another identity. The
	// host invokes this when a bid is recorded so the listing's seller can
	// later read the amount.
	Grant(handle Handle, grantee [20]byte) error
	// Decrypt releases the sealed value to the requester named in the
	// authorization, provided the consent verifies and has not expired or
	// been replayed.
	Decrypt(handle Handle, auth *Authorization) (uint64, error)
}
