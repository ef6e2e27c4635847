package confidential

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"ciphermarket/crypto"
)

const authorizationDomain = "ciphermarket/decrypt-authorization/v1"

// Authorization is a time-bounded, signature-backed consent structure naming
// the requester and the context a decryption is permitted for. The signature
// must recover to the requester's own key; the service additionally checks
// that the requester was granted access to the handle.
type Authorization struct {
	Handle    Handle   `json:"handle"`
	Context   [20]byte `json:"context"`
	Requester [20]byte `json:"requester"`
	IssuedAt  int64    `json:"issuedAt"`
	ExpiresAt int64    `json:"expiresAt"`
	Nonce     string   `json:"nonce"`
	Signature []byte   `json:"signature"`
}

// SigningHash returns the digest covered by the consent signature.
func (a *Authorization) SigningHash() [32]byte {
	var issued, expires [8]byte
	binary.BigEndian.PutUint64(issued[:], uint64(a.IssuedAt))
	binary.BigEndian.PutUint64(expires[:], uint64(a.ExpiresAt))
	digest := ethcrypto.Keccak256(
		[]byte(authorizationDomain),
		a.Handle[:],
		a.Context[:],
		a.Requester[:],
		issued[:],
		expires[:],
		[]byte(a.Nonce),
	)
	var hash [32]byte
	copy(hash[:], digest)
	return hash
}

// NewAuthorization builds and signs a consent for the key holder, valid from
// issuedAt until expiresAt. The nonce makes each consent single-use.
func NewAuthorization(key *crypto.PrivateKey, handle Handle, context [20]byte, issuedAt, expiresAt int64) (*Authorization, error) {
	auth := &Authorization{
		Handle:    handle,
		Context:   context,
		Requester: key.PubKey().Address().Raw(),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Nonce:     uuid.NewString(),
	}
	hash := auth.SigningHash()
	sig, err := ethcrypto.Sign(hash[:], key.PrivateKey)
	if err != nil {
		return nil, err
	}
	auth.Signature = sig
	return auth, nil
}

// signer recovers the address that produced the consent signature.
func (a *Authorization) signer() ([20]byte, error) {
	hash := a.SigningHash()
	pub, err := ethcrypto.SigToPub(hash[:], a.Signature)
	if err != nil {
		return [20]byte{}, err
	}
	var addr [20]byte
	copy(addr[:], ethcrypto.PubkeyToAddress(*pub).Bytes())
	return addr, nil
}
