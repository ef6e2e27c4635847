package confidential

import (
	"errors"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"ciphermarket/crypto"
)

const testNow = int64(1700000000)

func newTestEnclave(t *testing.T) *Enclave {
	t.Helper()
	enclave, err := NewEnclave()
	if err != nil {
		t.Fatalf("new enclave: %v", err)
	}
	enclave.SetNowFunc(func() int64 { return testNow })
	return enclave
}

func newTestKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func addrOf(key *crypto.PrivateKey) [20]byte {
	return key.PubKey().Address().Raw()
}

func TestEncryptVerifyRoundtrip(t *testing.T) {
	enclave := newTestEnclave(t)
	bidder := newTestKey(t)
	context := [20]byte{0xEE}

	handle, proof, err := enclave.Encrypt(123456789, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if handle == (Handle{}) {
		t.Fatalf("handle must not be zero")
	}
	if !enclave.Verify(handle, proof, context, addrOf(bidder)) {
		t.Fatalf("proof must verify for the sealing pair")
	}

	// The attestation binds (handle, context, caller); swapping either leg
	// breaks it.
	other := newTestKey(t)
	if enclave.Verify(handle, proof, context, addrOf(other)) {
		t.Fatalf("proof must not verify for another caller")
	}
	if enclave.Verify(handle, proof, [20]byte{0x11}, addrOf(bidder)) {
		t.Fatalf("proof must not verify for another context")
	}
	if enclave.Verify(Handle{0x01}, proof, context, addrOf(bidder)) {
		t.Fatalf("proof must not verify for another handle")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	enclave := newTestEnclave(t)
	impostor := NewEnclaveWithKey(newTestKey(t))
	bidder := newTestKey(t)
	context := [20]byte{0xEE}

	handle, _, err := enclave.Encrypt(42, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	// A proof for the same tuple signed by a different service key is worthless.
	digest := impostor.proofDigest(handle, context, addrOf(bidder))
	forged, err := ethcrypto.Sign(digest[:], impostor.key.PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if enclave.Verify(handle, forged, context, addrOf(bidder)) {
		t.Fatalf("foreign signature must not verify")
	}
	if enclave.Verify(handle, []byte("garbage"), context, addrOf(bidder)) {
		t.Fatalf("malformed proof must not verify")
	}
}

func TestDecryptRequiresGrant(t *testing.T) {
	enclave := newTestEnclave(t)
	bidder := newTestKey(t)
	seller := newTestKey(t)
	context := [20]byte{0xEE}

	handle, _, err := enclave.Encrypt(123456789, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	auth, err := NewAuthorization(seller, handle, context, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if _, err := enclave.Decrypt(handle, auth); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("ungranted seller: expected ErrNotPermitted, got %v", err)
	}

	if err := enclave.Grant(handle, addrOf(seller)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	auth, err = NewAuthorization(seller, handle, context, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	value, err := enclave.Decrypt(handle, auth)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if value != 123456789 {
		t.Fatalf("expected sealed value 123456789, got %d", value)
	}
}

func TestDecryptOwnerSelfService(t *testing.T) {
	enclave := newTestEnclave(t)
	bidder := newTestKey(t)
	context := [20]byte{0xEE}

	handle, _, err := enclave.Encrypt(777, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	// Sealing grants the sealer without an explicit Grant call.
	auth, err := NewAuthorization(bidder, handle, context, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	value, err := enclave.Decrypt(handle, auth)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if value != 777 {
		t.Fatalf("expected 777, got %d", value)
	}
}

func TestDecryptValidityWindow(t *testing.T) {
	enclave := newTestEnclave(t)
	bidder := newTestKey(t)
	context := [20]byte{0xEE}
	handle, _, err := enclave.Encrypt(1, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	expired, err := NewAuthorization(bidder, handle, context, testNow-120, testNow-60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if _, err := enclave.Decrypt(handle, expired); !errors.Is(err, ErrAuthorizationExpired) {
		t.Fatalf("expired consent: expected ErrAuthorizationExpired, got %v", err)
	}

	future, err := NewAuthorization(bidder, handle, context, testNow+60, testNow+120)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if _, err := enclave.Decrypt(handle, future); !errors.Is(err, ErrAuthorizationExpired) {
		t.Fatalf("not-yet-valid consent: expected ErrAuthorizationExpired, got %v", err)
	}
}

func TestDecryptNonceReplay(t *testing.T) {
	enclave := newTestEnclave(t)
	bidder := newTestKey(t)
	context := [20]byte{0xEE}
	handle, _, err := enclave.Encrypt(5, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	auth, err := NewAuthorization(bidder, handle, context, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if _, err := enclave.Decrypt(handle, auth); err != nil {
		t.Fatalf("first decrypt: %v", err)
	}
	if _, err := enclave.Decrypt(handle, auth); !errors.Is(err, ErrAuthorizationReplayed) {
		t.Fatalf("replay: expected ErrAuthorizationReplayed, got %v", err)
	}
}

func TestDecryptRejectsTamperedConsent(t *testing.T) {
	enclave := newTestEnclave(t)
	bidder := newTestKey(t)
	impostor := newTestKey(t)
	context := [20]byte{0xEE}
	handle, _, err := enclave.Encrypt(9, context, addrOf(bidder))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := enclave.Decrypt(handle, nil); !errors.Is(err, ErrAuthorizationInvalid) {
		t.Fatalf("nil consent: expected ErrAuthorizationInvalid, got %v", err)
	}

	// Consent signed by someone else but naming the bidder as requester.
	forged, err := NewAuthorization(impostor, handle, context, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	forged.Requester = addrOf(bidder)
	if _, err := enclave.Decrypt(handle, forged); !errors.Is(err, ErrAuthorizationInvalid) {
		t.Fatalf("forged requester: expected ErrAuthorizationInvalid, got %v", err)
	}

	// Consent for a different handle than the one presented.
	mismatched, err := NewAuthorization(bidder, Handle{0x01}, context, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if _, err := enclave.Decrypt(handle, mismatched); !errors.Is(err, ErrAuthorizationInvalid) {
		t.Fatalf("handle mismatch: expected ErrAuthorizationInvalid, got %v", err)
	}

	// Consent bound to another context.
	wrongContext, err := NewAuthorization(bidder, handle, [20]byte{0x11}, testNow-10, testNow+60)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if _, err := enclave.Decrypt(handle, wrongContext); !errors.Is(err, ErrAuthorizationInvalid) {
		t.Fatalf("context mismatch: expected ErrAuthorizationInvalid, got %v", err)
	}
}

func TestGrantUnknownHandle(t *testing.T) {
	enclave := newTestEnclave(t)
	if err := enclave.Grant(Handle{0x01}, [20]byte{0x02}); !errors.Is(err, ErrHandleUnknown) {
		t.Fatalf("expected ErrHandleUnknown, got %v", err)
	}
}
