package confidential

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"ciphermarket/crypto"
)

const proofDomain = "ciphermarket/input-proof/v1"

type sealedValue struct {
	value   uint64
	context [20]byte
	owner   [20]byte
}

// Enclave is the development implementation of the confidential service. It
// seals values in process memory and signs proofs with its own service key;
// a production deployment would delegate both to an external coprocessor.
// Sealed values do not survive a restart, which matches the dev role: the
// durable record on the marketplace side is only ever the handle.
type Enclave struct {
	key *crypto.PrivateKey

	mu         sync.Mutex
	sealed     map[Handle]*sealedValue
	granted    map[Handle]map[[20]byte]bool
	usedNonces map[string]bool
	nowFn      func() int64
}

// NewEnclave creates an enclave with a fresh service identity.
func NewEnclave() (*Enclave, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return NewEnclaveWithKey(key), nil
}

// NewEnclaveWithKey creates an enclave signing proofs with the given key.
func NewEnclaveWithKey(key *crypto.PrivateKey) *Enclave {
	return &Enclave{
		key:        key,
		sealed:     make(map[Handle]*sealedValue),
		granted:    make(map[Handle]map[[20]byte]bool),
		usedNonces: make(map[string]bool),
		nowFn:      func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Enclave) SetNowFunc(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// ServiceAddress returns the identity the enclave signs proofs with.
func (e *Enclave) ServiceAddress() [20]byte {
	return e.key.PubKey().Address().Raw()
}

func (e *Enclave) proofDigest(handle Handle, context, caller [20]byte) [32]byte {
	digest := ethcrypto.Keccak256([]byte(proofDomain), handle[:], context[:], caller[:])
	var hash [32]byte
	copy(hash[:], digest)
	return hash
}

// Encrypt seals the value and returns a fresh handle plus the service's
// attestation binding (handle, context, caller). The handle is derived from
// a random salt so it reveals nothing about the value.
func (e *Enclave) Encrypt(value uint64, context [20]byte, caller [20]byte) (Handle, []byte, error) {
	var salt [32]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return Handle{}, nil, fmt.Errorf("confidential: entropy unavailable: %w", err)
	}
	var handle Handle
	copy(handle[:], ethcrypto.Keccak256(salt[:], context[:], caller[:]))

	digest := e.proofDigest(handle, context, caller)
	proof, err := ethcrypto.Sign(digest[:], e.key.PrivateKey)
	if err != nil {
		return Handle{}, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sealed[handle] = &sealedValue{value: value, context: context, owner: caller}
	e.granted[handle] = map[[20]byte]bool{caller: true}
	return handle, proof, nil
}

// Verify reports whether the proof is the enclave's own attestation for
// (handle, context, caller) and the handle refers to a sealed value bound to
// exactly that pair.
func (e *Enclave) Verify(handle Handle, proof []byte, context [20]byte, caller [20]byte) bool {
	digest := e.proofDigest(handle, context, caller)
	pub, err := ethcrypto.SigToPub(digest[:], proof)
	if err != nil {
		return false
	}
	var signer [20]byte
	copy(signer[:], ethcrypto.PubkeyToAddress(*pub).Bytes())
	if signer != e.ServiceAddress() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sealed, ok := e.sealed[handle]
	return ok && sealed.context == context && sealed.owner == caller
}

// Grant extends decryption rights on a handle to another identity.
func (e *Enclave) Grant(handle Handle, grantee [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sealed[handle]; !ok {
		return ErrHandleUnknown
	}
	if e.granted[handle] == nil {
		e.granted[handle] = make(map[[20]byte]bool)
	}
	e.granted[handle][grantee] = true
	return nil
}

// Decrypt releases the sealed value to the requester named in the consent.
// The consent must carry a valid signature by the requester, bind the same
// handle and context, fall inside its validity window, and use a fresh nonce.
func (e *Enclave) Decrypt(handle Handle, auth *Authorization) (uint64, error) {
	if auth == nil {
		return 0, ErrAuthorizationInvalid
	}
	if auth.Handle != handle {
		return 0, fmt.Errorf("%w: handle mismatch", ErrAuthorizationInvalid)
	}
	signer, err := auth.signer()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAuthorizationInvalid, err)
	}
	if signer != auth.Requester {
		return 0, fmt.Errorf("%w: signature does not match requester", ErrAuthorizationInvalid)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.nowFn()
	if auth.IssuedAt > now || auth.ExpiresAt <= now {
		return 0, ErrAuthorizationExpired
	}
	if e.usedNonces[auth.Nonce] {
		return 0, ErrAuthorizationReplayed
	}
	sealed, ok := e.sealed[handle]
	if !ok {
		return 0, ErrHandleUnknown
	}
	if sealed.context != auth.Context {
		return 0, fmt.Errorf("%w: context mismatch", ErrAuthorizationInvalid)
	}
	if !e.granted[handle][auth.Requester] {
		return 0, ErrNotPermitted
	}
	e.usedNonces[auth.Nonce] = true
	return sealed.value, nil
}
