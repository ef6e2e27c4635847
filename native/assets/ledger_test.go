package assets

import (
	"errors"
	"testing"
)

type mockState struct {
	tokens  map[uint64]*Token
	counter uint64
	minted  map[[20]byte]uint64
	owned   map[[20]byte][]uint64
}

func newMockState() *mockState {
	return &mockState{
		tokens: make(map[uint64]*Token),
		minted: make(map[[20]byte]uint64),
		owned:  make(map[[20]byte][]uint64),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func (m *mockState) TokenPut(t *Token) error {
	sanitized, err := SanitizeToken(t)
	if err != nil {
		return err
	}
	m.tokens[sanitized.ID] = sanitized.Clone()
	return nil
}

func (m *mockState) TokenGet(id uint64) (*Token, bool) {
	token, ok := m.tokens[id]
	if !ok {
		return nil, false
	}
	return token.Clone(), true
}

func (m *mockState) TokenNextID() (uint64, error) {
	m.counter++
	return m.counter, nil
}

func (m *mockState) MintedTokenOf(owner [20]byte) (uint64, bool) {
	id, ok := m.minted[owner]
	return id, ok
}

func (m *mockState) SetMintedToken(owner [20]byte, id uint64) error {
	m.minted[owner] = id
	return nil
}

func (m *mockState) OwnedTokens(owner [20]byte) ([]uint64, error) {
	return append([]uint64(nil), m.owned[owner]...), nil
}

func (m *mockState) SetOwnedTokens(owner [20]byte, ids []uint64) error {
	m.owned[owner] = append([]uint64(nil), ids...)
	return nil
}

func newTestLedger(t *testing.T) (*Ledger, *mockState) {
	t.Helper()
	state := newMockState()
	ledger := NewLedger()
	ledger.SetState(state)
	ledger.SetNowFunc(func() int64 { return 1700000000 })
	return ledger, state
}

func TestMintOncePerAddress(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)

	first, err := ledger.Mint(alice)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected token id 1, got %d", first)
	}
	if _, err := ledger.Mint(alice); !errors.Is(err, ErrAlreadyMinted) {
		t.Fatalf("second mint: expected ErrAlreadyMinted, got %v", err)
	}
	second, err := ledger.Mint(bob)
	if err != nil {
		t.Fatalf("mint bob: %v", err)
	}
	if second != 2 {
		t.Fatalf("expected token id 2, got %d", second)
	}

	owner, err := ledger.OwnerOf(first)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != alice {
		t.Fatalf("owner mismatch")
	}
	tokens, err := ledger.TokensOf(alice)
	if err != nil {
		t.Fatalf("tokens of: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != first {
		t.Fatalf("unexpected owned set: %v", tokens)
	}
}

func TestApproveOwnerOnly(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newTestAddress(0x01)
	operator := newTestAddress(0x02)
	stranger := newTestAddress(0x03)
	id, err := ledger.Mint(alice)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := ledger.Approve(stranger, id, operator); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger approve: expected ErrNotAuthorized, got %v", err)
	}
	if err := ledger.Approve(alice, id, operator); err != nil {
		t.Fatalf("approve: %v", err)
	}
	ok, err := ledger.IsApprovedOrOwner(id, operator)
	if err != nil || !ok {
		t.Fatalf("operator must be approved, ok=%v err=%v", ok, err)
	}

	// A zero operator clears the approval.
	if err := ledger.Approve(alice, id, [20]byte{}); err != nil {
		t.Fatalf("clear approval: %v", err)
	}
	ok, err = ledger.IsApprovedOrOwner(id, operator)
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if ok {
		t.Fatalf("approval must be cleared")
	}
}

func TestTransferMovesCustodyAndClearsApproval(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newTestAddress(0x01)
	operator := newTestAddress(0x02)
	carol := newTestAddress(0x03)
	id, err := ledger.Mint(alice)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := ledger.Transfer(carol, id, alice, carol); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("unapproved transfer: expected ErrNotAuthorized, got %v", err)
	}
	if err := ledger.Approve(alice, id, operator); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.Transfer(operator, id, carol, carol); !errors.Is(err, ErrWrongOwner) {
		t.Fatalf("wrong from: expected ErrWrongOwner, got %v", err)
	}
	if err := ledger.Transfer(operator, id, alice, [20]byte{}); err == nil {
		t.Fatalf("transfer to zero address must fail")
	}
	if err := ledger.Transfer(operator, id, alice, carol); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	owner, _ := ledger.OwnerOf(id)
	if owner != carol {
		t.Fatalf("custody did not move")
	}
	ok, _ := ledger.IsApprovedOrOwner(id, operator)
	if ok {
		t.Fatalf("approval must be cleared by transfer")
	}
	aliceTokens, _ := ledger.TokensOf(alice)
	if len(aliceTokens) != 0 {
		t.Fatalf("previous owner still holds token: %v", aliceTokens)
	}
	carolTokens, _ := ledger.TokensOf(carol)
	if len(carolTokens) != 1 || carolTokens[0] != id {
		t.Fatalf("recipient missing token: %v", carolTokens)
	}
}

func TestUnknownTokenErrors(t *testing.T) {
	ledger, _ := newTestLedger(t)
	if _, err := ledger.OwnerOf(99); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if err := ledger.Approve(newTestAddress(0x01), 99, newTestAddress(0x02)); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if err := ledger.Transfer(newTestAddress(0x01), 99, newTestAddress(0x01), newTestAddress(0x02)); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
