package state

import "ciphermarket/native/assets"

// TokenPut journals a token record.
func (m *Manager) TokenPut(t *assets.Token) error {
	sanitized, err := assets.SanitizeToken(t)
	if err != nil {
		return err
	}
	return m.putJSON(tokenKey(sanitized.ID), sanitized)
}

// TokenGet loads a token by id.
func (m *Manager) TokenGet(id uint64) (*assets.Token, bool) {
	token := &assets.Token{}
	ok, err := m.getJSON(tokenKey(id), token)
	if err != nil || !ok {
		return nil, false
	}
	return token.Clone(), true
}

// TokenNextID assigns and returns the next token id. Ids are 1-based.
func (m *Manager) TokenNextID() (uint64, error) {
	counter, err := m.getUint64([]byte(keyTokenCounter))
	if err != nil {
		return 0, err
	}
	counter++
	m.putUint64([]byte(keyTokenCounter), counter)
	return counter, nil
}

// MintedTokenOf returns the token an address has minted, if any.
func (m *Manager) MintedTokenOf(owner [20]byte) (uint64, bool) {
	id, err := m.getUint64(mintedTokenKey(owner))
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// SetMintedToken records the one token an address minted.
func (m *Manager) SetMintedToken(owner [20]byte, id uint64) error {
	m.putUint64(mintedTokenKey(owner), id)
	return nil
}

// OwnedTokens enumerates the token ids currently held by an address.
func (m *Manager) OwnedTokens(owner [20]byte) ([]uint64, error) {
	var owned []uint64
	if _, err := m.getJSON(ownedTokensKey(owner), &owned); err != nil {
		return nil, err
	}
	return owned, nil
}

// SetOwnedTokens replaces the owned-token index for an address.
func (m *Manager) SetOwnedTokens(owner [20]byte, ids []uint64) error {
	if ids == nil {
		ids = []uint64{}
	}
	return m.putJSON(ownedTokensKey(owner), ids)
}
