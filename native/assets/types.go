package assets

import "fmt"

// Token is one uniquely-owned digital asset. Ids are 1-based and assigned
// monotonically by the ledger; every address may mint at most one token.
type Token struct {
	ID       uint64
	Owner    [20]byte
	Approved [20]byte
	MintedAt int64
}

// Clone returns a copy of the token.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// HasApproval reports whether an operator is currently approved to move the
// token on the owner's behalf.
func (t *Token) HasApproval() bool {
	var zero [20]byte
	return t != nil && t.Approved != zero
}

// SanitizeToken validates a token record before it is stored.
func SanitizeToken(t *Token) (*Token, error) {
	if t == nil {
		return nil, fmt.Errorf("assets: nil token")
	}
	if t.ID == 0 {
		return nil, fmt.Errorf("assets: token id must be positive")
	}
	var zero [20]byte
	if t.Owner == zero {
		return nil, fmt.Errorf("assets: token must have an owner")
	}
	return t.Clone(), nil
}
