package assets

import (
	"errors"
	"fmt"
	"time"

	"ciphermarket/core/events"
	"ciphermarket/core/types"
)

var (
	errNilState = errors.New("assets ledger: state not configured")

	// ErrTokenNotFound is returned when no token exists for an id.
	ErrTokenNotFound = errors.New("assets: token not found")
	// ErrAlreadyMinted is returned when an address mints a second time.
	ErrAlreadyMinted = errors.New("assets: address has already minted")
	// ErrNotAuthorized is returned when the caller is neither the owner nor
	// an approved operator for the token.
	ErrNotAuthorized = errors.New("assets: caller is neither owner nor approved")
	// ErrWrongOwner is returned when a transfer names a from address that is
	// not the current owner of record.
	ErrWrongOwner = errors.New("assets: from address is not the current owner")
)

// ledgerState is the backing state for the asset-ownership ledger.
type ledgerState interface {
	TokenPut(*Token) error
	TokenGet(id uint64) (*Token, bool)
	TokenNextID() (uint64, error)
	MintedTokenOf(owner [20]byte) (uint64, bool)
	SetMintedToken(owner [20]byte, id uint64) error
	OwnedTokens(owner [20]byte) ([]uint64, error)
	SetOwnedTokens(owner [20]byte, ids []uint64) error
}

type assetEvent struct {
	evt *types.Event
}

func (e assetEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e assetEvent) Event() *types.Event { return e.evt }

// Ledger records custody of unique assets: one mint per address, a single
// approved operator per token, and owner-indexed enumeration. The market's
// custody bridge adapts this ledger; the ledger itself knows nothing about
// listings.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
	nowFn   func() int64
}

// NewLedger creates an asset ledger with a no-op emitter.
func NewLedger() *Ledger {
	return &Ledger{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(assetEvent{evt: evt})
}

func (l *Ledger) loadToken(id uint64) (*Token, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	token, ok := l.state.TokenGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return token, nil
}

func (l *Ledger) storeToken(t *Token) error {
	sanitized, err := SanitizeToken(t)
	if err != nil {
		return err
	}
	return l.state.TokenPut(sanitized)
}

// Mint issues the caller's unique token and returns its id. Each address may
// mint exactly once.
func (l *Ledger) Mint(caller [20]byte) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	if _, ok := l.state.MintedTokenOf(caller); ok {
		return 0, ErrAlreadyMinted
	}
	id, err := l.state.TokenNextID()
	if err != nil {
		return 0, err
	}
	token := &Token{ID: id, Owner: caller, MintedAt: l.nowFn()}
	if err := l.storeToken(token); err != nil {
		return 0, err
	}
	if err := l.state.SetMintedToken(caller, id); err != nil {
		return 0, err
	}
	if err := l.addOwned(caller, id); err != nil {
		return 0, err
	}
	l.emit(NewMintedEvent(token))
	return id, nil
}

// OwnerOf returns the current owner of record for a token.
func (l *Ledger) OwnerOf(id uint64) ([20]byte, error) {
	token, err := l.loadToken(id)
	if err != nil {
		return [20]byte{}, err
	}
	return token.Owner, nil
}

// Approve grants (or, with a zero operator, clears) transfer rights on a
// token. Only the owner may approve.
func (l *Ledger) Approve(caller [20]byte, id uint64, operator [20]byte) error {
	token, err := l.loadToken(id)
	if err != nil {
		return err
	}
	if token.Owner != caller {
		return ErrNotAuthorized
	}
	token.Approved = operator
	if err := l.storeToken(token); err != nil {
		return err
	}
	l.emit(NewApprovedEvent(token))
	return nil
}

// IsApprovedOrOwner reports whether the given identity may move the token.
func (l *Ledger) IsApprovedOrOwner(id uint64, addr [20]byte) (bool, error) {
	token, err := l.loadToken(id)
	if err != nil {
		return false, err
	}
	return token.Owner == addr || token.Approved == addr, nil
}

// Transfer moves custody from the owner of record to the recipient. The
// caller must be the owner or the approved operator; any approval is cleared
// by the transfer.
func (l *Ledger) Transfer(caller [20]byte, id uint64, from, to [20]byte) error {
	token, err := l.loadToken(id)
	if err != nil {
		return err
	}
	if token.Owner != from {
		return ErrWrongOwner
	}
	if token.Owner != caller && token.Approved != caller {
		return ErrNotAuthorized
	}
	var zero [20]byte
	if to == zero {
		return fmt.Errorf("assets: transfer to the zero address")
	}
	token.Owner = to
	token.Approved = zero
	if err := l.storeToken(token); err != nil {
		return err
	}
	if err := l.removeOwned(from, id); err != nil {
		return err
	}
	if err := l.addOwned(to, id); err != nil {
		return err
	}
	l.emit(NewTransferredEvent(token, from))
	return nil
}

// TokensOf enumerates the token ids currently owned by an address.
func (l *Ledger) TokensOf(owner [20]byte) ([]uint64, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.OwnedTokens(owner)
}

func (l *Ledger) addOwned(owner [20]byte, id uint64) error {
	owned, err := l.state.OwnedTokens(owner)
	if err != nil {
		return err
	}
	return l.state.SetOwnedTokens(owner, append(owned, id))
}

func (l *Ledger) removeOwned(owner [20]byte, id uint64) error {
	owned, err := l.state.OwnedTokens(owner)
	if err != nil {
		return err
	}
	filtered := owned[:0]
	for _, tokenID := range owned {
		if tokenID != id {
			filtered = append(filtered, tokenID)
		}
	}
	return l.state.SetOwnedTokens(owner, filtered)
}
