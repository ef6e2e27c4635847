package market

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"ciphermarket/core/events"
	"ciphermarket/core/types"
)

var (
	errNilState    = errors.New("market engine: state not configured")
	errNilCustody  = errors.New("market engine: custody bridge not configured")
	errNilVerifier = errors.New("market engine: proof verifier not configured")
)

// engineState is the backing state the listing registry needs. Every method
// operates inside the host's atomic unit of execution; the engine never
// observes partially committed writes.
type engineState interface {
	bidState
	proceedsState
	ListingCount() (uint64, error)
	ListingNextID() (uint64, error)
	ListingPut(*Listing) error
	ListingGet(id uint64) (*Listing, bool)
	OpenListingByAsset(assetID uint64) (uint64, bool)
	SetOpenListingByAsset(assetID, listingID uint64) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// Engine is the listing registry: it owns the listing state machine and
// composes the bid store, proceeds ledger and custody bridge inside each
// operation. The host environment serializes invocations, so the engine
// carries no locking of its own.
type Engine struct {
	state    engineState
	custody  CustodyBridge
	verifier ProofVerifier
	emitter  events.Emitter
	bids     *BidStore
	proceeds *ProceedsLedger
	registry [20]byte
	nowFn    func() int64
}

// NewEngine creates a market engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) {
	e.state = state
	if state != nil {
		e.bids = NewBidStore(state)
		e.proceeds = NewProceedsLedger(state)
	} else {
		e.bids = nil
		e.proceeds = nil
	}
}

// SetCustody configures the bridge to the external asset-ownership ledger.
func (e *Engine) SetCustody(bridge CustodyBridge) { e.custody = bridge }

// SetVerifier configures the confidential-compute proof verifier.
func (e *Engine) SetVerifier(verifier ProofVerifier) { e.verifier = verifier }

// SetRegistryAddress configures the identity bid proofs must be bound to.
func (e *Engine) SetRegistryAddress(addr [20]byte) { e.registry = addr }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadListing(id uint64) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	listing, ok := e.state.ListingGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return listing, nil
}

func (e *Engine) storeListing(l *Listing) error {
	sanitized, err := SanitizeListing(l)
	if err != nil {
		return err
	}
	return e.state.ListingPut(sanitized)
}

// debitPayment removes the attached payment from the caller's account. The
// payment was already checked for exactness; only coverage can fail here.
func (e *Engine) debitPayment(caller [20]byte, amount *big.Int) error {
	account, err := e.state.GetAccount(caller)
	if err != nil {
		return err
	}
	account = account.EnsureBalances()
	if account.BalanceWei.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	account.BalanceWei = new(big.Int).Sub(account.BalanceWei, amount)
	return e.state.PutAccount(caller, account)
}

// creditAccount pays native value out to an identity.
func (e *Engine) creditAccount(addr [20]byte, amount *big.Int) error {
	account, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	account = account.EnsureBalances()
	account.BalanceWei = new(big.Int).Add(account.BalanceWei, amount)
	return e.state.PutAccount(addr, account)
}

// CreateListing lists an asset at a fixed buy-now price and returns the new
// listing id. The caller must own the asset and must have pre-approved the
// registry to transfer it; custody itself stays with the seller until a sale
// executes.
func (e *Engine) CreateListing(caller [20]byte, assetID uint64, priceWei *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.custody == nil {
		return 0, errNilCustody
	}
	if err := Authorize(OpCreateListing, caller, nil); err != nil {
		return 0, err
	}
	if priceWei == nil || priceWei.Sign() <= 0 {
		return 0, fmt.Errorf("market: listing price must be positive")
	}
	owner, err := e.custody.OwnerOf(assetID)
	if err != nil {
		return 0, err
	}
	if owner != caller {
		return 0, fmt.Errorf("%w: caller does not own asset %d", ErrUnauthorized, assetID)
	}
	approved, err := e.custody.IsApprovedOrOwner(assetID, e.registry)
	if err != nil {
		return 0, err
	}
	if !approved {
		return 0, ErrApprovalMissing
	}
	if open, ok := e.state.OpenListingByAsset(assetID); ok {
		return 0, fmt.Errorf("%w: listing %d", ErrDuplicateListing, open)
	}
	id, err := e.state.ListingNextID()
	if err != nil {
		return 0, err
	}
	now := e.now()
	listing := &Listing{
		ID:               id,
		Seller:           caller,
		AssetID:          assetID,
		PriceWei:         new(big.Int).Set(priceWei),
		Status:           ListingActive,
		AcceptedPriceWei: big.NewInt(0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.storeListing(listing); err != nil {
		return 0, err
	}
	if err := e.state.SetOpenListingByAsset(assetID, id); err != nil {
		return 0, err
	}
	e.emit(NewListingCreatedEvent(listing))
	return id, nil
}

// CancelListing moves an active listing to Cancelled. Only the seller may
// cancel, and a cancelled listing is terminal.
func (e *Engine) CancelListing(caller [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	listing, err := e.loadListing(id)
	if err != nil {
		return err
	}
	if err := Authorize(OpCancelListing, caller, listing); err != nil {
		return err
	}
	if listing.Status != ListingActive {
		return ErrInvalidListingState
	}
	listing.Status = ListingCancelled
	listing.UpdatedAt = e.now()
	if err := e.storeListing(listing); err != nil {
		return err
	}
	if err := e.state.SetOpenListingByAsset(listing.AssetID, 0); err != nil {
		return err
	}
	e.emit(NewListingCancelledEvent(listing))
	return nil
}

// BuyNow sells an active listing to the caller at exactly the fixed price.
// Custody transfer, proceeds credit and the status change land in the same
// atomic unit; over- and under-payment both fail without effect.
func (e *Engine) BuyNow(caller [20]byte, id uint64, valueWei *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.custody == nil {
		return errNilCustody
	}
	listing, err := e.loadListing(id)
	if err != nil {
		return err
	}
	if err := Authorize(OpBuyNow, caller, listing); err != nil {
		return err
	}
	if listing.Status != ListingActive {
		return ErrInvalidListingState
	}
	if valueWei == nil || valueWei.Cmp(listing.PriceWei) != 0 {
		return ErrInvalidPayment
	}
	if err := e.debitPayment(caller, valueWei); err != nil {
		return err
	}
	if err := e.custody.Transfer(listing.AssetID, listing.Seller, caller); err != nil {
		return err
	}
	if err := e.proceeds.Credit(listing.Seller, valueWei); err != nil {
		return err
	}
	listing.Status = ListingSold
	listing.UpdatedAt = e.now()
	if err := e.storeListing(listing); err != nil {
		return err
	}
	if err := e.state.SetOpenListingByAsset(listing.AssetID, 0); err != nil {
		return err
	}
	e.emit(NewListingBoughtEvent(listing, caller))
	return nil
}

// PlaceBid appends an encrypted bid to an active listing and returns its
// index. The confidential-compute service must attest that the handle is
// well formed and bound to (registry, caller); the value itself never enters
// the core.
func (e *Engine) PlaceBid(caller [20]byte, id uint64, handle [32]byte, proof []byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.verifier == nil {
		return 0, errNilVerifier
	}
	listing, err := e.loadListing(id)
	if err != nil {
		return 0, err
	}
	if err := Authorize(OpPlaceBid, caller, listing); err != nil {
		return 0, err
	}
	if listing.Status != ListingActive {
		return 0, ErrInvalidListingState
	}
	if !e.verifier.Verify(handle, proof, e.registry, caller) {
		return 0, ErrInvalidProof
	}
	bid := &Bid{
		Bidder:          caller,
		EncryptedAmount: handle,
		CreatedAt:       e.now(),
	}
	index, err := e.bids.Append(id, bid)
	if err != nil {
		return 0, err
	}
	e.emit(NewBidPlacedEvent(listing, index, bid))
	return index, nil
}

// AcceptBid records the seller's acceptance of one bid and moves the listing
// to AwaitingPayment. The registry does not decrypt anything: clearPriceWei
// is whatever the seller claims to have decrypted off-core, and nothing here
// verifies it against the bid's true encrypted amount. That trust boundary is
// part of the design; honest reveal depends on the seller or an off-core
// audit.
func (e *Engine) AcceptBid(caller [20]byte, id, bidIndex uint64, clearPriceWei *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	listing, err := e.loadListing(id)
	if err != nil {
		return err
	}
	if err := Authorize(OpAcceptBid, caller, listing); err != nil {
		return err
	}
	if listing.Status != ListingActive {
		return ErrInvalidListingState
	}
	if clearPriceWei == nil || clearPriceWei.Sign() <= 0 {
		return fmt.Errorf("market: accepted price must be positive")
	}
	bid, ok := e.bids.Get(id, bidIndex)
	if !ok {
		return fmt.Errorf("%w: bid %d", ErrNotFound, bidIndex)
	}
	if bid.Accepted || bid.Cancelled {
		return fmt.Errorf("%w: bid %d is not open", ErrNotFound, bidIndex)
	}
	if err := e.bids.MarkAccepted(id, bidIndex); err != nil {
		return err
	}
	listing.AcceptedBidder = bid.Bidder
	listing.AcceptedPriceWei = new(big.Int).Set(clearPriceWei)
	listing.Status = ListingAwaitingPayment
	listing.UpdatedAt = e.now()
	if err := e.storeListing(listing); err != nil {
		return err
	}
	e.emit(NewBidAcceptedEvent(listing, bidIndex))
	return nil
}

// SettleAcceptedBid completes a bid-driven sale: the accepted bidder pays
// exactly the revealed price, custody moves to the bidder, proceeds accrue to
// the seller and the listing becomes Sold. There is no deadline: an accepted
// bidder who never settles leaves the listing in AwaitingPayment forever.
func (e *Engine) SettleAcceptedBid(caller [20]byte, id uint64, valueWei *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.custody == nil {
		return errNilCustody
	}
	listing, err := e.loadListing(id)
	if err != nil {
		return err
	}
	if err := Authorize(OpSettleAccepted, caller, listing); err != nil {
		return err
	}
	if listing.Status != ListingAwaitingPayment {
		return ErrInvalidListingState
	}
	if valueWei == nil || valueWei.Cmp(listing.AcceptedPriceWei) != 0 {
		return ErrInvalidPayment
	}
	if err := e.debitPayment(caller, valueWei); err != nil {
		return err
	}
	if err := e.custody.Transfer(listing.AssetID, listing.Seller, caller); err != nil {
		return err
	}
	if err := e.proceeds.Credit(listing.Seller, valueWei); err != nil {
		return err
	}
	listing.Status = ListingSold
	listing.UpdatedAt = e.now()
	if err := e.storeListing(listing); err != nil {
		return err
	}
	if err := e.state.SetOpenListingByAsset(listing.AssetID, 0); err != nil {
		return err
	}
	e.emit(NewBidSettledEvent(listing))
	return nil
}

// WithdrawProceeds drains the caller's accrued balance into their account and
// returns the amount paid out. The ledger entry is zeroed before the payout
// leg runs; a zero balance is a harmless no-op.
func (e *Engine) WithdrawProceeds(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	amount, err := e.proceeds.Withdraw(caller)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := e.creditAccount(caller, amount); err != nil {
		return nil, err
	}
	e.emit(NewProceedsWithdrawnEvent(caller, amount.String()))
	return amount, nil
}

// ListingCount returns the number of listing ids assigned so far.
func (e *Engine) ListingCount() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.ListingCount()
}

// GetListing returns a copy of the listing with the given id.
func (e *Engine) GetListing(id uint64) (*Listing, error) {
	listing, err := e.loadListing(id)
	if err != nil {
		return nil, err
	}
	return listing.Clone(), nil
}

// GetBidCount returns the number of bids recorded for a listing.
func (e *Engine) GetBidCount(id uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if _, ok := e.state.ListingGet(id); !ok {
		return 0, ErrNotFound
	}
	return e.bids.Count(id)
}

// GetBid returns a copy of one bid on a listing.
func (e *Engine) GetBid(id, index uint64) (*Bid, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok := e.state.ListingGet(id); !ok {
		return nil, ErrNotFound
	}
	bid, ok := e.bids.Get(id, index)
	if !ok {
		return nil, fmt.Errorf("%w: bid %d", ErrNotFound, index)
	}
	return bid.Clone(), nil
}

// ProceedsOf returns the withdrawable balance accrued by a seller.
func (e *Engine) ProceedsOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.proceeds.Balance(addr)
}
