package core

import (
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"ciphermarket/core/events"
	"ciphermarket/core/state"
	"ciphermarket/core/types"
	"ciphermarket/native/assets"
	"ciphermarket/native/confidential"
	"ciphermarket/native/market"
	"ciphermarket/storage"
)

// RegistryAddress derives the well-known identity of the listing registry.
// It is the context identity bid ciphertexts are bound to, standing in for
// the contract address of the original deployment.
func RegistryAddress() [20]byte {
	digest := ethcrypto.Keccak256([]byte("ciphermarket/listing-registry/v1"))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// proofVerifier narrows the confidential service to the single method the
// core is allowed to call.
type proofVerifier struct {
	svc confidential.Service
}

func (v proofVerifier) Verify(handle [32]byte, proof []byte, context [20]byte, caller [20]byte) bool {
	return v.svc.Verify(confidential.Handle(handle), proof, context, caller)
}

// Node is the host-ledger execution environment for the marketplace: it
// serializes every public operation into one global order, runs it against
// the journaled state manager, and commits or discards the journal as a
// unit. That mutex plus journal is the entire concurrency model; the engines
// below it never lock.
type Node struct {
	mu           sync.Mutex
	state        *state.Manager
	assets       *assets.Ledger
	market       *market.Engine
	confidential confidential.Service
	registry     [20]byte

	pending  []types.Event
	eventLog []types.Event
}

// NewNode wires the asset ledger and market engine over a shared state
// manager backed by the given database.
func NewNode(db storage.Database, conf confidential.Service) *Node {
	st := state.NewManager(db)
	registry := RegistryAddress()

	ledger := assets.NewLedger()
	ledger.SetState(st)

	engine := market.NewEngine()
	engine.SetState(st)
	engine.SetRegistryAddress(registry)
	engine.SetCustody(&custodyBridge{ledger: ledger, registry: registry})
	if conf != nil {
		engine.SetVerifier(proofVerifier{svc: conf})
	}

	node := &Node{
		state:        st,
		assets:       ledger,
		market:       engine,
		confidential: conf,
		registry:     registry,
	}
	ledger.SetEmitter(node)
	engine.SetEmitter(node)
	return node
}

// RegistryAddress returns the registry identity used as proof context.
func (n *Node) RegistryAddress() [20]byte { return n.registry }

// Emit implements events.Emitter: engine events are buffered per operation
// and appended to the node's event log only when the operation commits.
func (n *Node) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok || carrier.Event() == nil {
		return
	}
	n.pending = append(n.pending, *carrier.Event())
}

// run executes one public operation as an atomic unit.
func (n *Node) run(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = n.pending[:0]
	if err := fn(); err != nil {
		n.state.Discard()
		n.pending = n.pending[:0]
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.Discard()
		n.pending = n.pending[:0]
		return err
	}
	n.eventLog = append(n.eventLog, n.pending...)
	n.pending = n.pending[:0]
	return nil
}

// --- asset ledger operations ---

// MintAsset issues the caller's unique token.
func (n *Node) MintAsset(caller [20]byte) (uint64, error) {
	var id uint64
	err := n.run(func() error {
		var innerErr error
		id, innerErr = n.assets.Mint(caller)
		return innerErr
	})
	return id, err
}

// ApproveAsset sets (or clears, with a zero operator) the transfer operator
// for a token the caller owns.
func (n *Node) ApproveAsset(caller [20]byte, tokenID uint64, operator [20]byte) error {
	return n.run(func() error {
		return n.assets.Approve(caller, tokenID, operator)
	})
}

// OwnerOf returns the current owner of record for a token.
func (n *Node) OwnerOf(tokenID uint64) ([20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.assets.OwnerOf(tokenID)
}

// TokensOf enumerates the tokens held by an address.
func (n *Node) TokensOf(owner [20]byte) ([]uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.assets.TokensOf(owner)
}

// --- market operations ---

// CreateListing lists an asset at a fixed price and returns the listing id.
func (n *Node) CreateListing(caller [20]byte, assetID uint64, priceWei *big.Int) (uint64, error) {
	var id uint64
	err := n.run(func() error {
		var innerErr error
		id, innerErr = n.market.CreateListing(caller, assetID, priceWei)
		return innerErr
	})
	return id, err
}

// CancelListing cancels the caller's active listing.
func (n *Node) CancelListing(caller [20]byte, id uint64) error {
	return n.run(func() error {
		return n.market.CancelListing(caller, id)
	})
}

// BuyNow purchases an active listing at exactly its fixed price.
func (n *Node) BuyNow(caller [20]byte, id uint64, valueWei *big.Int) error {
	return n.run(func() error {
		return n.market.BuyNow(caller, id, valueWei)
	})
}

// PlaceBid appends an encrypted bid and grants the listing's seller
// decryption rights on the handle, mirroring the access-control grant the
// original contract performed on-chain.
func (n *Node) PlaceBid(caller [20]byte, id uint64, handle [32]byte, proof []byte) (uint64, error) {
	var index uint64
	err := n.run(func() error {
		listing, innerErr := n.market.GetListing(id)
		if innerErr != nil {
			return innerErr
		}
		index, innerErr = n.market.PlaceBid(caller, id, handle, proof)
		if innerErr != nil {
			return innerErr
		}
		if n.confidential != nil {
			return n.confidential.Grant(confidential.Handle(handle), listing.Seller)
		}
		return nil
	})
	return index, err
}

// AcceptBid records the seller's acceptance of one bid at a seller-revealed
// clear price and parks the listing in AwaitingPayment.
func (n *Node) AcceptBid(caller [20]byte, id, bidIndex uint64, clearPriceWei *big.Int) error {
	return n.run(func() error {
		return n.market.AcceptBid(caller, id, bidIndex, clearPriceWei)
	})
}

// SettleAcceptedBid completes a bid-driven sale at exactly the accepted
// price.
func (n *Node) SettleAcceptedBid(caller [20]byte, id uint64, valueWei *big.Int) error {
	return n.run(func() error {
		return n.market.SettleAcceptedBid(caller, id, valueWei)
	})
}

// WithdrawProceeds drains the caller's accrued sale revenue into their
// account and returns the amount paid out.
func (n *Node) WithdrawProceeds(caller [20]byte) (*big.Int, error) {
	var amount *big.Int
	err := n.run(func() error {
		var innerErr error
		amount, innerErr = n.market.WithdrawProceeds(caller)
		return innerErr
	})
	return amount, err
}

// --- read accessors ---

func (n *Node) ListingCount() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.ListingCount()
}

func (n *Node) GetListing(id uint64) (*market.Listing, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.GetListing(id)
}

func (n *Node) GetBidCount(id uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.GetBidCount(id)
}

func (n *Node) GetBid(id, index uint64) (*market.Bid, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.GetBid(id, index)
}

func (n *Node) Proceeds(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.market.ProceedsOf(addr)
}

// BalanceOf returns the native-value balance held by an address.
func (n *Node) BalanceOf(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	account, err := n.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.BalanceWei), nil
}

// FundAccount credits native value to an address. This is the development
// faucet standing in for genesis allocations and inbound transfers.
func (n *Node) FundAccount(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("core: funding amount must be positive")
	}
	return n.run(func() error {
		account, err := n.state.GetAccount(addr)
		if err != nil {
			return err
		}
		account.BalanceWei = new(big.Int).Add(account.BalanceWei, amount)
		return n.state.PutAccount(addr, account)
	})
}

// Events returns a copy of the committed event log in emission order.
func (n *Node) Events() []types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	log := make([]types.Event, len(n.eventLog))
	copy(log, n.eventLog)
	return log
}
