package market

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the role required
	// for the requested transition.
	ErrUnauthorized = errors.New("market: caller not authorized for operation")
	// ErrInvalidListingState is returned when an operation is not legal from
	// the listing's current status.
	ErrInvalidListingState = errors.New("market: operation not legal in current listing state")
	// ErrInvalidPayment is returned when the attached payment does not
	// exactly equal the required amount.
	ErrInvalidPayment = errors.New("market: attached payment must equal required amount")
	// ErrNotFound is returned when a listing id or bid index is out of range.
	ErrNotFound = errors.New("market: listing or bid not found")
	// ErrDuplicateListing is returned when the asset already has an open
	// listing in Active or AwaitingPayment status.
	ErrDuplicateListing = errors.New("market: asset already has an open listing")
	// ErrApprovalMissing is returned when custody transfer has not been
	// pre-approved to the registry.
	ErrApprovalMissing = errors.New("market: custody transfer not approved to registry")
	// ErrInsufficientFunds is returned when the caller cannot cover the
	// payment attached to a payable operation.
	ErrInsufficientFunds = errors.New("market: caller balance below attached payment")
	// ErrInvalidProof is returned when the confidential-compute service
	// rejects a bid ciphertext proof.
	ErrInvalidProof = errors.New("market: bid ciphertext proof rejected")
)
